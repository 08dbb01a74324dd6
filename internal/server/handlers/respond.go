package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/avicola/internal/apperr"
	"github.com/mamadbah2/avicola/internal/auth"
	"github.com/mamadbah2/avicola/internal/capture"
	"github.com/mamadbah2/avicola/internal/domain/models"
)

// Identity headers set by the upstream authentication proxy.
const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"

	actorKey = "actor"
)

// Identify reads the actor forwarded by the proxy and stores it in the
// context. Missing or unknown roles leave the actor without a role so the
// gate denies it.
func Identify() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := models.Actor{ID: strings.TrimSpace(c.GetHeader(HeaderActorID))}
		if role, ok := models.ParseRole(c.GetHeader(HeaderActorRole)); ok {
			actor.Role = role
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// Require aborts with 401 when no valid role was presented and 403 when the
// role is not admitted by op. It runs before any handler touches storage.
func Require(op auth.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFrom(c)
		if !actor.Role.Valid() || actor.ID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if !op.Permits(actor) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "operation": op.Name})
			return
		}
		c.Next()
	}
}

// ActorFrom returns the actor stored by Identify.
func ActorFrom(c *gin.Context) models.Actor {
	if v, ok := c.Get(actorKey); ok {
		if actor, ok := v.(models.Actor); ok {
			return actor
		}
	}
	return models.Actor{}
}

// respondError maps service errors to HTTP responses.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var verr *apperr.ValidationError
	var failure *capture.Failure

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "fields": verr.Fields})
	case errors.As(err, &failure):
		status := http.StatusServiceUnavailable
		if failure.Reason == capture.ReasonPermissionDenied {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": "camera unavailable", "reason": failure.Reason})
	case errors.Is(err, apperr.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, apperr.ErrPreconditionFailed):
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": "scale photo required"})
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, apperr.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, capture.ErrBusy),
		errors.Is(err, capture.ErrNotStreaming),
		errors.Is(err, capture.ErrNoPreview),
		errors.Is(err, capture.ErrClosed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, capture.ErrFeedNotReady):
		c.JSON(http.StatusPreconditionFailed, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.ErrDeviceUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "device unavailable"})
	case errors.Is(err, apperr.ErrPersistence):
		logger.Error("storage write failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "storage unavailable"})
	default:
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, logger *zap.Logger, err error) {
	logger.Warn("invalid request body", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}
