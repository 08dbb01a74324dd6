package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/avicola/internal/apperr"
	"github.com/mamadbah2/avicola/internal/capture"
	"github.com/mamadbah2/avicola/internal/domain/models"
	"github.com/mamadbah2/avicola/internal/service/records"
	"github.com/mamadbah2/avicola/internal/weighing"
)

const dateLayout = "2006-01-02"

// RecordsHandler exposes weighing records.
type RecordsHandler struct {
	svc      *records.Service
	sessions *capture.Registry
	loc      *time.Location
	logger   *zap.Logger
}

// NewRecordsHandler constructs the records HTTP adapter. Date filters are
// read in loc.
func NewRecordsHandler(svc *records.Service, sessions *capture.Registry, loc *time.Location, logger *zap.Logger) *RecordsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &RecordsHandler{svc: svc, sessions: sessions, loc: loc, logger: logger}
}

type submitRequest struct {
	weighing.Entry
	CaptureSessionID string `json:"capture_session_id"`
}

// Preview computes net weight and total while the operator types. Blank or
// malformed measurements count as zero instead of failing the request.
func (h *RecordsHandler) Preview(c *gin.Context) {
	var live weighing.LiveEntry
	if err := c.ShouldBindJSON(&live); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	preview, err := h.svc.Preview(c.Request.Context(), ActorFrom(c), live.Entry())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

// Submit stores a weighing record backed by the photo of the referenced
// capture session. The session is released once the record is stored.
func (h *RecordsHandler) Submit(c *gin.Context) {
	var req submitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	actor := ActorFrom(c)
	var evidence records.Evidence
	if id := strings.TrimSpace(req.CaptureSessionID); id != "" {
		if session, err := h.sessions.Get(id, actor.ID); err == nil {
			evidence = session.Pipeline
		}
	}

	record, err := h.svc.Submit(c.Request.Context(), actor, req.Entry, evidence)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.sessions.Release(req.CaptureSessionID, actor.ID); err != nil {
		h.logger.Warn("failed to release capture session", zap.String("session_id", req.CaptureSessionID), zap.Error(err))
	}
	c.JSON(http.StatusCreated, record)
}

// List returns records filtered by ?from=&to= (inclusive dates), client_id,
// zone_id and type.
func (h *RecordsHandler) List(c *gin.Context) {
	filter, err := h.parseFilter(c)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	list, err := h.svc.List(c.Request.Context(), ActorFrom(c), filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": list, "count": len(list)})
}

// Delete removes a record from listings.
func (h *RecordsHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), ActorFrom(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Photo streams the stored scale photo.
func (h *RecordsHandler) Photo(c *gin.Context) {
	data, err := h.svc.Photo(c.Request.Context(), ActorFrom(c), c.Param("ref"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Data(http.StatusOK, "image/jpeg", data)
}

func (h *RecordsHandler) parseFilter(c *gin.Context) (models.RecordFilter, error) {
	filter := models.RecordFilter{
		ClientID:   c.Query("client_id"),
		ZoneID:     c.Query("zone_id"),
		RecordType: models.RecordType(c.Query("type")),
	}
	v := apperr.Violations{}
	if raw := c.Query("from"); raw != "" {
		day, err := time.ParseInLocation(dateLayout, raw, h.loc)
		if err != nil {
			v.Add("from", "invalid")
		}
		filter.From = day
	}
	if raw := c.Query("to"); raw != "" {
		day, err := time.ParseInLocation(dateLayout, raw, h.loc)
		if err != nil {
			v.Add("to", "invalid")
		} else {
			filter.To = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
	}
	return filter, v.Err()
}
