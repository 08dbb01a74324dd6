package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/avicola/internal/domain/models"
	"github.com/mamadbah2/avicola/internal/service/catalog"
)

// CatalogHandler exposes zones, clients and settings.
type CatalogHandler struct {
	svc    *catalog.Service
	logger *zap.Logger
}

// NewCatalogHandler constructs the catalog HTTP adapter.
func NewCatalogHandler(svc *catalog.Service, logger *zap.Logger) *CatalogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogHandler{svc: svc, logger: logger}
}

// Zones lists zones by priority.
func (h *CatalogHandler) Zones(c *gin.Context) {
	zones, err := h.svc.Zones(c.Request.Context(), ActorFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, zones)
}

// SaveZone creates a zone (POST) or updates /zones/:id (PUT).
func (h *CatalogHandler) SaveZone(c *gin.Context) {
	var zone models.Zone
	if err := c.ShouldBindJSON(&zone); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	zone.ID = c.Param("id")

	saved, err := h.svc.SaveZone(c.Request.Context(), ActorFrom(c), zone)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	status := http.StatusOK
	if zone.ID == "" {
		status = http.StatusCreated
	}
	c.JSON(status, saved)
}

// DeleteZone removes an unused zone.
func (h *CatalogHandler) DeleteZone(c *gin.Context) {
	if err := h.svc.DeleteZone(c.Request.Context(), ActorFrom(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Clients lists active clients.
func (h *CatalogHandler) Clients(c *gin.Context) {
	clients, err := h.svc.Clients(c.Request.Context(), ActorFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, clients)
}

// Client returns one client.
func (h *CatalogHandler) Client(c *gin.Context) {
	client, err := h.svc.Client(c.Request.Context(), ActorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, client)
}

// SaveClient creates a client (POST) or updates /clients/:id (PUT).
func (h *CatalogHandler) SaveClient(c *gin.Context) {
	var client models.Client
	if err := c.ShouldBindJSON(&client); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	client.ID = c.Param("id")

	saved, err := h.svc.SaveClient(c.Request.Context(), ActorFrom(c), client)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	status := http.StatusOK
	if client.ID == "" {
		status = http.StatusCreated
	}
	c.JSON(status, saved)
}

// DeleteClient soft-deletes a client.
func (h *CatalogHandler) DeleteClient(c *gin.Context) {
	if err := h.svc.DeleteClient(c.Request.Context(), ActorFrom(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Settings returns the settings singleton.
func (h *CatalogHandler) Settings(c *gin.Context) {
	settings, err := h.svc.Settings(c.Request.Context(), ActorFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateSettings replaces the settings singleton.
func (h *CatalogHandler) UpdateSettings(c *gin.Context) {
	var settings models.Settings
	if err := c.ShouldBindJSON(&settings); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	saved, err := h.svc.UpdateSettings(c.Request.Context(), ActorFrom(c), settings)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}
