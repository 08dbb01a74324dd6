package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/avicola/internal/domain/models"
	"github.com/mamadbah2/avicola/internal/service/stock"
)

// InventoryHandler exposes the daily opening, the ledger and the stock.
type InventoryHandler struct {
	svc    *stock.Service
	logger *zap.Logger
}

// NewInventoryHandler constructs the inventory HTTP adapter.
func NewInventoryHandler(svc *stock.Service, logger *zap.Logger) *InventoryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandler{svc: svc, logger: logger}
}

// Open records the opening count of a day.
func (h *InventoryHandler) Open(c *gin.Context) {
	var opening models.DailyOpening
	if err := c.ShouldBindJSON(&opening); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	saved, err := h.svc.OpenDay(c.Request.Context(), ActorFrom(c), opening)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// AddMovement appends a ledger entry.
func (h *InventoryHandler) AddMovement(c *gin.Context) {
	var movement models.InventoryMovement
	if err := c.ShouldBindJSON(&movement); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	saved, err := h.svc.Record(c.Request.Context(), ActorFrom(c), movement)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, saved)
}

// Movements lists the ledger of ?date=.
func (h *InventoryHandler) Movements(c *gin.Context) {
	movements, err := h.svc.Movements(c.Request.Context(), ActorFrom(c), c.Query("date"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, movements)
}

// Stock returns the reconciled stock of ?date=.
func (h *InventoryHandler) Stock(c *gin.Context) {
	snap, err := h.svc.Current(c.Request.Context(), ActorFrom(c), c.Query("date"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}
