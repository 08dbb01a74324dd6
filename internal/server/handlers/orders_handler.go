package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/avicola/internal/service/board"
)

// OrdersHandler exposes the dispatch board.
type OrdersHandler struct {
	svc    *board.Service
	logger *zap.Logger
}

// NewOrdersHandler constructs the board HTTP adapter.
func NewOrdersHandler(svc *board.Service, logger *zap.Logger) *OrdersHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrdersHandler{svc: svc, logger: logger}
}

// Board lists the orders of ?date= (today by default) with their status.
func (h *OrdersHandler) Board(c *gin.Context) {
	b, err := h.svc.Board(c.Request.Context(), ActorFrom(c), c.Query("date"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// Create registers a pending order.
func (h *OrdersHandler) Create(c *gin.Context) {
	var req board.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}
	order, err := h.svc.CreateOrder(c.Request.Context(), ActorFrom(c), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// Complete marks an order as completed.
func (h *OrdersHandler) Complete(c *gin.Context) {
	order, err := h.svc.CompleteOrder(c.Request.Context(), ActorFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// Delete removes an order from the board.
func (h *OrdersHandler) Delete(c *gin.Context) {
	if err := h.svc.DeleteOrder(c.Request.Context(), ActorFrom(c), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
