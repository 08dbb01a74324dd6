package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/avicola/internal/domain/models"
	"github.com/mamadbah2/avicola/internal/service/alerts"
	"github.com/mamadbah2/avicola/internal/service/reporting"
)

// DashboardHandler exposes the overview, on-demand reports and manual
// notifications.
type DashboardHandler struct {
	reports *reporting.Service
	alerts  alerts.MessagingService
	logger  *zap.Logger
}

// NewDashboardHandler constructs the dashboard HTTP adapter.
func NewDashboardHandler(reports *reporting.Service, alertSvc alerts.MessagingService, logger *zap.Logger) *DashboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardHandler{reports: reports, alerts: alertSvc, logger: logger}
}

// Dashboard returns today's figures.
func (h *DashboardHandler) Dashboard(c *gin.Context) {
	dash, err := h.reports.Dashboard(c.Request.Context(), ActorFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, dash)
}

// DailyReport generates and archives the report of ?date=. With ?send=true
// the summary is also pushed through WhatsApp.
func (h *DashboardHandler) DailyReport(c *gin.Context) {
	report, summary, err := h.reports.GenerateDailyReport(c.Request.Context(), c.Query("date"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	sent := false
	if c.Query("send") == "true" && h.alerts.Enabled() {
		if err := h.alerts.SendSummary(c.Request.Context(), summary); err != nil {
			h.logger.Error("failed sending daily summary", zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "unable to send summary", "report": report})
			return
		}
		sent = true
	}
	c.JSON(http.StatusOK, gin.H{"report": report, "summary": summary, "sent": sent})
}

// SendMessage allows sending manual notifications to operators.
func (h *DashboardHandler) SendMessage(c *gin.Context) {
	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, h.logger, err)
		return
	}

	if err := h.alerts.SendOutbound(c.Request.Context(), req); err != nil {
		if errors.Is(err, alerts.ErrDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "notifications disabled"})
			return
		}
		h.logger.Error("failed sending outbound", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to send message"})
		return
	}

	c.Status(http.StatusAccepted)
}
