package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/avicola/internal/auth"
	"github.com/mamadbah2/avicola/internal/server/handlers"
)

// Handlers groups the HTTP adapters mounted by New.
type Handlers struct {
	Orders    *handlers.OrdersHandler
	Records   *handlers.RecordsHandler
	Capture   *handlers.CaptureHandler
	Catalog   *handlers.CatalogHandler
	Inventory *handlers.InventoryHandler
	Dashboard *handlers.DashboardHandler
	// Ready reports whether storage is reachable. Optional.
	Ready func(ctx context.Context) error
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", func(c *gin.Context) {
		if h.Ready != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := h.Ready(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	api := r.Group("/api", handlers.Identify())
	req := handlers.Require

	orders := api.Group("/orders")
	orders.GET("", req(auth.OpViewBoard), h.Orders.Board)
	orders.POST("", req(auth.OpManageOrders), h.Orders.Create)
	orders.POST("/:id/complete", req(auth.OpManageOrders), h.Orders.Complete)
	orders.DELETE("/:id", req(auth.OpManageOrders), h.Orders.Delete)

	records := api.Group("/records")
	records.GET("", req(auth.OpViewRecords), h.Records.List)
	records.POST("", req(auth.OpWeigh), h.Records.Submit)
	records.POST("/preview", req(auth.OpWeigh), h.Records.Preview)
	records.DELETE("/:id", req(auth.OpDeleteRecords), h.Records.Delete)
	api.GET("/photos/:ref", req(auth.OpViewRecords), h.Records.Photo)

	capture := api.Group("/capture/sessions", req(auth.OpCapture))
	capture.POST("", h.Capture.Open)
	capture.GET("/:id", h.Capture.Show)
	capture.POST("/:id/request", h.Capture.Request)
	capture.PUT("/:id/frame", h.Capture.Frame)
	capture.POST("/:id/shot", h.Capture.Shot)
	capture.GET("/:id/preview", h.Capture.Preview)
	capture.POST("/:id/cancel", h.Capture.Cancel)
	capture.POST("/:id/retake", h.Capture.Retake)
	capture.DELETE("/:id", h.Capture.Release)

	api.GET("/zones", req(auth.OpViewCatalog), h.Catalog.Zones)
	api.POST("/zones", req(auth.OpManageCatalog), h.Catalog.SaveZone)
	api.PUT("/zones/:id", req(auth.OpManageCatalog), h.Catalog.SaveZone)
	api.DELETE("/zones/:id", req(auth.OpManageCatalog), h.Catalog.DeleteZone)

	api.GET("/clients", req(auth.OpViewCatalog), h.Catalog.Clients)
	api.GET("/clients/:id", req(auth.OpViewCatalog), h.Catalog.Client)
	api.POST("/clients", req(auth.OpManageCatalog), h.Catalog.SaveClient)
	api.PUT("/clients/:id", req(auth.OpManageCatalog), h.Catalog.SaveClient)
	api.DELETE("/clients/:id", req(auth.OpManageCatalog), h.Catalog.DeleteClient)

	api.GET("/settings", req(auth.OpViewSettings), h.Catalog.Settings)
	api.PUT("/settings", req(auth.OpEditSettings), h.Catalog.UpdateSettings)

	inventory := api.Group("/inventory")
	inventory.GET("/stock", req(auth.OpViewInventory), h.Inventory.Stock)
	inventory.GET("/movements", req(auth.OpViewInventory), h.Inventory.Movements)
	inventory.POST("/movements", req(auth.OpEditInventory), h.Inventory.AddMovement)
	inventory.POST("/openings", req(auth.OpEditInventory), h.Inventory.Open)

	api.GET("/dashboard", req(auth.OpViewDashboard), h.Dashboard.Dashboard)
	api.POST("/reports/daily", req(auth.OpRunReports), h.Dashboard.DailyReport)
	api.POST("/send-message", req(auth.OpNotify), h.Dashboard.SendMessage)

	if logger != nil {
		logger.Info("router initialized", zap.Int("routes", len(r.Routes())))
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		actor := handlers.ActorFrom(c)
		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("actor", actor.ID),
			zap.String("role", string(actor.Role)))
	}
}
