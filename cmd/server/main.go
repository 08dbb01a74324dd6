package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/avicola/internal/capture"
	"github.com/mamadbah2/avicola/internal/config"
	"github.com/mamadbah2/avicola/internal/domain/models"
	"github.com/mamadbah2/avicola/internal/repository/mongodb"
	"github.com/mamadbah2/avicola/internal/repository/sheets"
	"github.com/mamadbah2/avicola/internal/scheduler"
	"github.com/mamadbah2/avicola/internal/server/handlers"
	"github.com/mamadbah2/avicola/internal/server/router"
	"github.com/mamadbah2/avicola/internal/service/alerts"
	boardsvc "github.com/mamadbah2/avicola/internal/service/board"
	catalogsvc "github.com/mamadbah2/avicola/internal/service/catalog"
	recordsvc "github.com/mamadbah2/avicola/internal/service/records"
	reportingsvc "github.com/mamadbah2/avicola/internal/service/reporting"
	stocksvc "github.com/mamadbah2/avicola/internal/service/stock"
	whatsappclient "github.com/mamadbah2/avicola/pkg/clients/whatsapp"
	"github.com/mamadbah2/avicola/pkg/logger"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Log.Level))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	loc, err := cfg.Board.Location()
	if err != nil {
		baseLogger.Fatal("invalid board timezone", zap.String("timezone", cfg.Board.Timezone), zap.Error(err))
	}

	mongoRepo, err := mongodb.NewMongoDBRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	if err := mongoRepo.EnsureSettings(context.Background(), models.Settings{
		ContainerTareWeight:   cfg.Defaults.ContainerTareKg,
		MinimumStockThreshold: cfg.Defaults.MinimumStockKg,
	}); err != nil {
		baseLogger.Fatal("failed to seed settings", zap.Error(err))
	}

	// The journal stays a nil interface when sheets are disabled.
	var journal recordsvc.Journal
	if cfg.Sheets.Enabled() {
		sheetsClient, err := sheets.NewClient(context.Background(), cfg.Sheets, logger.Named(baseLogger, "repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets client", zap.Error(err))
		}
		j := sheets.NewJournal(sheetsClient, loc)
		if err := j.EnsureHeader(context.Background()); err != nil {
			baseLogger.Warn("sheets journal header check failed", zap.Error(err))
		} else if rows, err := j.CountRows(context.Background()); err == nil {
			baseLogger.Info("sheets journal enabled", zap.Int("rows", rows))
		}
		journal = j
	} else {
		baseLogger.Info("sheets journal disabled")
	}

	var messenger whatsappclient.Client
	if cfg.WhatsApp.Enabled() {
		messenger = whatsappclient.NewClient(cfg.WhatsApp)
		baseLogger.Info("whatsapp alerts enabled")
	} else {
		baseLogger.Warn("whatsapp credentials missing, alerts disabled")
	}

	registry := capture.NewRegistry(cfg.Capture.SessionTTL, cfg.Capture.JPEGQuality, logger.Named(baseLogger, "capture"))
	defer registry.CloseAll()

	boardService := boardsvc.NewService(mongoRepo, mongoRepo, loc, logger.Named(baseLogger, "svc.board"))
	stockService := stocksvc.NewService(mongoRepo, mongoRepo, loc, logger.Named(baseLogger, "svc.stock"))
	recordService := recordsvc.NewService(mongoRepo, mongoRepo, mongoRepo, mongoRepo, journal, logger.Named(baseLogger, "svc.records"))
	catalogService := catalogsvc.NewService(mongoRepo, logger.Named(baseLogger, "svc.catalog"))
	reportingService := reportingsvc.NewService(mongoRepo, boardService, stockService, mongoRepo, mongoRepo, loc, logger.Named(baseLogger, "svc.reporting"))
	alertService := alerts.NewMetaWhatsAppService(cfg.WhatsApp, messenger, logger.Named(baseLogger, "svc.alerts"))

	handlerLogger := logger.Named(baseLogger, "handlers")
	engine := router.New(router.Handlers{
		Orders:    handlers.NewOrdersHandler(boardService, handlerLogger),
		Records:   handlers.NewRecordsHandler(recordService, registry, loc, handlerLogger),
		Capture:   handlers.NewCaptureHandler(registry, handlerLogger),
		Catalog:   handlers.NewCatalogHandler(catalogService, handlerLogger),
		Inventory: handlers.NewInventoryHandler(stockService, handlerLogger),
		Dashboard: handlers.NewDashboardHandler(reportingService, alertService, handlerLogger),
		Ready:     mongoRepo.Ping,
	}, logger.Named(baseLogger, "router"))

	sched := scheduler.NewScheduler(*cfg, boardService, stockService, reportingService, alertService, registry, logger.Named(baseLogger, "scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("timezone", loc.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
