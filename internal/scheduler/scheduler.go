package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/avicola/internal/config"
	"github.com/mamadbah2/avicola/internal/domain/models"
	"github.com/mamadbah2/avicola/internal/inventory"
	"github.com/mamadbah2/avicola/internal/service/board"
)

const sweepSchedule = "@every 1m"

// BoardSource evaluates today's board.
type BoardSource interface {
	Snapshot(ctx context.Context, date string) (board.Board, error)
}

// StockSource reconciles today's stock.
type StockSource interface {
	Snapshot(ctx context.Context, date string) (inventory.Snapshot, error)
}

// ReportSource generates the daily summary.
type ReportSource interface {
	GenerateDailyReport(ctx context.Context, date string) (models.DailyReport, string, error)
}

// Notifier delivers alerts.
type Notifier interface {
	NotifyOverdue(ctx context.Context, b board.Board) (int, error)
	NotifyLowStock(ctx context.Context, snap inventory.Snapshot) (bool, error)
	SendSummary(ctx context.Context, text string) error
}

// Sweeper releases idle capture sessions.
type Sweeper interface {
	Sweep() int
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	board    BoardSource
	stock    StockSource
	reports  ReportSource
	notifier Notifier
	sweeper  Sweeper
	cfg      config.Config
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance. Jobs run in the board
// timezone.
func NewScheduler(cfg config.Config, boardSrc BoardSource, stockSrc StockSource, reports ReportSource, notifier Notifier, sweeper Sweeper, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := cfg.Board.Location()
	if err != nil {
		loc = time.Local
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		board:    boardSrc,
		stock:    stockSrc,
		reports:  reports,
		notifier: notifier,
		sweeper:  sweeper,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler",
		zap.String("board_poll", s.cfg.Board.PollSchedule),
		zap.String("daily_report", s.cfg.Reporting.CronSchedule))

	jobs := []struct {
		name string
		spec string
		fn   func()
	}{
		{"board poll", s.cfg.Board.PollSchedule, s.pollBoard},
		{"daily report", s.cfg.Reporting.CronSchedule, s.sendDailyReport},
		{"capture sweep", sweepSchedule, s.sweepSessions},
	}
	for _, job := range jobs {
		if _, err := s.cron.AddFunc(job.spec, job.fn); err != nil {
			return fmt.Errorf("schedule %s %q: %w", job.name, job.spec, err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// pollBoard re-evaluates today's deadlines and stock and raises alerts on
// new overdue orders and low stock.
func (s *Scheduler) pollBoard() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	b, err := s.board.Snapshot(ctx, "")
	if err != nil {
		s.logger.Error("failed to evaluate board", zap.Error(err))
		return
	}
	s.logger.Debug("board evaluated",
		zap.String("date", b.Date),
		zap.Int("pending", b.Pending),
		zap.Int("overdue", len(b.Overdue())))

	if sent, err := s.notifier.NotifyOverdue(ctx, b); err != nil {
		s.logger.Error("failed to send overdue alerts", zap.Error(err))
	} else if sent > 0 {
		s.logger.Info("overdue alerts sent", zap.Int("count", sent))
	}

	snap, err := s.stock.Snapshot(ctx, "")
	if err != nil {
		s.logger.Error("failed to reconcile stock", zap.Error(err))
		return
	}
	if sent, err := s.notifier.NotifyLowStock(ctx, snap); err != nil {
		s.logger.Error("failed to send low stock alert", zap.Error(err))
	} else if sent {
		s.logger.Info("low stock alert sent", zap.Float64("stock_kg", snap.StockKg))
	}
}

func (s *Scheduler) sendDailyReport() {
	s.logger.Info("generating daily report")
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	_, summary, err := s.reports.GenerateDailyReport(ctx, "")
	if err != nil {
		s.logger.Error("failed to generate daily report", zap.Error(err))
		return
	}

	if err := s.notifier.SendSummary(ctx, summary); err != nil {
		s.logger.Error("failed to send daily report", zap.Error(err))
	} else {
		s.logger.Info("daily report sent successfully")
	}
}

func (s *Scheduler) sweepSessions() {
	if s.sweeper == nil {
		return
	}
	if n := s.sweeper.Sweep(); n > 0 {
		s.logger.Debug("capture sessions swept", zap.Int("count", n))
	}
}
