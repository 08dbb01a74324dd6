package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mamadbah2/avicola/internal/config"
	"github.com/mamadbah2/avicola/internal/deadline"
	"github.com/mamadbah2/avicola/internal/domain/models"
	"github.com/mamadbah2/avicola/internal/inventory"
	"github.com/mamadbah2/avicola/internal/service/board"
)

type fakeSources struct {
	boardErr  error
	overdue   []board.Board
	lowStock  []inventory.Snapshot
	summaries []string
	swept     int
}

func (f *fakeSources) Snapshot(context.Context, string) (board.Board, error) {
	if f.boardErr != nil {
		return board.Board{}, f.boardErr
	}
	return board.Board{Date: "2026-10-18", Entries: []board.Entry{{Order: models.Order{ID: "o1"}, Status: deadline.Overdue}}}, nil
}

type fakeStock struct{}

func (fakeStock) Snapshot(context.Context, string) (inventory.Snapshot, error) {
	return inventory.Snapshot{Date: "2026-10-18", StockKg: 10, MinimumKg: 1000, LowStock: true}, nil
}

func (f *fakeSources) GenerateDailyReport(context.Context, string) (models.DailyReport, string, error) {
	return models.DailyReport{Date: "2026-10-18"}, "resumen 2026-10-18", nil
}

func (f *fakeSources) NotifyOverdue(_ context.Context, b board.Board) (int, error) {
	f.overdue = append(f.overdue, b)
	return len(b.Overdue()), nil
}

func (f *fakeSources) NotifyLowStock(_ context.Context, snap inventory.Snapshot) (bool, error) {
	f.lowStock = append(f.lowStock, snap)
	return snap.LowStock, nil
}

func (f *fakeSources) SendSummary(_ context.Context, text string) error {
	f.summaries = append(f.summaries, text)
	return nil
}

func (f *fakeSources) Sweep() int {
	f.swept++
	return 0
}

func testConfig() config.Config {
	return config.Config{
		Board:     config.BoardConfig{PollSchedule: "@every 60s", Timezone: "America/Lima"},
		Reporting: config.ReportingConfig{CronSchedule: "0 20 * * *"},
	}
}

func TestPollBoardRaisesAlerts(t *testing.T) {
	f := &fakeSources{}
	s := NewScheduler(testConfig(), f, fakeStock{}, f, f, f, nil)

	s.pollBoard()

	if len(f.overdue) != 1 || len(f.overdue[0].Overdue()) != 1 {
		t.Errorf("overdue notifications = %+v", f.overdue)
	}
	if len(f.lowStock) != 1 || !f.lowStock[0].LowStock {
		t.Errorf("low stock notifications = %+v", f.lowStock)
	}
}

func TestPollBoardStopsOnBoardError(t *testing.T) {
	f := &fakeSources{boardErr: errors.New("mongo down")}
	s := NewScheduler(testConfig(), f, fakeStock{}, f, f, f, nil)

	s.pollBoard()

	if len(f.overdue) != 0 || len(f.lowStock) != 0 {
		t.Error("alerts raised without a board")
	}
}

func TestDailyReportAndSweep(t *testing.T) {
	f := &fakeSources{}
	s := NewScheduler(testConfig(), f, fakeStock{}, f, f, f, nil)

	s.sendDailyReport()
	s.sweepSessions()

	if len(f.summaries) != 1 || !strings.Contains(f.summaries[0], "2026-10-18") {
		t.Errorf("summaries = %v", f.summaries)
	}
	if f.swept != 1 {
		t.Errorf("swept = %d", f.swept)
	}
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.Board.PollSchedule = "every now and then"
	s := NewScheduler(cfg, &fakeSources{}, fakeStock{}, &fakeSources{}, &fakeSources{}, nil, nil)

	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatal("expected schedule error")
	}
}

func TestStartAndStop(t *testing.T) {
	f := &fakeSources{}
	s := NewScheduler(testConfig(), f, fakeStock{}, f, f, f, nil)
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	s.Stop()
}
