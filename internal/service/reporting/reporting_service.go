package reporting

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/avicola/internal/apperr"
	"github.com/mamadbah2/avicola/internal/auth"
	"github.com/mamadbah2/avicola/internal/deadline"
	"github.com/mamadbah2/avicola/internal/domain/models"
	"github.com/mamadbah2/avicola/internal/inventory"
	"github.com/mamadbah2/avicola/internal/service/board"
	"github.com/mamadbah2/avicola/internal/weighing"
)

const (
	dateLayout  = "2006-01-02"
	recentLimit = 5
)

// RecordSource lists weighing records.
type RecordSource interface {
	ListRecords(ctx context.Context, filter models.RecordFilter) ([]models.WeighingRecord, error)
}

// BoardSource evaluates the order board of a date.
type BoardSource interface {
	Snapshot(ctx context.Context, date string) (board.Board, error)
}

// StockSource reconciles the stock of a date.
type StockSource interface {
	Snapshot(ctx context.Context, date string) (inventory.Snapshot, error)
}

// ClientSource lists active clients.
type ClientSource interface {
	ListClients(ctx context.Context) ([]models.Client, error)
}

// ReportStore persists generated reports.
type ReportStore interface {
	SaveDailyReport(ctx context.Context, report models.DailyReport) error
}

// Dashboard is the overview shown to every role.
type Dashboard struct {
	Report models.DailyReport      `json:"report"`
	Stock  inventory.Snapshot      `json:"stock"`
	Orders map[deadline.Status]int `json:"orders"`
	// WeekSalesAmount sums sales from Monday through today.
	WeekSalesAmount float64                 `json:"week_sales_amount"`
	Recent          []models.WeighingRecord `json:"recent"`
	Clients         int                     `json:"clients"`
}

// Service aggregates the day's activity.
type Service struct {
	records RecordSource
	board   BoardSource
	stock   StockSource
	clients ClientSource
	store   ReportStore
	loc     *time.Location
	now     func() time.Time
	logger  *zap.Logger
}

// NewService wires a new reporting service instance. store may be nil when
// reports are not archived.
func NewService(records RecordSource, boardSrc BoardSource, stockSrc StockSource, clients ClientSource, store ReportStore, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		records: records,
		board:   boardSrc,
		stock:   stockSrc,
		clients: clients,
		store:   store,
		loc:     loc,
		now:     time.Now,
		logger:  logger,
	}
}

// Dashboard returns today's figures.
func (s *Service) Dashboard(ctx context.Context, actor models.Actor) (Dashboard, error) {
	if err := auth.Require(actor, auth.OpViewDashboard); err != nil {
		return Dashboard{}, err
	}

	now := s.now().In(s.loc)
	date := now.Format(dateLayout)
	b, err := s.board.Snapshot(ctx, date)
	if err != nil {
		return Dashboard{}, fmt.Errorf("evaluate board: %w", err)
	}
	snap, err := s.stock.Snapshot(ctx, date)
	if err != nil {
		return Dashboard{}, fmt.Errorf("reconcile stock: %w", err)
	}
	report, err := s.aggregate(ctx, date, b, snap)
	if err != nil {
		return Dashboard{}, err
	}
	dash := Dashboard{Report: report, Stock: snap, Orders: b.Counts}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
	monday := today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))
	week, err := s.records.ListRecords(ctx, models.RecordFilter{
		From: monday,
		To:   today.AddDate(0, 0, 1).Add(-time.Nanosecond),
	})
	if err != nil {
		return Dashboard{}, fmt.Errorf("load week records: %w", err)
	}
	for _, r := range week {
		dash.WeekSalesAmount += r.Amount()
	}

	recent, err := s.records.ListRecords(ctx, models.RecordFilter{Limit: recentLimit})
	if err != nil {
		return Dashboard{}, fmt.Errorf("load recent records: %w", err)
	}
	sort.SliceStable(recent, func(i, j int) bool { return recent[i].CreatedAt.After(recent[j].CreatedAt) })
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	dash.Recent = recent

	if s.clients != nil {
		clients, err := s.clients.ListClients(ctx)
		if err != nil {
			return Dashboard{}, fmt.Errorf("load clients: %w", err)
		}
		dash.Clients = len(clients)
	}
	return dash, nil
}

// BuildDailyReport aggregates records, orders and stock of date.
func (s *Service) BuildDailyReport(ctx context.Context, date string) (models.DailyReport, error) {
	if date == "" {
		date = s.now().In(s.loc).Format(dateLayout)
	}
	b, err := s.board.Snapshot(ctx, date)
	if err != nil {
		return models.DailyReport{}, fmt.Errorf("evaluate board: %w", err)
	}
	snap, err := s.stock.Snapshot(ctx, date)
	if err != nil {
		return models.DailyReport{}, fmt.Errorf("reconcile stock: %w", err)
	}
	return s.aggregate(ctx, date, b, snap)
}

// GenerateDailyReport builds, archives and formats the report of date.
func (s *Service) GenerateDailyReport(ctx context.Context, date string) (models.DailyReport, string, error) {
	report, err := s.BuildDailyReport(ctx, date)
	if err != nil {
		return models.DailyReport{}, "", err
	}
	if s.store != nil {
		if err := s.store.SaveDailyReport(ctx, report); err != nil {
			return models.DailyReport{}, "", apperr.Persistence("save daily report", err)
		}
	}
	s.logger.Info("daily report generated", zap.String("date", report.Date), zap.Int("records", report.Records))
	return report, FormatSummary(report), nil
}

func (s *Service) aggregate(ctx context.Context, date string, b board.Board, snap inventory.Snapshot) (models.DailyReport, error) {
	day, err := time.ParseInLocation(dateLayout, date, s.loc)
	if err != nil {
		return models.DailyReport{}, (apperr.Violations{"date": "invalid"}).Err()
	}

	records, err := s.records.ListRecords(ctx, models.RecordFilter{
		From: day,
		To:   day.AddDate(0, 0, 1).Add(-time.Nanosecond),
	})
	if err != nil {
		return models.DailyReport{}, fmt.Errorf("load records: %w", err)
	}

	report := models.DailyReport{
		Date:            date,
		Records:         len(records),
		OrdersCompleted: b.Completed,
		OrdersPending:   b.Pending,
		OrdersOverdue:   b.Counts[deadline.Overdue],
		StockKg:         snap.StockKg,
		LowStock:        snap.LowStock,
		CreatedAt:       s.now(),
	}
	for _, r := range records {
		switch r.RecordType {
		case models.RecordCamal:
			report.CamalNetKg += r.NetWeight
		case models.RecordProceso:
			report.ProcesoNetKg += r.NetWeight
		}
		report.SalesAmount += r.Amount()
	}
	return report, nil
}

// FormatSummary renders a report as a WhatsApp message.
func FormatSummary(r models.DailyReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Resumen del %s\n", r.Date)
	fmt.Fprintf(&b, "Pesajes: %d\n", r.Records)
	fmt.Fprintf(&b, "Camal: %.2f kg\n", weighing.Round2(r.CamalNetKg))
	fmt.Fprintf(&b, "Proceso: %.2f kg\n", weighing.Round2(r.ProcesoNetKg))
	fmt.Fprintf(&b, "Ventas: S/ %.2f\n", weighing.Round2(r.SalesAmount))
	fmt.Fprintf(&b, "Pedidos: %d completados, %d pendientes", r.OrdersCompleted, r.OrdersPending)
	if r.OrdersOverdue > 0 {
		fmt.Fprintf(&b, " (%d vencidos)", r.OrdersOverdue)
	}
	fmt.Fprintf(&b, "\nStock: %.2f kg", weighing.Round2(r.StockKg))
	if r.LowStock {
		b.WriteString(" ⚠️ bajo el mínimo")
	}
	return b.String()
}
