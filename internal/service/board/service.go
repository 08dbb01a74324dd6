// Package board serves the dispatch order board: orders of a day with their
// live deadline status.
package board

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/avicola/internal/apperr"
	"github.com/mamadbah2/avicola/internal/auth"
	"github.com/mamadbah2/avicola/internal/deadline"
	"github.com/mamadbah2/avicola/internal/domain/models"
)

// DateLayout is the calendar date format used for order dates.
const DateLayout = "2006-01-02"

// OrderRepository persists dispatch orders.
type OrderRepository interface {
	ListOrdersByDate(ctx context.Context, date string) ([]models.Order, error)
	GetOrder(ctx context.Context, id string) (models.Order, error)
	CreateOrder(ctx context.Context, order models.Order) (models.Order, error)
	CompleteOrder(ctx context.Context, id string) (models.Order, error)
	DeleteOrder(ctx context.Context, id string) error
}

// Directory resolves client and zone names for board rows.
type Directory interface {
	ListClients(ctx context.Context) ([]models.Client, error)
	ListZones(ctx context.Context) ([]models.Zone, error)
	GetClient(ctx context.Context, id string) (models.Client, error)
}

// Entry is one board row.
type Entry struct {
	Order        models.Order    `json:"order"`
	ClientName   string          `json:"client_name"`
	ZoneName     string          `json:"zone_name"`
	ZonePriority int             `json:"zone_priority"`
	Status       deadline.Status `json:"status"`
	Label        string          `json:"label"`
}

// Board is the evaluated order list of one date.
type Board struct {
	Date        string                  `json:"date"`
	EvaluatedAt time.Time               `json:"evaluated_at"`
	Entries     []Entry                 `json:"entries"`
	Counts      map[deadline.Status]int `json:"counts"`
	Pending     int                     `json:"pending"`
	Completed   int                     `json:"completed"`
}

// Overdue returns the entries whose deadline has passed while still pending.
func (b Board) Overdue() []Entry {
	var out []Entry
	for _, e := range b.Entries {
		if e.Status == deadline.Overdue {
			out = append(out, e)
		}
	}
	return out
}

// CreateOrderRequest is the input of CreateOrder.
type CreateOrderRequest struct {
	ClientID          string `json:"client_id"`
	Date              string `json:"date"`
	DeadlineTime      string `json:"deadline_time"`
	RequestedQuantity int    `json:"requested_quantity"`
}

// Service evaluates and mutates the board.
type Service struct {
	orders    OrderRepository
	directory Directory
	loc       *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

// NewService wires the board service. Deadlines are evaluated in loc.
func NewService(orders OrderRepository, directory Directory, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		orders:    orders,
		directory: directory,
		loc:       loc,
		now:       time.Now,
		logger:    logger,
	}
}

// Today returns the current board date.
func (s *Service) Today() string {
	return s.now().In(s.loc).Format(DateLayout)
}

// Board returns the orders of date (today when empty) for actor.
func (s *Service) Board(ctx context.Context, actor models.Actor, date string) (Board, error) {
	if err := auth.Require(actor, auth.OpViewBoard); err != nil {
		return Board{}, err
	}
	return s.Snapshot(ctx, date)
}

// Snapshot evaluates the board without an actor. Used by the scheduler.
func (s *Service) Snapshot(ctx context.Context, date string) (Board, error) {
	if date == "" {
		date = s.Today()
	}
	day, err := time.ParseInLocation(DateLayout, date, s.loc)
	if err != nil {
		return Board{}, (apperr.Violations{"date": "invalid"}).Err()
	}

	orders, err := s.orders.ListOrdersByDate(ctx, date)
	if err != nil {
		return Board{}, fmt.Errorf("list orders: %w", err)
	}
	clients, err := s.directory.ListClients(ctx)
	if err != nil {
		return Board{}, fmt.Errorf("list clients: %w", err)
	}
	zones, err := s.directory.ListZones(ctx)
	if err != nil {
		return Board{}, fmt.Errorf("list zones: %w", err)
	}

	clientByID := make(map[string]models.Client, len(clients))
	for _, c := range clients {
		clientByID[c.ID] = c
	}
	zoneByID := make(map[string]models.Zone, len(zones))
	for _, z := range zones {
		zoneByID[z.ID] = z
	}

	now := s.now().In(s.loc)
	board := Board{
		Date:        date,
		EvaluatedAt: now,
		Entries:     make([]Entry, 0, len(orders)),
		Counts:      map[deadline.Status]int{deadline.OnTime: 0, deadline.DueSoon: 0, deadline.Overdue: 0},
	}

	for _, order := range orders {
		entry := Entry{Order: order, Status: deadline.OnTime}
		if client, ok := clientByID[order.ClientID]; ok {
			entry.ClientName = client.Name
			if zone, ok := zoneByID[client.ZoneID]; ok {
				entry.ZoneName = zone.Name
				entry.ZonePriority = zone.Priority
			}
		}

		clock, err := deadline.ParseClock(order.DeadlineTime)
		if err != nil {
			s.logger.Warn("order with unreadable deadline", zap.String("order_id", order.ID), zap.String("deadline_time", order.DeadlineTime))
		} else {
			entry.Status = deadline.EvaluateAt(now, clock.On(day), order.Completed())
		}
		entry.Label = entry.Status.Label()

		board.Counts[entry.Status]++
		if order.Completed() {
			board.Completed++
		} else {
			board.Pending++
		}
		board.Entries = append(board.Entries, entry)
	}

	sort.SliceStable(board.Entries, func(i, j int) bool {
		return board.Entries[i].Order.DeadlineTime < board.Entries[j].Order.DeadlineTime
	})

	return board, nil
}

// CreateOrder registers a pending order.
func (s *Service) CreateOrder(ctx context.Context, actor models.Actor, req CreateOrderRequest) (models.Order, error) {
	if err := auth.Require(actor, auth.OpManageOrders); err != nil {
		return models.Order{}, err
	}

	v := apperr.Violations{}
	clientID := strings.TrimSpace(req.ClientID)
	if clientID == "" {
		v.Add("client_id", "required")
	}
	date := strings.TrimSpace(req.Date)
	if date == "" {
		date = s.Today()
	} else if _, err := time.ParseInLocation(DateLayout, date, s.loc); err != nil {
		v.Add("date", "invalid")
	}
	clock, err := deadline.ParseClock(req.DeadlineTime)
	if err != nil {
		v.Add("deadline_time", "invalid")
	}
	if req.RequestedQuantity <= 0 {
		v.Add("requested_quantity", "must_be_positive")
	}

	if clientID != "" {
		if _, err := s.directory.GetClient(ctx, clientID); err != nil {
			if !errors.Is(err, apperr.ErrNotFound) {
				return models.Order{}, fmt.Errorf("lookup client: %w", err)
			}
			v.Add("client_id", "unknown")
		}
	}
	if err := v.Err(); err != nil {
		return models.Order{}, err
	}

	order, err := s.orders.CreateOrder(ctx, models.Order{
		ClientID:          clientID,
		Date:              date,
		DeadlineTime:      clock.String(),
		RequestedQuantity: req.RequestedQuantity,
		CreatedBy:         actor.ID,
		CreatedAt:         s.now(),
	})
	if err != nil {
		return models.Order{}, err
	}

	s.logger.Info("order created", zap.String("order_id", order.ID), zap.String("client_id", clientID), zap.String("date", date))
	return order, nil
}

// CompleteOrder moves an order from pending to completed.
func (s *Service) CompleteOrder(ctx context.Context, actor models.Actor, id string) (models.Order, error) {
	if err := auth.Require(actor, auth.OpManageOrders); err != nil {
		return models.Order{}, err
	}
	order, err := s.orders.CompleteOrder(ctx, id)
	if err != nil {
		return models.Order{}, err
	}
	s.logger.Info("order completed", zap.String("order_id", id), zap.String("actor", actor.ID))
	return order, nil
}

// DeleteOrder removes an order from the board.
func (s *Service) DeleteOrder(ctx context.Context, actor models.Actor, id string) error {
	if err := auth.Require(actor, auth.OpManageOrders); err != nil {
		return err
	}
	return s.orders.DeleteOrder(ctx, id)
}
