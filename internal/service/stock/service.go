// Package stock records the daily opening and the inventory ledger and
// reconciles them into the current stock.
package stock

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/avicola/internal/apperr"
	"github.com/mamadbah2/avicola/internal/auth"
	"github.com/mamadbah2/avicola/internal/domain/models"
	"github.com/mamadbah2/avicola/internal/inventory"
)

const dateLayout = "2006-01-02"

// Repository persists openings and movements.
type Repository interface {
	GetOpening(ctx context.Context, date string) (*models.DailyOpening, error)
	CreateOpening(ctx context.Context, opening models.DailyOpening) (models.DailyOpening, error)
	AppendMovement(ctx context.Context, movement models.InventoryMovement) (models.InventoryMovement, error)
	ListMovements(ctx context.Context, date string) ([]models.InventoryMovement, error)
}

// SettingsReader exposes the stock threshold.
type SettingsReader interface {
	GetSettings(ctx context.Context) (models.Settings, error)
}

// Service reconciles inventory.
type Service struct {
	repo     Repository
	settings SettingsReader
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewService wires the stock service. Dates default to today in loc.
func NewService(repo Repository, settings SettingsReader, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, settings: settings, loc: loc, now: time.Now, logger: logger}
}

func (s *Service) resolveDate(date string) (string, error) {
	if date == "" {
		return s.now().In(s.loc).Format(dateLayout), nil
	}
	if _, err := time.ParseInLocation(dateLayout, date, s.loc); err != nil {
		return "", (apperr.Violations{"date": "invalid"}).Err()
	}
	return date, nil
}

// OpenDay stores the opening count of a date. A date can only be opened once.
func (s *Service) OpenDay(ctx context.Context, actor models.Actor, opening models.DailyOpening) (models.DailyOpening, error) {
	if err := auth.Require(actor, auth.OpEditInventory); err != nil {
		return models.DailyOpening{}, err
	}
	date, err := s.resolveDate(opening.Date)
	if err != nil {
		return models.DailyOpening{}, err
	}
	opening.Date = date
	if err := inventory.ValidateOpening(opening); err != nil {
		return models.DailyOpening{}, err
	}

	saved, err := s.repo.CreateOpening(ctx, opening)
	if err != nil {
		return models.DailyOpening{}, err
	}
	s.logger.Info("day opened", zap.String("date", date), zap.Float64("initial_weight_kg", saved.InitialWeightKg))
	return saved, nil
}

// Record appends a movement to the ledger.
func (s *Service) Record(ctx context.Context, actor models.Actor, movement models.InventoryMovement) (models.InventoryMovement, error) {
	if err := auth.Require(actor, auth.OpEditInventory); err != nil {
		return models.InventoryMovement{}, err
	}
	date, err := s.resolveDate(movement.Date)
	if err != nil {
		return models.InventoryMovement{}, err
	}
	movement.Date = date
	if err := inventory.ValidateMovement(movement); err != nil {
		return models.InventoryMovement{}, err
	}
	return s.repo.AppendMovement(ctx, movement)
}

// Movements lists the ledger of a date.
func (s *Service) Movements(ctx context.Context, actor models.Actor, date string) ([]models.InventoryMovement, error) {
	if err := auth.Require(actor, auth.OpViewInventory); err != nil {
		return nil, err
	}
	date, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}
	return s.repo.ListMovements(ctx, date)
}

// Current returns the reconciled stock of a date for actor.
func (s *Service) Current(ctx context.Context, actor models.Actor, date string) (inventory.Snapshot, error) {
	if err := auth.Require(actor, auth.OpViewInventory); err != nil {
		return inventory.Snapshot{}, err
	}
	return s.Snapshot(ctx, date)
}

// Snapshot reconciles the stock of a date (today when empty). The low-stock
// flag is recomputed from the current threshold on every call.
func (s *Service) Snapshot(ctx context.Context, date string) (inventory.Snapshot, error) {
	date, err := s.resolveDate(date)
	if err != nil {
		return inventory.Snapshot{}, err
	}

	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return inventory.Snapshot{}, fmt.Errorf("load settings: %w", err)
	}
	opening, err := s.repo.GetOpening(ctx, date)
	if err != nil {
		return inventory.Snapshot{}, fmt.Errorf("load opening: %w", err)
	}
	movements, err := s.repo.ListMovements(ctx, date)
	if err != nil {
		return inventory.Snapshot{}, fmt.Errorf("load movements: %w", err)
	}

	snap := inventory.Reconcile(opening, movements, settings.MinimumStockThreshold)
	snap.Date = date
	return snap, nil
}
