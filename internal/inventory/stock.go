// Package inventory reconciles the live bird stock from the day's opening
// count and the movement ledger.
package inventory

import (
	"fmt"
	"strings"

	"github.com/mamadbah2/avicola/internal/apperr"
	"github.com/mamadbah2/avicola/internal/deadline"
	"github.com/mamadbah2/avicola/internal/domain/models"
)

// MovementKg is the signed weight contribution of a movement.
func MovementKg(m models.InventoryMovement) float64 {
	kg := float64(m.BirdCount) * m.AverageWeightPerBird
	switch m.Type {
	case models.MovementEntrance:
		return kg
	case models.MovementExit:
		return -kg
	case models.MovementAdjustment:
		// Adjustments carry their own sign through BirdCount.
		return kg
	default:
		return 0
	}
}

// Snapshot is the reconciled stock at a point in time.
type Snapshot struct {
	Date        string  `json:"date"`
	OpeningKg   float64 `json:"opening_kg"`
	EntrancesKg float64 `json:"entrances_kg"`
	ExitsKg     float64 `json:"exits_kg"`
	AdjustedKg  float64 `json:"adjusted_kg"`
	StockKg     float64 `json:"stock_kg"`
	Birds       int     `json:"birds"`
	MinimumKg   float64 `json:"minimum_kg"`
	LowStock    bool    `json:"low_stock"`
}

// Reconcile folds movements over the opening. A missing opening counts as
// zero. Movements are not modified.
func Reconcile(opening *models.DailyOpening, movements []models.InventoryMovement, minimumKg float64) Snapshot {
	var snap Snapshot
	if opening != nil {
		snap.Date = opening.Date
		snap.OpeningKg = opening.InitialWeightKg
		snap.Birds = opening.InitialBirdCount
	}

	for _, m := range movements {
		switch m.Type {
		case models.MovementEntrance:
			snap.EntrancesKg += MovementKg(m)
			snap.Birds += m.BirdCount
		case models.MovementExit:
			snap.ExitsKg -= MovementKg(m)
			snap.Birds -= m.BirdCount
		case models.MovementAdjustment:
			snap.AdjustedKg += MovementKg(m)
			snap.Birds += m.BirdCount
		}
	}

	snap.StockKg = snap.OpeningKg + snap.EntrancesKg - snap.ExitsKg + snap.AdjustedKg
	snap.MinimumKg = minimumKg
	snap.LowStock = deadline.LowStock(snap.StockKg, minimumKg)
	return snap
}

// ValidateMovement checks a ledger entry before it is appended.
func ValidateMovement(m models.InventoryMovement) error {
	v := apperr.Violations{}
	if !m.Type.Valid() {
		v.Add("type", "invalid")
	}
	if strings.TrimSpace(m.Date) == "" {
		v.Add("date", "required")
	}
	if m.AverageWeightPerBird <= 0 {
		v.Add("average_weight_per_bird", "must_be_positive")
	}
	switch {
	case m.Type == models.MovementAdjustment && m.BirdCount == 0:
		v.Add("bird_count", "must_not_be_zero")
	case m.Type != models.MovementAdjustment && m.BirdCount <= 0:
		v.Add("bird_count", "must_be_positive")
	}
	return v.Err()
}

// ValidateOpening checks a daily opening before it is created.
func ValidateOpening(o models.DailyOpening) error {
	v := apperr.Violations{}
	if strings.TrimSpace(o.Date) == "" {
		v.Add("date", "required")
	}
	if o.InitialBirdCount < 0 {
		v.Add("initial_bird_count", "must_not_be_negative")
	}
	if o.InitialWeightKg < 0 {
		v.Add("initial_weight_kg", "must_not_be_negative")
	}
	return v.Err()
}

// String renders a compact summary for alerts.
func (s Snapshot) String() string {
	return fmt.Sprintf("stock %.2f kg (min %.2f kg, %d birds)", s.StockKg, s.MinimumKg, s.Birds)
}
