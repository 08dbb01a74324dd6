package models

import "time"

// MovementType classifies an inventory ledger entry.
type MovementType string

const (
	MovementEntrance   MovementType = "entrance"
	MovementExit       MovementType = "exit"
	MovementAdjustment MovementType = "adjustment"
)

// Valid reports whether t is a supported movement type.
func (t MovementType) Valid() bool {
	switch t {
	case MovementEntrance, MovementExit, MovementAdjustment:
		return true
	default:
		return false
	}
}

// InventoryMovement is an append-only ledger entry. Adjustment bird counts may
// be negative.
type InventoryMovement struct {
	ID                   string       `bson:"_id,omitempty" json:"id"`
	Date                 string       `bson:"date" json:"date"`
	Type                 MovementType `bson:"type" json:"type"`
	BirdCount            int          `bson:"bird_count" json:"bird_count"`
	AverageWeightPerBird float64      `bson:"average_weight_per_bird" json:"average_weight_per_bird"`
	CreatedAt            time.Time    `bson:"created_at" json:"created_at"`
}

// DailyOpening is the stock count taken when the day starts. At most one per
// date.
type DailyOpening struct {
	Date             string    `bson:"_id" json:"date"`
	InitialBirdCount int       `bson:"initial_bird_count" json:"initial_bird_count"`
	InitialWeightKg  float64   `bson:"initial_weight_kg" json:"initial_weight_kg"`
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`
}
