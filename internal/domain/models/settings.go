package models

import "time"

// Settings is the process-wide configuration singleton.
type Settings struct {
	ContainerTareWeight   float64   `bson:"container_tare_weight" json:"container_tare_weight"`
	MinimumStockThreshold float64   `bson:"minimum_stock_threshold" json:"minimum_stock_threshold"`
	UpdatedAt             time.Time `bson:"updated_at" json:"updated_at"`
}
