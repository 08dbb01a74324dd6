package models

import (
	"sort"
	"time"
)

// Zone groups clients by delivery area. Lower Priority values are dispatched
// first.
type Zone struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	Name      string    `bson:"name" json:"name" binding:"required"`
	Priority  int       `bson:"priority" json:"priority"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// SortZonesByPriority orders zones from most to least urgent without touching
// the input slice.
func SortZonesByPriority(zones []Zone) []Zone {
	sorted := make([]Zone, len(zones))
	copy(sorted, zones)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority < sorted[j].Priority
		}
		return sorted[i].Name < sorted[j].Name
	})
	return sorted
}

// Client is a buyer served by the distribution business.
type Client struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	Name           string    `bson:"name" json:"name"`
	ZoneID         string    `bson:"zone_id" json:"zone_id"`
	DefaultPrice   float64   `bson:"default_price" json:"default_price"`
	DefaultCutType string    `bson:"default_cut_type" json:"default_cut_type"`
	Deleted        bool      `bson:"deleted" json:"-"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}
