package models

import "time"

// RecordType distinguishes slaughterhouse weighings from processed cuts.
type RecordType string

const (
	RecordCamal   RecordType = "camal"
	RecordProceso RecordType = "proceso"
)

// Valid reports whether t is a supported record type.
func (t RecordType) Valid() bool {
	return t == RecordCamal || t == RecordProceso
}

// WeighingRecord is an immutable weighing transaction. NetWeight is always
// derived from GrossWeight, ContainerCount and the configured tare.
type WeighingRecord struct {
	ID             string     `bson:"_id,omitempty" json:"id"`
	RecordType     RecordType `bson:"record_type" json:"record_type"`
	ActorID        string     `bson:"actor_id" json:"actor_id"`
	ClientID       string     `bson:"client_id" json:"client_id"`
	OrderID        *string    `bson:"order_id,omitempty" json:"order_id,omitempty"`
	GrossWeight    float64    `bson:"gross_weight" json:"gross_weight"`
	ContainerCount int        `bson:"container_count" json:"container_count"`
	BirdCount      *int       `bson:"bird_count,omitempty" json:"bird_count,omitempty"`
	NetWeight      float64    `bson:"net_weight" json:"net_weight"`
	CutType        *string    `bson:"cut_type,omitempty" json:"cut_type,omitempty"`
	AppliedPrice   *float64   `bson:"applied_price,omitempty" json:"applied_price,omitempty"`
	PhotoRef       string     `bson:"photo_ref" json:"photo_ref"`
	Deleted        bool       `bson:"deleted" json:"-"`
	CreatedAt      time.Time  `bson:"created_at" json:"created_at"`
}

// Amount returns the billable total of a priced record, zero otherwise.
func (r WeighingRecord) Amount() float64 {
	if r.AppliedPrice == nil {
		return 0
	}
	return r.NetWeight * *r.AppliedPrice
}

// RecordFilter narrows record listings for reports.
type RecordFilter struct {
	From       time.Time
	To         time.Time
	ClientID   string
	ZoneID     string
	RecordType RecordType
	// Limit caps the newest records returned. Zero means no limit.
	Limit int
}
