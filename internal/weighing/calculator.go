// Package weighing holds the net weight and price arithmetic applied to
// every weighing transaction.
package weighing

import (
	"math"
	"strconv"
	"strings"

	"github.com/mamadbah2/avicola/internal/apperr"
	"github.com/mamadbah2/avicola/internal/domain/models"
)

// ComputeNet subtracts the container tare from the gross weight. The result
// never drops below zero so a provisional entry always reads sanely.
func ComputeNet(grossWeight float64, containerCount int, tareWeight float64) float64 {
	net := grossWeight - float64(containerCount)*tareWeight
	if net < 0 {
		return 0
	}
	return net
}

// ComputeTotal prices a net weight. No clamping or rounding is applied.
func ComputeTotal(netWeight, pricePerKg float64) float64 {
	return netWeight * pricePerKg
}

// ParseMeasure reads a live form value. Empty, unparseable, non-finite or
// negative input is treated as zero.
func ParseMeasure(raw string) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0
	}
	return value
}

// ParseCount is ParseMeasure for whole quantities such as container counts.
func ParseCount(raw string) int {
	value := ParseMeasure(raw)
	if value > math.MaxInt32 {
		return 0
	}
	return int(value)
}

// Round2 rounds for presentation only.
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}

// Entry is the operator input for a weighing record.
type Entry struct {
	RecordType     models.RecordType `json:"record_type"`
	ClientID       string            `json:"client_id"`
	OrderID        string            `json:"order_id"`
	GrossWeight    float64           `json:"gross_weight"`
	ContainerCount int               `json:"container_count"`
	BirdCount      *int              `json:"bird_count"`
	CutType        string            `json:"cut_type"`
	PricePerKg     *float64          `json:"price_per_kg"`
}

// Quote is the derived view of an entry under a given tare.
type Quote struct {
	NetWeight float64 `json:"net_weight"`
	Total     float64 `json:"total"`
}

// Quote computes the net weight and, for priced entries, the total.
func (e Entry) Quote(tareWeight float64) Quote {
	net := ComputeNet(e.GrossWeight, e.ContainerCount, tareWeight)
	q := Quote{NetWeight: net}
	if e.PricePerKg != nil {
		q.Total = ComputeTotal(net, *e.PricePerKg)
	}
	return q
}

// Validate applies the submission rules. Unlike the live computations it
// rejects incomplete input, field by field.
func (e Entry) Validate() error {
	v := apperr.Violations{}

	if !e.RecordType.Valid() {
		v.Add("record_type", "invalid")
	}
	if strings.TrimSpace(e.ClientID) == "" {
		v.Add("client_id", "required")
	}
	if e.GrossWeight <= 0 || math.IsNaN(e.GrossWeight) || math.IsInf(e.GrossWeight, 0) {
		v.Add("gross_weight", "must_be_positive")
	}
	if e.ContainerCount < 0 {
		v.Add("container_count", "must_not_be_negative")
	}
	if e.BirdCount != nil && *e.BirdCount < 0 {
		v.Add("bird_count", "must_not_be_negative")
	}
	if e.RecordType == models.RecordProceso {
		if e.PricePerKg == nil || *e.PricePerKg <= 0 {
			v.Add("price_per_kg", "must_be_positive")
		}
	}

	return v.Err()
}

// BuildRecord materializes the persisted record for a validated entry. The
// net weight is always recomputed from the entry and the tare.
func (e Entry) BuildRecord(actor models.Actor, tareWeight float64, photoRef string) models.WeighingRecord {
	record := models.WeighingRecord{
		RecordType:     e.RecordType,
		ActorID:        actor.ID,
		ClientID:       strings.TrimSpace(e.ClientID),
		GrossWeight:    e.GrossWeight,
		ContainerCount: e.ContainerCount,
		NetWeight:      ComputeNet(e.GrossWeight, e.ContainerCount, tareWeight),
		PhotoRef:       photoRef,
	}

	if id := strings.TrimSpace(e.OrderID); id != "" {
		record.OrderID = &id
	}
	if e.BirdCount != nil {
		birds := *e.BirdCount
		record.BirdCount = &birds
	}
	if cut := strings.TrimSpace(e.CutType); cut != "" {
		record.CutType = &cut
	}
	if e.PricePerKg != nil {
		price := *e.PricePerKg
		record.AppliedPrice = &price
	}

	return record
}
