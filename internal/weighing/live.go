package weighing

import (
	"encoding/json"
	"strings"

	"github.com/mamadbah2/avicola/internal/domain/models"
)

// RawValue is a form field as typed by the operator. It accepts JSON
// numbers, strings and null, and never fails to decode.
type RawValue string

// UnmarshalJSON implements json.Unmarshaler.
func (v *RawValue) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = RawValue(s)
		return nil
	}
	if string(data) == "null" {
		*v = ""
		return nil
	}
	*v = RawValue(data)
	return nil
}

// Set reports whether the operator typed anything.
func (v RawValue) Set() bool {
	return strings.TrimSpace(string(v)) != ""
}

// LiveEntry is an entry still being typed. Measurements that are absent or
// unparseable count as zero.
type LiveEntry struct {
	RecordType     models.RecordType `json:"record_type"`
	ClientID       string            `json:"client_id"`
	OrderID        string            `json:"order_id"`
	GrossWeight    RawValue          `json:"gross_weight"`
	ContainerCount RawValue          `json:"container_count"`
	BirdCount      RawValue          `json:"bird_count"`
	CutType        string            `json:"cut_type"`
	PricePerKg     RawValue          `json:"price_per_kg"`
}

// Entry normalizes the typed values. A blank price or bird count stays
// unset so client defaults can still apply.
func (l LiveEntry) Entry() Entry {
	e := Entry{
		RecordType:     l.RecordType,
		ClientID:       l.ClientID,
		OrderID:        l.OrderID,
		GrossWeight:    ParseMeasure(string(l.GrossWeight)),
		ContainerCount: ParseCount(string(l.ContainerCount)),
		CutType:        l.CutType,
	}
	if l.BirdCount.Set() {
		birds := ParseCount(string(l.BirdCount))
		e.BirdCount = &birds
	}
	if l.PricePerKg.Set() {
		price := ParseMeasure(string(l.PricePerKg))
		e.PricePerKg = &price
	}
	return e
}
