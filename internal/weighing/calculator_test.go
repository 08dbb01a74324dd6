package weighing

import (
	"errors"
	"math"
	"testing"

	"github.com/mamadbah2/avicola/internal/apperr"
	"github.com/mamadbah2/avicola/internal/domain/models"
)

func TestComputeNet(t *testing.T) {
	tests := []struct {
		name       string
		gross      float64
		containers int
		tare       float64
		want       float64
	}{
		{"regular weighing", 120, 3, 3, 111},
		{"clamped at zero", 5, 3, 3, 0},
		{"exact tare", 9, 3, 3, 0},
		{"no containers", 42.5, 0, 3, 42.5},
		{"zero gross", 0, 0, 3, 0},
		{"fractional tare", 100, 4, 2.75, 89},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeNet(tt.gross, tt.containers, tt.tare)
			if got != tt.want {
				t.Errorf("ComputeNet(%v, %d, %v) = %v, want %v", tt.gross, tt.containers, tt.tare, got, tt.want)
			}
			if again := ComputeNet(tt.gross, tt.containers, tt.tare); again != got {
				t.Errorf("ComputeNet not idempotent: %v then %v", got, again)
			}
		})
	}
}

func TestComputeNetNeverNegative(t *testing.T) {
	for containers := 0; containers <= 20; containers++ {
		for gross := 0.0; gross < float64(containers)*3; gross += 0.5 {
			if got := ComputeNet(gross, containers, 3); got != 0 {
				t.Fatalf("ComputeNet(%v, %d, 3) = %v, want 0", gross, containers, got)
			}
		}
	}
}

func TestComputeTotal(t *testing.T) {
	if got := ComputeTotal(50, 6.5); got != 325 {
		t.Errorf("ComputeTotal(50, 6.5) = %v, want 325", got)
	}
	if got := ComputeTotal(0, 6.5); got != 0 {
		t.Errorf("ComputeTotal(0, 6.5) = %v, want 0", got)
	}

	nets := []float64{0, 1, 12.25, 111, 999.99}
	prices := []float64{0, 0.5, 6.5, 8.9}
	for _, n := range nets {
		for _, p := range prices {
			if got := ComputeTotal(n, p); got != n*p {
				t.Errorf("ComputeTotal(%v, %v) = %v, want %v", n, p, got, n*p)
			}
			if ComputeTotal(n, p) != ComputeTotal(n, p) {
				t.Errorf("ComputeTotal(%v, %v) not idempotent", n, p)
			}
		}
	}
}

func TestParseMeasure(t *testing.T) {
	tests := map[string]float64{
		"":       0,
		"   ":    0,
		"abc":    0,
		"12.5":   12.5,
		" 7 ":    7,
		"-3":     0,
		"NaN":    0,
		"+Inf":   0,
		"1e2":    100,
		"0.0001": 0.0001,
	}
	for raw, want := range tests {
		if got := ParseMeasure(raw); got != want {
			t.Errorf("ParseMeasure(%q) = %v, want %v", raw, got, want)
		}
	}

	if got := ParseCount("3.9"); got != 3 {
		t.Errorf("ParseCount(3.9) = %d, want 3", got)
	}
	if got := ParseCount("x"); got != 0 {
		t.Errorf("ParseCount(x) = %d, want 0", got)
	}
}

func TestRound2(t *testing.T) {
	if got := Round2(110.999); got != 111 {
		t.Errorf("Round2(110.999) = %v", got)
	}
	if got := Round2(2.344); math.Abs(got-2.34) > 1e-9 {
		t.Errorf("Round2(2.344) = %v", got)
	}
}

func TestEntryValidate(t *testing.T) {
	price := 6.5
	zero := 0.0
	negative := -1

	tests := []struct {
		name   string
		entry  Entry
		fields []string
	}{
		{
			name:  "valid camal",
			entry: Entry{RecordType: models.RecordCamal, ClientID: "c1", GrossWeight: 120, ContainerCount: 3},
		},
		{
			name:  "valid proceso",
			entry: Entry{RecordType: models.RecordProceso, ClientID: "c1", GrossWeight: 60, PricePerKg: &price},
		},
		{
			name:   "missing client and weight",
			entry:  Entry{RecordType: models.RecordCamal},
			fields: []string{"client_id", "gross_weight"},
		},
		{
			name:   "proceso without price",
			entry:  Entry{RecordType: models.RecordProceso, ClientID: "c1", GrossWeight: 10, PricePerKg: &zero},
			fields: []string{"price_per_kg"},
		},
		{
			name:   "bad type and counts",
			entry:  Entry{RecordType: "venta", ClientID: "c1", GrossWeight: 1, ContainerCount: -1, BirdCount: &negative},
			fields: []string{"record_type", "container_count", "bird_count"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.entry.Validate()
			if len(tt.fields) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var verr *apperr.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if len(verr.Fields) != len(tt.fields) {
				t.Errorf("got fields %v, want %v", verr.Fields, tt.fields)
			}
			for _, f := range tt.fields {
				if _, ok := verr.Fields[f]; !ok {
					t.Errorf("missing violation for %s in %v", f, verr.Fields)
				}
			}
		})
	}
}

func TestEntryQuoteAndBuildRecord(t *testing.T) {
	price := 6.5
	birds := 40
	entry := Entry{
		RecordType:     models.RecordProceso,
		ClientID:       " c1 ",
		OrderID:        "o1",
		GrossWeight:    59,
		ContainerCount: 3,
		BirdCount:      &birds,
		CutType:        "pechuga",
		PricePerKg:     &price,
	}

	q := entry.Quote(3)
	if q.NetWeight != 50 || q.Total != 325 {
		t.Fatalf("Quote = %+v, want net 50 total 325", q)
	}

	record := entry.BuildRecord(models.Actor{ID: "u1", Role: models.RolePesador}, 3, "u1/photo.jpg")
	if record.NetWeight != 50 {
		t.Errorf("NetWeight = %v, want 50", record.NetWeight)
	}
	if record.ClientID != "c1" || record.ActorID != "u1" || record.PhotoRef != "u1/photo.jpg" {
		t.Errorf("unexpected record identity: %+v", record)
	}
	if record.OrderID == nil || *record.OrderID != "o1" {
		t.Errorf("OrderID = %v", record.OrderID)
	}
	if record.Amount() != 325 {
		t.Errorf("Amount = %v, want 325", record.Amount())
	}

	birds = 99
	price = 1
	if *record.BirdCount != 40 || *record.AppliedPrice != 6.5 {
		t.Error("record must not alias entry pointers")
	}

	unpriced := Entry{RecordType: models.RecordCamal, ClientID: "c1", GrossWeight: 5, ContainerCount: 3}
	if q := unpriced.Quote(3); q.NetWeight != 0 || q.Total != 0 {
		t.Errorf("unpriced clamped quote = %+v", q)
	}
}
