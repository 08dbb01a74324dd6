package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mamadbah2/avicola/internal/domain/models"
)

const (
	journalRange = "Pesajes!A:L"
	journalTime  = "2006-01-02 15:04:05"
)

var journalHeader = []interface{}{
	"Fecha", "Tipo", "Cliente", "Usuario", "Peso bruto", "Tinas", "Pollos",
	"Peso neto", "Corte", "Precio", "Total", "ID",
}

// Journal mirrors every persisted weighing record into a spreadsheet so the
// office can reconcile it outside the board.
type Journal struct {
	repo     Repository
	location *time.Location
}

// NewJournal writes rows through repo, formatting timestamps in loc.
func NewJournal(repo Repository, loc *time.Location) *Journal {
	if loc == nil {
		loc = time.UTC
	}
	return &Journal{repo: repo, location: loc}
}

// AppendRecord writes one row per record. Optional fields are left blank.
func (j *Journal) AppendRecord(ctx context.Context, record models.WeighingRecord, clientName string) error {
	row := []interface{}{
		record.CreatedAt.In(j.location).Format(journalTime),
		string(record.RecordType),
		clientName,
		record.ActorID,
		record.GrossWeight,
		record.ContainerCount,
		optionalInt(record.BirdCount),
		record.NetWeight,
		optionalString(record.CutType),
		optionalFloat(record.AppliedPrice),
		record.Amount(),
		record.ID,
	}
	if err := j.repo.AppendRows(ctx, journalRange, [][]interface{}{row}); err != nil {
		return fmt.Errorf("journal record %s: %w", record.ID, err)
	}
	return nil
}

// EnsureHeader writes the column titles when the journal sheet is empty.
func (j *Journal) EnsureHeader(ctx context.Context) error {
	rows, err := j.repo.ReadRange(ctx, journalRange)
	if err != nil {
		return err
	}
	if len(rows) > 0 {
		return nil
	}
	return j.repo.AppendRows(ctx, journalRange, [][]interface{}{journalHeader})
}

// CountRows returns the number of journaled records, header excluded.
func (j *Journal) CountRows(ctx context.Context) (int, error) {
	rows, err := j.repo.ReadRange(ctx, journalRange)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		if strings.EqualFold(fmt.Sprint(row[0]), "fecha") {
			continue
		}
		count++
	}
	return count, nil
}

func optionalInt(v *int) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func optionalFloat(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func optionalString(v *string) interface{} {
	if v == nil {
		return ""
	}
	return *v
}
