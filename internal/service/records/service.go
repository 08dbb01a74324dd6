// Package records submits and queries weighing records. Every submission must
// be backed by a captured scale photo.
package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/avicola/internal/apperr"
	"github.com/mamadbah2/avicola/internal/auth"
	"github.com/mamadbah2/avicola/internal/capture"
	"github.com/mamadbah2/avicola/internal/domain/models"
	"github.com/mamadbah2/avicola/internal/weighing"
)

// Repository persists weighing records.
type Repository interface {
	CreateRecord(ctx context.Context, record models.WeighingRecord) (models.WeighingRecord, error)
	ListRecords(ctx context.Context, filter models.RecordFilter) ([]models.WeighingRecord, error)
	DeleteRecord(ctx context.Context, id string) error
}

// PhotoStore keeps the scale photos.
type PhotoStore interface {
	SavePhoto(ctx context.Context, name, contentType string, data []byte) (string, error)
	LoadPhoto(ctx context.Context, ref string) ([]byte, error)
	DeletePhoto(ctx context.Context, ref string) error
}

// SettingsReader exposes the settings singleton.
type SettingsReader interface {
	GetSettings(ctx context.Context) (models.Settings, error)
}

// ClientLookup resolves the client of an entry.
type ClientLookup interface {
	GetClient(ctx context.Context, id string) (models.Client, error)
}

// Journal receives a copy of each stored record. Optional.
type Journal interface {
	AppendRecord(ctx context.Context, record models.WeighingRecord, clientName string) error
}

// Evidence is the source of the captured photo, normally a capture pipeline.
type Evidence interface {
	Evidence() (*capture.Payload, error)
}

// Preview is the live computation shown while the operator types.
type Preview struct {
	weighing.Quote
	TareWeight float64  `json:"tare_weight"`
	PricePerKg *float64 `json:"price_per_kg,omitempty"`
	CutType    string   `json:"cut_type,omitempty"`
}

// Service handles weighing records.
type Service struct {
	records  Repository
	photos   PhotoStore
	settings SettingsReader
	clients  ClientLookup
	journal  Journal
	now      func() time.Time
	logger   *zap.Logger
}

// NewService wires the records service. journal may be nil.
func NewService(records Repository, photos PhotoStore, settings SettingsReader, clients ClientLookup, journal Journal, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		records:  records,
		photos:   photos,
		settings: settings,
		clients:  clients,
		journal:  journal,
		now:      time.Now,
		logger:   logger,
	}
}

// Preview computes the net weight and total for a partially filled entry.
// Proceso entries without a price take the client's default price and cut.
func (s *Service) Preview(ctx context.Context, actor models.Actor, entry weighing.Entry) (Preview, error) {
	if err := auth.Require(actor, auth.OpWeigh); err != nil {
		return Preview{}, err
	}
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return Preview{}, fmt.Errorf("load settings: %w", err)
	}

	if entry.RecordType == models.RecordProceso && strings.TrimSpace(entry.ClientID) != "" {
		client, err := s.clients.GetClient(ctx, entry.ClientID)
		switch {
		case err == nil:
			entry = withClientDefaults(entry, client)
		case !errors.Is(err, apperr.ErrNotFound):
			return Preview{}, fmt.Errorf("lookup client: %w", err)
		}
	}

	return Preview{
		Quote:      entry.Quote(settings.ContainerTareWeight),
		TareWeight: settings.ContainerTareWeight,
		PricePerKg: entry.PricePerKg,
		CutType:    entry.CutType,
	}, nil
}

// Submit stores a weighing record. The evidence precondition is checked
// before any storage call. Proceso entries then take the client's default
// price and cut before validation, and finally the photo and the record are
// written.
func (s *Service) Submit(ctx context.Context, actor models.Actor, entry weighing.Entry, evidence Evidence) (models.WeighingRecord, error) {
	if err := auth.Require(actor, auth.OpWeigh); err != nil {
		return models.WeighingRecord{}, err
	}

	if evidence == nil {
		return models.WeighingRecord{}, fmt.Errorf("scale photo required: %w", apperr.ErrPreconditionFailed)
	}
	photo, err := evidence.Evidence()
	if err != nil {
		return models.WeighingRecord{}, err
	}

	v := apperr.Violations{}
	var client models.Client
	if id := strings.TrimSpace(entry.ClientID); id != "" {
		client, err = s.clients.GetClient(ctx, id)
		switch {
		case err == nil:
			if entry.RecordType == models.RecordProceso {
				entry = withClientDefaults(entry, client)
			}
		case errors.Is(err, apperr.ErrNotFound):
			v.Add("client_id", "unknown")
		default:
			return models.WeighingRecord{}, fmt.Errorf("lookup client: %w", err)
		}
	}
	var verr *apperr.ValidationError
	if err := entry.Validate(); errors.As(err, &verr) {
		for field, reason := range verr.Fields {
			v.Add(field, reason)
		}
	}
	if err := v.Err(); err != nil {
		return models.WeighingRecord{}, err
	}

	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return models.WeighingRecord{}, fmt.Errorf("load settings: %w", err)
	}

	name := fmt.Sprintf("%s/%s.jpg", actor.ID, uuid.NewString())
	photoRef, err := s.photos.SavePhoto(ctx, name, photo.ContentType, photo.Data)
	if err != nil {
		return models.WeighingRecord{}, err
	}

	record := entry.BuildRecord(actor, settings.ContainerTareWeight, photoRef)
	record.CreatedAt = s.now()

	stored, err := s.records.CreateRecord(ctx, record)
	if err != nil {
		if derr := s.photos.DeletePhoto(ctx, photoRef); derr != nil {
			s.logger.Warn("failed to remove photo of unsaved record", zap.String("photo_ref", photoRef), zap.Error(derr))
		}
		return models.WeighingRecord{}, err
	}

	s.logger.Info("weighing record stored",
		zap.String("record_id", stored.ID),
		zap.String("type", string(stored.RecordType)),
		zap.String("client_id", stored.ClientID),
		zap.Float64("net_weight", stored.NetWeight))

	if s.journal != nil {
		if err := s.journal.AppendRecord(ctx, stored, client.Name); err != nil {
			s.logger.Warn("failed to journal weighing record", zap.String("record_id", stored.ID), zap.Error(err))
		}
	}

	return stored, nil
}

// List returns the records matching filter.
func (s *Service) List(ctx context.Context, actor models.Actor, filter models.RecordFilter) ([]models.WeighingRecord, error) {
	if err := auth.Require(actor, auth.OpViewRecords); err != nil {
		return nil, err
	}
	if filter.RecordType != "" && !filter.RecordType.Valid() {
		return nil, (apperr.Violations{"type": "invalid"}).Err()
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return nil, (apperr.Violations{"to": "before_from"}).Err()
	}
	return s.records.ListRecords(ctx, filter)
}

// Delete removes a record from listings.
func (s *Service) Delete(ctx context.Context, actor models.Actor, id string) error {
	if err := auth.Require(actor, auth.OpDeleteRecords); err != nil {
		return err
	}
	if err := s.records.DeleteRecord(ctx, id); err != nil {
		return err
	}
	s.logger.Info("weighing record deleted", zap.String("record_id", id), zap.String("actor", actor.ID))
	return nil
}

// Photo returns the stored scale photo of a record.
func (s *Service) Photo(ctx context.Context, actor models.Actor, ref string) ([]byte, error) {
	if err := auth.Require(actor, auth.OpViewRecords); err != nil {
		return nil, err
	}
	return s.photos.LoadPhoto(ctx, ref)
}

func withClientDefaults(entry weighing.Entry, client models.Client) weighing.Entry {
	if entry.PricePerKg == nil && client.DefaultPrice > 0 {
		price := client.DefaultPrice
		entry.PricePerKg = &price
	}
	if strings.TrimSpace(entry.CutType) == "" {
		entry.CutType = client.DefaultCutType
	}
	return entry
}
