// Package catalog manages zones, clients and the settings singleton.
package catalog

import (
	"context"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/avicola/internal/apperr"
	"github.com/mamadbah2/avicola/internal/auth"
	"github.com/mamadbah2/avicola/internal/domain/models"
)

// Repository persists the catalog.
type Repository interface {
	ListZones(ctx context.Context) ([]models.Zone, error)
	SaveZone(ctx context.Context, zone models.Zone) (models.Zone, error)
	DeleteZone(ctx context.Context, id string) error
	ListClients(ctx context.Context) ([]models.Client, error)
	GetClient(ctx context.Context, id string) (models.Client, error)
	SaveClient(ctx context.Context, client models.Client) (models.Client, error)
	DeleteClient(ctx context.Context, id string) error
	GetSettings(ctx context.Context) (models.Settings, error)
	SaveSettings(ctx context.Context, settings models.Settings) (models.Settings, error)
}

// Service exposes catalog operations guarded by role.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// NewService wires the catalog service.
func NewService(repo Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, logger: logger}
}

// Zones lists zones from most to least urgent.
func (s *Service) Zones(ctx context.Context, actor models.Actor) ([]models.Zone, error) {
	if err := auth.Require(actor, auth.OpViewCatalog); err != nil {
		return nil, err
	}
	zones, err := s.repo.ListZones(ctx)
	if err != nil {
		return nil, err
	}
	return models.SortZonesByPriority(zones), nil
}

// SaveZone creates or renames a zone.
func (s *Service) SaveZone(ctx context.Context, actor models.Actor, zone models.Zone) (models.Zone, error) {
	if err := auth.Require(actor, auth.OpManageCatalog); err != nil {
		return models.Zone{}, err
	}
	zone.Name = strings.TrimSpace(zone.Name)
	v := apperr.Violations{}
	if zone.Name == "" {
		v.Add("name", "required")
	}
	if zone.Priority < 0 {
		v.Add("priority", "must_not_be_negative")
	}
	if err := v.Err(); err != nil {
		return models.Zone{}, err
	}
	return s.repo.SaveZone(ctx, zone)
}

// DeleteZone removes a zone that no active client belongs to.
func (s *Service) DeleteZone(ctx context.Context, actor models.Actor, id string) error {
	if err := auth.Require(actor, auth.OpManageCatalog); err != nil {
		return err
	}
	clients, err := s.repo.ListClients(ctx)
	if err != nil {
		return err
	}
	for _, c := range clients {
		if c.ZoneID == id {
			return fmt.Errorf("zone %s still has client %s: %w", id, c.ID, apperr.ErrConflict)
		}
	}
	return s.repo.DeleteZone(ctx, id)
}

// Clients lists active clients.
func (s *Service) Clients(ctx context.Context, actor models.Actor) ([]models.Client, error) {
	if err := auth.Require(actor, auth.OpViewCatalog); err != nil {
		return nil, err
	}
	return s.repo.ListClients(ctx)
}

// Client returns one active client.
func (s *Service) Client(ctx context.Context, actor models.Actor, id string) (models.Client, error) {
	if err := auth.Require(actor, auth.OpViewCatalog); err != nil {
		return models.Client{}, err
	}
	return s.repo.GetClient(ctx, id)
}

// SaveClient creates or updates a client. The zone must exist when set.
func (s *Service) SaveClient(ctx context.Context, actor models.Actor, client models.Client) (models.Client, error) {
	if err := auth.Require(actor, auth.OpManageCatalog); err != nil {
		return models.Client{}, err
	}

	client.Name = strings.TrimSpace(client.Name)
	client.ZoneID = strings.TrimSpace(client.ZoneID)
	client.DefaultCutType = strings.TrimSpace(client.DefaultCutType)

	v := apperr.Violations{}
	if client.Name == "" {
		v.Add("name", "required")
	}
	if client.DefaultPrice < 0 || math.IsNaN(client.DefaultPrice) || math.IsInf(client.DefaultPrice, 0) {
		v.Add("default_price", "must_not_be_negative")
	}
	if client.ZoneID != "" {
		zones, err := s.repo.ListZones(ctx)
		if err != nil {
			return models.Client{}, err
		}
		if !hasZone(zones, client.ZoneID) {
			v.Add("zone_id", "unknown")
		}
	}
	if err := v.Err(); err != nil {
		return models.Client{}, err
	}

	saved, err := s.repo.SaveClient(ctx, client)
	if err != nil {
		return models.Client{}, err
	}
	s.logger.Info("client saved", zap.String("client_id", saved.ID), zap.String("actor", actor.ID))
	return saved, nil
}

// DeleteClient soft-deletes a client so historical records keep resolving.
func (s *Service) DeleteClient(ctx context.Context, actor models.Actor, id string) error {
	if err := auth.Require(actor, auth.OpManageCatalog); err != nil {
		return err
	}
	return s.repo.DeleteClient(ctx, id)
}

// Settings returns the settings singleton.
func (s *Service) Settings(ctx context.Context, actor models.Actor) (models.Settings, error) {
	if err := auth.Require(actor, auth.OpViewSettings); err != nil {
		return models.Settings{}, err
	}
	return s.repo.GetSettings(ctx)
}

// UpdateSettings replaces the tare weight and the stock threshold.
func (s *Service) UpdateSettings(ctx context.Context, actor models.Actor, settings models.Settings) (models.Settings, error) {
	if err := auth.Require(actor, auth.OpEditSettings); err != nil {
		return models.Settings{}, err
	}

	v := apperr.Violations{}
	if settings.ContainerTareWeight < 0 || math.IsNaN(settings.ContainerTareWeight) {
		v.Add("container_tare_weight", "must_not_be_negative")
	}
	if settings.MinimumStockThreshold < 0 || math.IsNaN(settings.MinimumStockThreshold) {
		v.Add("minimum_stock_threshold", "must_not_be_negative")
	}
	if err := v.Err(); err != nil {
		return models.Settings{}, err
	}

	saved, err := s.repo.SaveSettings(ctx, settings)
	if err != nil {
		return models.Settings{}, err
	}
	s.logger.Info("settings updated",
		zap.Float64("container_tare_weight", saved.ContainerTareWeight),
		zap.Float64("minimum_stock_threshold", saved.MinimumStockThreshold),
		zap.String("actor", actor.ID))
	return saved, nil
}

func hasZone(zones []models.Zone, id string) bool {
	for _, z := range zones {
		if z.ID == id {
			return true
		}
	}
	return false
}
