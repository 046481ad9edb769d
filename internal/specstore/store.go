/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package specstore persists sequence specs and keeps the cache and event
// bus coherent across mutations.
package specstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/cadence/internal/cache"
	"github.com/friendsincode/cadence/internal/events"
	"github.com/friendsincode/cadence/internal/models"
)

// ErrNotFound is returned when a spec does not exist.
var ErrNotFound = errors.New("sequence spec not found")

// Publisher is the event sink mutations report to. Both the in-process bus
// and the NATS bridge satisfy it.
type Publisher interface {
	Publish(eventType events.EventType, payload events.Payload)
}

// Store persists sequence specs.
type Store struct {
	db     *gorm.DB
	cache  *cache.Cache
	bus    Publisher
	logger zerolog.Logger
}

// NewStore creates a spec store. cache and bus may be nil in tests and CLI runs.
func NewStore(db *gorm.DB, c *cache.Cache, bus Publisher, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		cache:  c,
		bus:    bus,
		logger: logger.With().Str("component", "specstore").Logger(),
	}
}

// Create persists a new spec and assigns its ID when empty.
func (s *Store) Create(ctx context.Context, spec *models.SequenceSpec) error {
	if spec.ID == "" {
		spec.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(spec).Error; err != nil {
		return fmt.Errorf("create spec: %w", err)
	}

	s.invalidate(ctx, spec.ID)
	s.publish(events.EventSpecCreated, spec)
	s.logger.Info().Str("spec_id", spec.ID).Str("name", spec.Name).Msg("spec created")
	return nil
}

// Get returns a spec by ID, consulting the cache first.
func (s *Store) Get(ctx context.Context, id string) (*models.SequenceSpec, error) {
	if s.cache != nil {
		if spec, ok := s.cache.GetSpec(ctx, id); ok {
			return spec, nil
		}
	}

	var spec models.SequenceSpec
	if err := s.db.WithContext(ctx).First(&spec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get spec %s: %w", id, err)
	}

	if s.cache != nil {
		if err := s.cache.SetSpec(ctx, &spec); err != nil {
			s.logger.Debug().Err(err).Msg("spec not cached")
		}
	}
	return &spec, nil
}

// List returns all specs ordered by name.
func (s *Store) List(ctx context.Context) ([]models.SequenceSpec, error) {
	if s.cache != nil {
		if specs, ok := s.cache.GetSpecList(ctx); ok {
			return specs, nil
		}
	}

	var specs []models.SequenceSpec
	if err := s.db.WithContext(ctx).Order("name, id").Find(&specs).Error; err != nil {
		return nil, fmt.Errorf("list specs: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetSpecList(ctx, specs); err != nil {
			s.logger.Debug().Err(err).Msg("spec list not cached")
		}
	}
	return specs, nil
}

// Update replaces a stored spec.
func (s *Store) Update(ctx context.Context, spec *models.SequenceSpec) error {
	result := s.db.WithContext(ctx).Model(&models.SequenceSpec{}).
		Where("id = ?", spec.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(spec)
	if result.Error != nil {
		return fmt.Errorf("update spec %s: %w", spec.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	s.invalidate(ctx, spec.ID)
	s.publish(events.EventSpecUpdated, spec)
	s.logger.Info().Str("spec_id", spec.ID).Msg("spec updated")
	return nil
}

// Delete removes a spec.
func (s *Store) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&models.SequenceSpec{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("delete spec %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	s.invalidate(ctx, id)
	if s.bus != nil {
		s.bus.Publish(events.EventSpecDeleted, events.Payload{"spec_id": id})
	}
	s.logger.Info().Str("spec_id", id).Msg("spec deleted")
	return nil
}

func (s *Store) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateSpec(ctx, id); err != nil {
		s.logger.Debug().Err(err).Str("spec_id", id).Msg("spec cache invalidation failed")
	}
}

func (s *Store) publish(eventType events.EventType, spec *models.SequenceSpec) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(eventType, events.Payload{
		"spec_id": spec.ID,
		"name":    spec.Name,
	})
}
