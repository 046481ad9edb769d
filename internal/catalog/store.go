/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package catalog reads track snapshots for the sequence engine. The engine
// scores in memory against a stable, ordered snapshot, so the store's job is
// to produce that snapshot cheaply and in a deterministic order.
package catalog

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/cadence/internal/cache"
	"github.com/friendsincode/cadence/internal/models"
)

// Store loads catalog snapshots with a Redis read-through cache.
type Store struct {
	db     *gorm.DB
	cache  *cache.Cache
	logger zerolog.Logger
}

// NewStore creates a catalog store. cache may be nil in tests and CLI runs.
func NewStore(db *gorm.DB, c *cache.Cache, logger zerolog.Logger) *Store {
	return &Store{
		db:     db,
		cache:  c,
		logger: logger.With().Str("component", "catalog").Logger(),
	}
}

// ListActive returns all non-deleted tracks, optionally scoped to a channel.
// Order is stable (creation order, then id) because downstream tie-breaking
// depends on catalog position.
func (s *Store) ListActive(ctx context.Context, channelID string) ([]models.Track, error) {
	if s.cache != nil {
		if tracks, ok := s.cache.GetCatalog(ctx, channelID); ok {
			return tracks, nil
		}
	}

	query := s.db.WithContext(ctx).Order("created_at, id")
	if channelID != "" {
		query = query.Where("channel_id = ?", channelID)
	}

	var tracks []models.Track
	if err := query.Find(&tracks).Error; err != nil {
		return nil, fmt.Errorf("list tracks: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetCatalog(ctx, channelID, tracks); err != nil {
			s.logger.Debug().Err(err).Msg("catalog snapshot not cached")
		}
	}

	return tracks, nil
}

// Get returns a single track by ID.
func (s *Store) Get(ctx context.Context, id string) (*models.Track, error) {
	var track models.Track
	if err := s.db.WithContext(ctx).First(&track, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("get track %s: %w", id, err)
	}
	return &track, nil
}

// Upsert creates or updates a track and invalidates catalog snapshots.
func (s *Store) Upsert(ctx context.Context, track *models.Track) error {
	if err := s.db.WithContext(ctx).Save(track).Error; err != nil {
		return fmt.Errorf("save track: %w", err)
	}
	s.invalidate(ctx)
	return nil
}

// Delete soft-deletes a track and invalidates catalog snapshots.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Delete(&models.Track{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("delete track %s: %w", id, err)
	}
	s.invalidate(ctx)
	return nil
}

func (s *Store) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCatalog(ctx); err != nil {
		s.logger.Debug().Err(err).Msg("catalog cache invalidation failed")
	}
}
