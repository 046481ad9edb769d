/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package cache provides a Redis-based caching layer for frequently accessed data.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/friendsincode/cadence/internal/models"
)

// Default TTL values for different cache types
const (
	DefaultCatalogTTL  = 5 * time.Minute
	DefaultSpecTTL     = 1 * time.Hour
	DefaultSpecListTTL = 5 * time.Minute
)

// Key prefixes for Redis cache
const (
	KeyCatalog  = "cadence:cache:catalog:" // + channel_id or "all"
	KeySpec     = "cadence:cache:spec:"    // + spec_id
	KeySpecList = "cadence:cache:specs"
)

// Config contains cache configuration.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// TTL overrides
	CatalogTTL  time.Duration
	SpecTTL     time.Duration
	SpecListTTL time.Duration

	// Fallback behavior
	DisableOnError bool // If true, disable caching on Redis errors
}

// DefaultConfig returns default cache configuration.
func DefaultConfig() Config {
	return Config{
		RedisAddr:      "localhost:6379",
		CatalogTTL:     DefaultCatalogTTL,
		SpecTTL:        DefaultSpecTTL,
		SpecListTTL:    DefaultSpecListTTL,
		DisableOnError: true,
	}
}

// Cache provides Redis-backed caching with graceful fallback.
type Cache struct {
	client *redis.Client
	logger zerolog.Logger
	config Config

	mu       sync.RWMutex
	disabled bool // Circuit breaker state
}

// New creates a new cache instance. When Redis is unreachable the cache
// starts disabled and every operation becomes a no-op; callers fall through
// to the database.
func New(cfg Config, logger zerolog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.RedisAddr,
		Password:     cfg.RedisPassword,
		DB:           cfg.RedisDB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Msg("Redis cache unavailable, running without caching")
		return &Cache{
			logger:   logger.With().Str("component", "cache").Logger(),
			config:   cfg,
			disabled: true,
		}, nil
	}

	logger.Info().Str("addr", cfg.RedisAddr).Msg("Redis cache initialized")

	return &Cache{
		client: client,
		logger: logger.With().Str("component", "cache").Logger(),
		config: cfg,
	}, nil
}

// Close closes the Redis connection.
func (c *Cache) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// IsAvailable returns true if the cache is operational.
func (c *Cache) IsAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.disabled && c.client != nil
}

// handleError handles Redis errors with circuit breaker logic.
func (c *Cache) handleError(err error, operation string) {
	if err == nil || err == redis.Nil {
		return
	}

	c.logger.Debug().Err(err).Str("operation", operation).Msg("cache operation failed")

	if c.config.DisableOnError {
		c.mu.Lock()
		c.disabled = true
		c.mu.Unlock()
		c.logger.Warn().Msg("disabling cache due to Redis error")
	}
}

// get retrieves a value from cache and unmarshals it.
func (c *Cache) get(ctx context.Context, key string, dest any) (bool, error) {
	if !c.IsAvailable() {
		return false, nil
	}

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		c.handleError(err, "get")
		return false, err
	}

	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Debug().Err(err).Str("key", key).Msg("failed to unmarshal cached value")
		return false, nil
	}

	return true, nil
}

// set stores a value in cache with TTL.
func (c *Cache) set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if !c.IsAvailable() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.handleError(err, "set")
		return err
	}

	return nil
}

// delete removes a key from cache.
func (c *Cache) delete(ctx context.Context, key string) error {
	if !c.IsAvailable() {
		return nil
	}

	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.handleError(err, "delete")
		return err
	}

	return nil
}

// deletePattern deletes all keys matching a pattern.
func (c *Cache) deletePattern(ctx context.Context, pattern string) error {
	if !c.IsAvailable() {
		return nil
	}

	// Use SCAN to find keys (safer than KEYS for production)
	var cursor uint64
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			c.handleError(err, "scan")
			return err
		}

		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.handleError(err, "delete_batch")
				return err
			}
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return nil
}

// Catalog caching methods

// catalogKey maps a channel scope to a cache key. Empty channel means the
// full active catalog.
func catalogKey(channelID string) string {
	if channelID == "" {
		return KeyCatalog + "all"
	}
	return KeyCatalog + channelID
}

// GetCatalog retrieves a cached catalog snapshot for a channel scope.
func (c *Cache) GetCatalog(ctx context.Context, channelID string) ([]models.Track, bool) {
	var tracks []models.Track
	found, err := c.get(ctx, catalogKey(channelID), &tracks)
	if err != nil || !found {
		return nil, false
	}
	c.logger.Debug().Str("channel_id", channelID).Int("count", len(tracks)).Msg("catalog cache hit")
	return tracks, true
}

// SetCatalog caches a catalog snapshot for a channel scope.
func (c *Cache) SetCatalog(ctx context.Context, channelID string, tracks []models.Track) error {
	c.logger.Debug().Str("channel_id", channelID).Int("count", len(tracks)).Msg("caching catalog")
	return c.set(ctx, catalogKey(channelID), tracks, c.config.CatalogTTL)
}

// InvalidateCatalog removes every catalog snapshot from cache. Track
// mutations arrive per-channel but a changed track may have moved channels,
// so all snapshots go.
func (c *Cache) InvalidateCatalog(ctx context.Context) error {
	c.logger.Debug().Msg("invalidating catalog caches")
	return c.deletePattern(ctx, KeyCatalog+"*")
}

// Spec caching methods

// GetSpec retrieves a cached sequence spec by ID.
func (c *Cache) GetSpec(ctx context.Context, specID string) (*models.SequenceSpec, bool) {
	var spec models.SequenceSpec
	found, err := c.get(ctx, KeySpec+specID, &spec)
	if err != nil || !found {
		return nil, false
	}
	c.logger.Debug().Str("spec_id", specID).Msg("spec cache hit")
	return &spec, true
}

// SetSpec caches a sequence spec.
func (c *Cache) SetSpec(ctx context.Context, spec *models.SequenceSpec) error {
	c.logger.Debug().Str("spec_id", spec.ID).Msg("caching spec")
	return c.set(ctx, KeySpec+spec.ID, spec, c.config.SpecTTL)
}

// InvalidateSpec removes a sequence spec and the spec list from cache.
func (c *Cache) InvalidateSpec(ctx context.Context, specID string) error {
	c.logger.Debug().Str("spec_id", specID).Msg("invalidating spec cache")

	if err := c.delete(ctx, KeySpec+specID); err != nil {
		return err
	}
	return c.delete(ctx, KeySpecList)
}

// GetSpecList retrieves the cached list of sequence specs.
func (c *Cache) GetSpecList(ctx context.Context) ([]models.SequenceSpec, bool) {
	var specs []models.SequenceSpec
	found, err := c.get(ctx, KeySpecList, &specs)
	if err != nil || !found {
		return nil, false
	}
	c.logger.Debug().Int("count", len(specs)).Msg("spec list cache hit")
	return specs, true
}

// SetSpecList caches the list of sequence specs.
func (c *Cache) SetSpecList(ctx context.Context, specs []models.SequenceSpec) error {
	c.logger.Debug().Int("count", len(specs)).Msg("caching spec list")
	return c.set(ctx, KeySpecList, specs, c.config.SpecListTTL)
}

// InvalidateSpecList removes the spec list from cache.
func (c *Cache) InvalidateSpecList(ctx context.Context) error {
	c.logger.Debug().Msg("invalidating spec list cache")
	return c.delete(ctx, KeySpecList)
}

// FlushAll removes all cached data (use sparingly).
func (c *Cache) FlushAll(ctx context.Context) error {
	c.logger.Warn().Msg("flushing all cache data")
	return c.deletePattern(ctx, "cadence:cache:*")
}
