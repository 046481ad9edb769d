/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package server wires configuration, storage, cache, events and the HTTP
// API into one runnable process.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/cadence/internal/api"
	"github.com/friendsincode/cadence/internal/cache"
	"github.com/friendsincode/cadence/internal/catalog"
	"github.com/friendsincode/cadence/internal/config"
	"github.com/friendsincode/cadence/internal/db"
	"github.com/friendsincode/cadence/internal/eventbus"
	"github.com/friendsincode/cadence/internal/events"
	"github.com/friendsincode/cadence/internal/sequence"
	"github.com/friendsincode/cadence/internal/specstore"
	"github.com/friendsincode/cadence/internal/telemetry"
)

// eventPublisher is satisfied by both the in-process bus and the NATS bridge.
type eventPublisher interface {
	Publish(eventType events.EventType, payload events.Payload)
	Subscribe(eventType events.EventType) events.Subscriber
	Unsubscribe(eventType events.EventType, sub events.Subscriber)
}

// Server bundles HTTP and supporting services.
type Server struct {
	cfg           *config.Config
	logger        zerolog.Logger
	router        chi.Router
	httpServer    *http.Server
	metricsServer *http.Server
	closers       []func() error

	db      *gorm.DB
	cache   *cache.Cache
	bus     eventPublisher
	catalog *catalog.Store
	specs   *specstore.Store
	engine  *sequence.Engine
	api     *api.API

	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New constructs the server and wires dependencies.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(securityHeadersMiddleware)
	router.Use(telemetry.TracingMiddleware("cadence-api"))
	router.Use(telemetry.MetricsMiddleware)
	router.Use(middleware.Timeout(60 * time.Second))

	srv := &Server{
		cfg:    cfg,
		logger: logger,
		router: router,
	}

	if err := srv.initDependencies(); err != nil {
		return nil, err
	}

	srv.configureRoutes()
	srv.startBackgroundWorkers()

	addr := fmt.Sprintf("%s:%d", cfg.HTTPBind, cfg.HTTPPort)
	srv.httpServer = &http.Server{
		Addr:              addr,
		Handler:           srv.router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Metrics bind separately so the scrape endpoint never shares the
	// public listener.
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", telemetry.Handler())
	srv.metricsServer = &http.Server{
		Addr:              cfg.MetricsBind,
		Handler:           metricsMux,
		ReadHeaderTimeout: 15 * time.Second,
	}

	return srv, nil
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'; base-uri 'self'")

		// Only advertise HSTS for requests served over HTTPS.
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) initDependencies() error {
	database, err := db.Connect(s.cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(database); err != nil {
		return err
	}
	if err := db.RegisterCallbacks(database); err != nil {
		return err
	}
	s.db = database
	s.DeferClose(func() error { return db.Close(database) })

	// Redis cache for catalog snapshots and spec lookups
	cacheCfg := cache.DefaultConfig()
	cacheCfg.RedisAddr = s.cfg.RedisAddr
	cacheCfg.RedisPassword = s.cfg.RedisPassword
	cacheCfg.RedisDB = s.cfg.RedisDB
	entityCache, err := cache.New(cacheCfg, s.logger)
	if err != nil {
		s.logger.Warn().Err(err).Msg("cache initialization failed, continuing without cache")
	} else {
		s.cache = entityCache
		s.DeferClose(func() error { return s.cache.Close() })
	}

	// Event bus: NATS-bridged when configured, in-process otherwise
	if s.cfg.NATSEnabled {
		natsCfg := eventbus.DefaultNATSConfig()
		natsCfg.URL = s.cfg.NATSURL
		natsBus, err := eventbus.NewNATSBus(natsCfg, s.logger)
		if err != nil {
			return fmt.Errorf("create nats event bus: %w", err)
		}
		s.bus = natsBus
		s.DeferClose(natsBus.Close)
	} else {
		s.bus = events.NewBus()
	}

	s.catalog = catalog.NewStore(database, s.cache, s.logger)
	s.specs = specstore.NewStore(database, s.cache, s.bus, s.logger)

	s.engine = sequence.NewWithScorer(s.logger, sequence.Scorer{
		MissingFeaturePenalty: s.cfg.MissingFeaturePenalty,
	})

	s.api = api.New(s.specs, s.catalog, s.engine, s.bus, []byte(s.cfg.JWTSigningKey), s.cfg.MaxSequenceLength, s.logger)
	return nil
}

// HTTPServer exposes the underlying net/http server.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// MetricsServer exposes the metrics listener.
func (s *Server) MetricsServer() *http.Server {
	return s.metricsServer
}

// Close releases owned resources in reverse order.
func (s *Server) Close() error {
	s.stopBackgroundWorkers()
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

func (s *Server) startBackgroundWorkers() {
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	if s.cache != nil {
		s.bgWG.Add(1)
		go func() {
			defer s.bgWG.Done()
			s.runCacheInvalidationListener(ctx)
		}()
	}
}

// runCacheInvalidationListener drops stale cache entries when mutation
// events arrive. Local mutations invalidate inline; this listener exists for
// events relayed from other nodes over NATS.
func (s *Server) runCacheInvalidationListener(ctx context.Context) {
	specCreated := s.bus.Subscribe(events.EventSpecCreated)
	specUpdated := s.bus.Subscribe(events.EventSpecUpdated)
	specDeleted := s.bus.Subscribe(events.EventSpecDeleted)
	trackCreated := s.bus.Subscribe(events.EventTrackCreated)
	trackUpdated := s.bus.Subscribe(events.EventTrackUpdated)
	trackDeleted := s.bus.Subscribe(events.EventTrackDeleted)

	defer func() {
		s.bus.Unsubscribe(events.EventSpecCreated, specCreated)
		s.bus.Unsubscribe(events.EventSpecUpdated, specUpdated)
		s.bus.Unsubscribe(events.EventSpecDeleted, specDeleted)
		s.bus.Unsubscribe(events.EventTrackCreated, trackCreated)
		s.bus.Unsubscribe(events.EventTrackUpdated, trackUpdated)
		s.bus.Unsubscribe(events.EventTrackDeleted, trackDeleted)
	}()

	s.logger.Info().Msg("cache invalidation listener started")

	invalidateSpec := func(payload events.Payload) {
		if specID, ok := payload["spec_id"].(string); ok && specID != "" {
			s.cache.InvalidateSpec(ctx, specID)
		} else {
			s.cache.InvalidateSpecList(ctx)
		}
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("cache invalidation listener stopped")
			return

		case payload := <-specCreated:
			invalidateSpec(payload)
		case payload := <-specUpdated:
			invalidateSpec(payload)
		case payload := <-specDeleted:
			invalidateSpec(payload)

		case <-trackCreated:
			s.cache.InvalidateCatalog(ctx)
		case <-trackUpdated:
			s.cache.InvalidateCatalog(ctx)
		case <-trackDeleted:
			s.cache.InvalidateCatalog(ctx)
		}
	}
}

func (s *Server) stopBackgroundWorkers() {
	if s.bgCancel == nil {
		return
	}
	s.bgCancel()
	s.bgWG.Wait()
	s.bgCancel = nil
}

func (s *Server) configureRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	s.router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		sqlDB, err := s.db.DB()
		if err == nil {
			pingCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			err = sqlDB.PingContext(pingCtx)
			cancel()
		}
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable","reason":"database"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready"}`))
	})

	s.api.Routes(s.router)
}
