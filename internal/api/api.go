/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package api exposes the HTTP surface: spec CRUD, sequence generation and
// stateless preview.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/friendsincode/cadence/internal/auth"
	"github.com/friendsincode/cadence/internal/events"
	"github.com/friendsincode/cadence/internal/models"
	"github.com/friendsincode/cadence/internal/sequence"
)

// SpecStore is the persistence surface the handlers need.
type SpecStore interface {
	Create(ctx context.Context, spec *models.SequenceSpec) error
	Get(ctx context.Context, id string) (*models.SequenceSpec, error)
	List(ctx context.Context) ([]models.SequenceSpec, error)
	Update(ctx context.Context, spec *models.SequenceSpec) error
	Delete(ctx context.Context, id string) error
}

// CatalogStore loads track snapshots for generation runs.
type CatalogStore interface {
	ListActive(ctx context.Context, channelID string) ([]models.Track, error)
}

// Publisher is the event sink generation outcomes report to.
type Publisher interface {
	Publish(eventType events.EventType, payload events.Payload)
}

// API exposes HTTP handlers.
type API struct {
	specs     SpecStore
	catalog   CatalogStore
	engine    *sequence.Engine
	bus       Publisher
	jwtSecret []byte
	maxLength int
	logger    zerolog.Logger
}

// New creates the API router wrapper.
func New(specs SpecStore, catalog CatalogStore, engine *sequence.Engine, bus Publisher, jwtSecret []byte, maxLength int, logger zerolog.Logger) *API {
	return &API{
		specs:     specs,
		catalog:   catalog,
		engine:    engine,
		bus:       bus,
		jwtSecret: jwtSecret,
		maxLength: maxLength,
		logger:    logger.With().Str("component", "api").Logger(),
	}
}

// Routes mounts API routes on provided router.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", a.handleHealth)

		// Read endpoints (no auth required)
		r.Get("/specs", a.handleSpecsList)
		r.Get("/specs/{specID}", a.handleSpecsGet)
		r.Post("/specs/{specID}/generate", a.handleGenerate)
		r.Post("/preview", a.handlePreview)

		// Mutations require a valid token
		r.Group(func(pr chi.Router) {
			pr.Use(a.authMiddleware())

			pr.Post("/specs", a.handleSpecsCreate)
			pr.Put("/specs/{specID}", a.handleSpecsUpdate)
			pr.Delete("/specs/{specID}", a.handleSpecsDelete)
		})
	})
}

func (a *API) authMiddleware() func(http.Handler) http.Handler {
	return auth.Middleware(a.jwtSecret)
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// writeValidationError reports every problem found in an authored spec so a
// single round-trip surfaces them all.
func writeValidationError(w http.ResponseWriter, verr *sequence.ValidationError) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"error":    "invalid_spec",
		"problems": verr.Problems,
	})
}
