/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/friendsincode/cadence/internal/events"
	"github.com/friendsincode/cadence/internal/models"
	"github.com/friendsincode/cadence/internal/sequence"
	"github.com/friendsincode/cadence/internal/specstore"
	"github.com/friendsincode/cadence/internal/telemetry"
)

// previewRequest carries an unsaved spec plus an optional inline catalog.
// When Tracks is empty the live catalog is used.
type previewRequest struct {
	Spec   sequence.Spec  `json:"spec"`
	Tracks []models.Track `json:"tracks,omitempty"`
	Length int            `json:"length"`
}

// generateResponse is the wire form of one generation run.
type generateResponse struct {
	SpecID   string               `json:"spec_id,omitempty"`
	Length   int                  `json:"length"`
	TrackIDs []string             `json:"track_ids"`
	Items    []sequence.Selection `json:"items"`
	PoolSize int                  `json:"pool_size"`
	Degraded int                  `json:"degraded"`
}

func (a *API) handleGenerate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "specID")

	record, err := a.specs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, specstore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "spec_not_found")
			return
		}
		a.logger.Error().Err(err).Msg("spec get failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	spec, err := sequence.FromModel(*record)
	if err != nil {
		a.logger.Error().Err(err).Str("spec_id", id).Msg("stored spec is unreadable")
		writeError(w, http.StatusInternalServerError, "spec_corrupt")
		return
	}

	length, ok := a.resolveLength(r, spec)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_length")
		return
	}

	// A spec's channel_id is descriptive metadata: only rule groups carve
	// the pool, so generation always starts from the full catalog.
	catalog, err := a.catalog.ListActive(r.Context(), "")
	if err != nil {
		a.logger.Error().Err(err).Msg("catalog load failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	a.runGeneration(w, id, spec, catalog, length)
}

func (a *API) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req previewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	length := req.Length
	if raw := r.URL.Query().Get("length"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "invalid_length")
			return
		}
		length = parsed
	}
	if length <= 0 {
		length = len(req.Spec.Definitions)
	}
	if a.maxLength > 0 && length > a.maxLength {
		writeError(w, http.StatusBadRequest, "invalid_length")
		return
	}

	catalog := req.Tracks
	if len(catalog) == 0 {
		var err error
		catalog, err = a.catalog.ListActive(r.Context(), "")
		if err != nil {
			a.logger.Error().Err(err).Msg("catalog load failed")
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
	}

	a.runGeneration(w, "", req.Spec, catalog, length)
}

// resolveLength reads the length query parameter, defaulting to one full
// slot cycle, and enforces the configured ceiling.
func (a *API) resolveLength(r *http.Request, spec sequence.Spec) (int, bool) {
	length := len(spec.Definitions)
	if raw := r.URL.Query().Get("length"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			return 0, false
		}
		length = parsed
	}
	if a.maxLength > 0 && length > a.maxLength {
		return 0, false
	}
	return length, true
}

// runGeneration executes one engine run and translates its outcome onto the
// wire, the metrics registry and the event bus.
func (a *API) runGeneration(w http.ResponseWriter, specID string, spec sequence.Spec, catalog []models.Track, length int) {
	start := time.Now()
	result, err := a.engine.Generate(spec, catalog, length)
	telemetry.SequenceRunDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		var verr *sequence.ValidationError
		switch {
		case errors.As(err, &verr):
			telemetry.SequenceRunsTotal.WithLabelValues("invalid_spec").Inc()
			writeValidationError(w, verr)
		case errors.Is(err, sequence.ErrNoEligibleTracks):
			telemetry.SequenceRunsTotal.WithLabelValues("empty_pool").Inc()
			a.publish(events.EventSequenceFailed, events.Payload{
				"spec_id": specID,
				"reason":  "empty_pool",
			})
			writeError(w, http.StatusConflict, "no_eligible_tracks")
		default:
			telemetry.SequenceRunsTotal.WithLabelValues("error").Inc()
			a.logger.Error().Err(err).Str("spec_id", specID).Msg("generation failed")
			writeError(w, http.StatusInternalServerError, "generation_failed")
		}
		return
	}

	telemetry.SequenceRunsTotal.WithLabelValues("ok").Inc()
	telemetry.SequencePoolSize.Observe(float64(result.PoolSize))
	if result.Degraded > 0 {
		telemetry.SequenceDegradedPositions.Add(float64(result.Degraded))
		a.publish(events.EventSequenceDegraded, events.Payload{
			"spec_id":  specID,
			"degraded": result.Degraded,
			"length":   length,
		})
	}
	a.publish(events.EventSequenceGenerated, events.Payload{
		"spec_id":   specID,
		"length":    length,
		"pool_size": result.PoolSize,
	})

	writeJSON(w, http.StatusOK, generateResponse{
		SpecID:   specID,
		Length:   length,
		TrackIDs: result.TrackIDs,
		Items:    result.Items,
		PoolSize: result.PoolSize,
		Degraded: result.Degraded,
	})
}

func (a *API) publish(eventType events.EventType, payload events.Payload) {
	if a.bus == nil {
		return
	}
	a.bus.Publish(eventType, payload)
}
