/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/friendsincode/cadence/internal/sequence"
	"github.com/friendsincode/cadence/internal/specstore"
)

// specResponse pairs a stored spec's identity with its authored document.
type specResponse struct {
	ID   string        `json:"id"`
	Spec sequence.Spec `json:"spec"`
}

func (a *API) handleSpecsCreate(w http.ResponseWriter, r *http.Request) {
	var spec sequence.Spec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if spec.Name == "" {
		writeError(w, http.StatusBadRequest, "name_required")
		return
	}

	// Reject configuration errors at write time, not at first playback.
	if err := sequence.Validate(spec); err != nil {
		var verr *sequence.ValidationError
		if errors.As(err, &verr) {
			writeValidationError(w, verr)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_spec")
		return
	}

	record, err := sequence.ToModel(spec)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_spec")
		return
	}

	if err := a.specs.Create(r.Context(), &record); err != nil {
		a.logger.Error().Err(err).Msg("spec create failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	writeJSON(w, http.StatusCreated, specResponse{ID: record.ID, Spec: spec})
}

func (a *API) handleSpecsList(w http.ResponseWriter, r *http.Request) {
	records, err := a.specs.List(r.Context())
	if err != nil {
		a.logger.Error().Err(err).Msg("spec list failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	out := make([]specResponse, 0, len(records))
	for _, record := range records {
		spec, err := sequence.FromModel(record)
		if err != nil {
			a.logger.Error().Err(err).Str("spec_id", record.ID).Msg("stored spec is unreadable")
			continue
		}
		out = append(out, specResponse{ID: record.ID, Spec: spec})
	}

	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleSpecsGet(w http.ResponseWriter, r *http.Request) {
	record, err := a.specs.Get(r.Context(), chi.URLParam(r, "specID"))
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
		a.logger.Error().Err(err).Str("spec_id", record.ID).Msg("stored spec is unreadable")
		writeError(w, http.StatusInternalServerError, "spec_corrupt")
		return
	}

	writeJSON(w, http.StatusOK, specResponse{ID: record.ID, Spec: spec})
}

func (a *API) handleSpecsUpdate(w http.ResponseWriter, r *http.Request) {
	var spec sequence.Spec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	if err := sequence.Validate(spec); err != nil {
		var verr *sequence.ValidationError
		if errors.As(err, &verr) {
			writeValidationError(w, verr)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid_spec")
		return
	}

	record, err := sequence.ToModel(spec)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_spec")
		return
	}
	record.ID = chi.URLParam(r, "specID")

	if err := a.specs.Update(r.Context(), &record); err != nil {
		if errors.Is(err, specstore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "spec_not_found")
			return
		}
		a.logger.Error().Err(err).Msg("spec update failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	writeJSON(w, http.StatusOK, specResponse{ID: record.ID, Spec: spec})
}

func (a *API) handleSpecsDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "specID")
	if err := a.specs.Delete(r.Context(), id); err != nil {
		if errors.Is(err, specstore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "spec_not_found")
			return
		}
		a.logger.Error().Err(err).Msg("spec delete failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
