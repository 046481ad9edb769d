/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package sequence

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/friendsincode/cadence/internal/models"
)

// ErrNoEligibleTracks indicates the rule groups resolved to an empty
// candidate pool. Callers must surface this distinctly from an empty result.
var ErrNoEligibleTracks = errors.New("no tracks match the spec's filter rules")

// Engine generates playback sequences from compiled specs. One run is a
// synchronous, pure computation over the resolved pool; concurrent runs are
// fully independent because all mutable state is per-run.
type Engine struct {
	logger zerolog.Logger
	scorer Scorer
}

// New creates a sequence engine.
func New(logger zerolog.Logger) *Engine {
	return NewWithScorer(logger, Scorer{})
}

// NewWithScorer creates an engine with a tuned scorer.
func NewWithScorer(logger zerolog.Logger, scorer Scorer) *Engine {
	return &Engine{logger: logger, scorer: scorer}
}

// Selection describes one emitted position, kept for preview tooling and
// degradation accounting.
type Selection struct {
	Position  int     `json:"position"`
	SlotIndex int     `json:"slot_index"`
	TrackID   string  `json:"track_id"`
	Score     float64 `json:"score"`
	Relaxed   bool    `json:"relaxed,omitempty"`
}

// Result is one completed generation run.
type Result struct {
	TrackIDs []string    `json:"track_ids"`
	Items    []Selection `json:"items"`
	PoolSize int         `json:"pool_size"`
	// Degraded counts positions where the recency window had to be relaxed
	// because it exhausted the eligible pool. Operators use it to tune
	// recent_repeat_window.
	Degraded int `json:"degraded"`
}

// Generate produces length positions from the spec against the given catalog
// snapshot. The pool is resolved once; each position scores every eligible
// candidate and emits the minimum-score track, breaking ties by catalog
// order so identical inputs always yield identical output.
func (e *Engine) Generate(spec Spec, catalog []models.Track, length int) (Result, error) {
	program, err := Compile(spec)
	if err != nil {
		return Result{}, err
	}
	return e.GenerateProgram(program, catalog, length)
}

// GenerateProgram runs an already-compiled program. Useful when one spec is
// generated from repeatedly.
func (e *Engine) GenerateProgram(program *Program, catalog []models.Track, length int) (Result, error) {
	pool := program.ResolvePool(catalog)
	if len(pool) == 0 {
		return Result{}, ErrNoEligibleTracks
	}
	if length <= 0 {
		return Result{PoolSize: len(pool)}, nil
	}

	window := newRecencyWindow(program.spec.RecentRepeatWindow)
	result := Result{
		TrackIDs: make([]string, 0, length),
		Items:    make([]Selection, 0, length),
		PoolSize: len(pool),
	}

	for position := 0; position < length; position++ {
		def := program.slotFor(position)

		best, ok := e.pickBest(pool, def, window)
		relaxed := false
		if !ok {
			// The window swallowed the whole pool. Repetition beats
			// silence: relax recency for this position only.
			relaxed = true
			result.Degraded++
			e.logger.Warn().
				Int("position", position).
				Int("pool_size", len(pool)).
				Int("window", program.spec.RecentRepeatWindow).
				Msg("recency window exhausted eligible pool, relaxing for this position")
			best, _ = e.pickBest(pool, def, nil)
		}

		result.TrackIDs = append(result.TrackIDs, best.track.ID)
		result.Items = append(result.Items, Selection{
			Position:  position,
			SlotIndex: def.Index,
			TrackID:   best.track.ID,
			Score:     best.score,
			Relaxed:   relaxed,
		})
		window.record(best.track.ID)
	}

	return result, nil
}

type scoredTrack struct {
	track models.Track
	score float64
}

// pickBest scans the pool in catalog order and keeps the strictly lowest
// score, so ties resolve to the earliest candidate. A nil window means
// recency is not consulted.
func (e *Engine) pickBest(pool []models.Track, def SlotDefinition, window *recencyWindow) (scoredTrack, bool) {
	var best scoredTrack
	found := false
	for _, t := range pool {
		if window != nil && !window.isEligible(t.ID) {
			continue
		}
		score := e.scorer.Score(t, def)
		if !found || score < best.score {
			best = scoredTrack{track: t, score: score}
			found = true
		}
	}
	return best, found
}
