/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package sequence

import (
	"math"

	"github.com/friendsincode/cadence/internal/models"
)

// DefaultMissingFeaturePenalty is charged for each target field the track
// has no value for. It equals the span of the 0-10 feature scale — the
// maximum plausible per-field distance — so incomplete tracks never outrank
// fully analysed ones by omission.
const DefaultMissingFeaturePenalty = 10.0

// Scorer computes the weighted distance between a track and a slot's target
// profile. Lower is better. This is the single canonical scorer: preview and
// production paths both use it.
type Scorer struct {
	// MissingFeaturePenalty replaces the per-field distance when the track
	// lacks a target feature. Zero means DefaultMissingFeaturePenalty.
	MissingFeaturePenalty float64
}

// Score accumulates |track[field] - target| x boost weight over the slot's
// target fields. Fields absent on the track contribute the missing-feature
// penalty (also boosted) instead of being skipped.
func (s Scorer) Score(t models.Track, def SlotDefinition) float64 {
	penalty := s.MissingFeaturePenalty
	if penalty == 0 {
		penalty = DefaultMissingFeaturePenalty
	}

	total := 0.0
	for field, target := range def.Targets {
		weight := def.boostWeight(field)
		if value, ok := t.Feature(field); ok {
			total += math.Abs(value-target) * weight
		} else {
			total += penalty * weight
		}
	}
	return total
}
