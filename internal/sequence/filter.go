/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package sequence

import "github.com/friendsincode/cadence/internal/models"

// ResolvePool evaluates the spec's rule groups against the catalog and
// returns the candidate pool in catalog order. A track is eligible when any
// group matches it; with no rule groups the whole catalog is the pool — a
// spec's channel and energy tier are descriptive metadata, never an implicit
// filter. Soft-deleted tracks are excluded by the catalog read, not here.
func (p *Program) ResolvePool(catalog []models.Track) []models.Track {
	if len(p.groups) == 0 {
		return append([]models.Track(nil), catalog...)
	}

	pool := make([]models.Track, 0, len(catalog))
	for _, t := range catalog {
		for _, g := range p.groups {
			if g.matches(t) {
				pool = append(pool, t)
				break
			}
		}
	}
	return pool
}
