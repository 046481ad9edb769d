/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package sequence

import (
	"fmt"
	"strings"

	"github.com/friendsincode/cadence/internal/models"
)

// ValidationError collects every configuration problem in a spec so the
// authoring caller can surface them all at once.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid sequence spec: " + strings.Join(e.Problems, "; ")
}

// Program is a validated, compiled spec ready for pool resolution and
// generation. Compiling once up front keeps every later step pure and cheap.
type Program struct {
	spec   Spec
	defs   []SlotDefinition
	groups []compiledGroup
}

// Compile validates the spec eagerly and returns the compiled program.
// Configuration errors are reported as a *ValidationError listing every
// violated field, before any generation begins.
func Compile(spec Spec) (*Program, error) {
	var problems []string

	if len(spec.Definitions) == 0 {
		problems = append(problems, "spec has no slot definitions")
	}
	if spec.NumSlots != 0 && spec.NumSlots != len(spec.Definitions) {
		problems = append(problems, fmt.Sprintf("num_slots is %d but %d definitions are present", spec.NumSlots, len(spec.Definitions)))
	}
	if spec.RecentRepeatWindow < 0 {
		problems = append(problems, fmt.Sprintf("recent_repeat_window must be >= 0, got %d", spec.RecentRepeatWindow))
	}
	switch spec.PlaybackContinuation {
	case "", ContinuationContinue:
	default:
		problems = append(problems, fmt.Sprintf("unknown playback_continuation %q", spec.PlaybackContinuation))
	}

	for _, def := range spec.Definitions {
		if len(def.Targets) == 0 {
			problems = append(problems, fmt.Sprintf("slot %d has no targets", def.Index))
		}
		for field := range def.Targets {
			if !models.IsFeatureField(strings.ToLower(field)) {
				problems = append(problems, fmt.Sprintf("slot %d targets unknown feature %q", def.Index, field))
			}
		}
		for _, boost := range def.Boosts {
			if boost.Weight <= 0 {
				problems = append(problems, fmt.Sprintf("slot %d boost on %q has non-positive weight %v", def.Index, boost.Field, boost.Weight))
			}
			switch boost.Mode {
			case "", BoostModeDistance:
			default:
				problems = append(problems, fmt.Sprintf("slot %d boost on %q has unknown mode %q", def.Index, boost.Field, boost.Mode))
			}
		}
	}

	var groups []compiledGroup
	for i, g := range spec.orderedRuleGroups() {
		cg, err := compileGroup(g)
		if err != nil {
			problems = append(problems, fmt.Sprintf("rule group %d: %v", i, err))
			continue
		}
		groups = append(groups, cg)
	}

	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	return &Program{
		spec:   spec,
		defs:   spec.orderedDefinitions(),
		groups: groups,
	}, nil
}

// Validate checks the spec without keeping the compiled form.
func Validate(spec Spec) error {
	_, err := Compile(spec)
	return err
}

// SlotCount returns the authored cycle length.
func (p *Program) SlotCount() int {
	return len(p.defs)
}

// slotFor maps an output position onto the cyclic slot list.
func (p *Program) slotFor(position int) SlotDefinition {
	return p.defs[position%len(p.defs)]
}
