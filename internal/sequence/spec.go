/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package sequence implements the slot-based sequence generation engine: a
// deterministic weighted nearest-neighbour selector that turns an authored
// spec (slot targets + catalog filter rules) into an ordered track sequence.
package sequence

import (
	"encoding/json"
	"sort"

	"github.com/friendsincode/cadence/internal/models"
)

// ContinuationContinue wraps the slot list indefinitely. It is the only
// continuation policy with defined behaviour today.
const ContinuationContinue = "continue"

// BoostModeDistance scales a field's distance-to-target contribution.
const BoostModeDistance = "distance-to-target"

// Spec is one authored program: an ordered, cyclically reused list of slot
// templates plus the rules that carve the candidate pool out of the catalog.
// Field names are the persisted contract shared with the authoring tools.
type Spec struct {
	Name                 string           `json:"name" yaml:"name"`
	Description          string           `json:"description,omitempty" yaml:"description,omitempty"`
	ChannelID            string           `json:"channel_id,omitempty" yaml:"channel_id,omitempty"`
	EnergyTier           string           `json:"energy_tier,omitempty" yaml:"energy_tier,omitempty"`
	NumSlots             int              `json:"num_slots" yaml:"num_slots"`
	RecentRepeatWindow   int              `json:"recent_repeat_window" yaml:"recent_repeat_window"`
	Definitions          []SlotDefinition `json:"definitions" yaml:"definitions"`
	RuleGroups           []RuleGroup      `json:"rule_groups,omitempty" yaml:"rule_groups,omitempty"`
	PlaybackContinuation string           `json:"playback_continuation,omitempty" yaml:"playback_continuation,omitempty"`
}

// SlotDefinition is one position template. Index is 1-based; only fields
// present in Targets participate in scoring.
type SlotDefinition struct {
	Index   int                `json:"index" yaml:"index"`
	Targets map[string]float64 `json:"targets" yaml:"targets"`
	Boosts  []Boost            `json:"boosts,omitempty" yaml:"boosts,omitempty"`
}

// Boost sets the relative importance of one target field.
type Boost struct {
	Field  string  `json:"field" yaml:"field"`
	Mode   string  `json:"mode,omitempty" yaml:"mode,omitempty"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// boostWeight returns the multiplier for field, defaulting to 1 when no
// boost names it.
func (d SlotDefinition) boostWeight(field string) float64 {
	for _, b := range d.Boosts {
		if b.Field == field {
			return b.Weight
		}
	}
	return 1
}

// RuleGroup combines its rules with AND or OR. A candidate is eligible when
// any group of the spec is satisfied.
type RuleGroup struct {
	Logic string `json:"logic" yaml:"logic"`
	Order int    `json:"order" yaml:"order"`
	Rules []Rule `json:"rules" yaml:"rules"`
}

// Rule compares one track field against a value. Value arrives untyped from
// JSON/YAML; validation resolves it into a typed comparison (see compile.go).
type Rule struct {
	Field    string `json:"field" yaml:"field"`
	Operator string `json:"operator" yaml:"operator"`
	Value    any    `json:"value" yaml:"value"`
}

// orderedDefinitions returns the slot list sorted by authored index so the
// cyclic position mapping never depends on storage order.
func (s Spec) orderedDefinitions() []SlotDefinition {
	defs := append([]SlotDefinition(nil), s.Definitions...)
	sort.SliceStable(defs, func(i, j int) bool { return defs[i].Index < defs[j].Index })
	return defs
}

// orderedRuleGroups returns the rule groups sorted by their ordering index.
func (s Spec) orderedRuleGroups() []RuleGroup {
	groups := append([]RuleGroup(nil), s.RuleGroups...)
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Order < groups[j].Order })
	return groups
}

// FromModel decodes a stored SequenceSpec row into an engine Spec.
func FromModel(m models.SequenceSpec) (Spec, error) {
	spec := Spec{
		Name:                 m.Name,
		Description:          m.Description,
		ChannelID:            m.ChannelID,
		EnergyTier:           m.EnergyTier,
		NumSlots:             m.NumSlots,
		RecentRepeatWindow:   m.RecentRepeatWindow,
		PlaybackContinuation: m.PlaybackContinuation,
	}

	if err := roundTrip(m.Definitions, &spec.Definitions); err != nil {
		return Spec{}, err
	}
	if err := roundTrip(m.RuleGroups, &spec.RuleGroups); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

// ToModel encodes an engine Spec into its stored representation. The caller
// owns ID and timestamps.
func ToModel(spec Spec) (models.SequenceSpec, error) {
	m := models.SequenceSpec{
		Name:                 spec.Name,
		Description:          spec.Description,
		ChannelID:            spec.ChannelID,
		EnergyTier:           spec.EnergyTier,
		NumSlots:             spec.NumSlots,
		RecentRepeatWindow:   spec.RecentRepeatWindow,
		PlaybackContinuation: spec.PlaybackContinuation,
	}

	if err := roundTrip(spec.Definitions, &m.Definitions); err != nil {
		return models.SequenceSpec{}, err
	}
	if err := roundTrip(spec.RuleGroups, &m.RuleGroups); err != nil {
		return models.SequenceSpec{}, err
	}
	return m, nil
}

func roundTrip(src, dest any) error {
	raw, err := json.Marshal(src)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
