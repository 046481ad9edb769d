/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package sequence

import (
	"encoding/json"
	"testing"
)

// The JSON field names are a compatibility contract with the authoring tools;
// this pins the exact document shape.
func TestSpecWireContract(t *testing.T) {
	doc := `{
		"name": "evening wind-down",
		"description": "slow fade",
		"channel_id": "chan-1",
		"energy_tier": "low",
		"num_slots": 2,
		"recent_repeat_window": 3,
		"definitions": [
			{"index": 1, "targets": {"speed": 2, "valence": 6}, "boosts": [{"field": "speed", "mode": "distance-to-target", "weight": 2}]},
			{"index": 2, "targets": {"speed": 1}}
		],
		"rule_groups": [
			{"logic": "AND", "order": 0, "rules": [{"field": "genre", "operator": "in", "value": ["ambient", "classical"]}]}
		],
		"playback_continuation": "continue"
	}`

	var spec Spec
	if err := json.Unmarshal([]byte(doc), &spec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if spec.Name != "evening wind-down" || spec.ChannelID != "chan-1" || spec.EnergyTier != "low" {
		t.Fatalf("header fields lost: %+v", spec)
	}
	if spec.NumSlots != 2 || spec.RecentRepeatWindow != 3 {
		t.Fatalf("numeric fields lost: %+v", spec)
	}
	if len(spec.Definitions) != 2 || spec.Definitions[0].Targets["valence"] != 6 {
		t.Fatalf("definitions lost: %+v", spec.Definitions)
	}
	if spec.Definitions[0].Boosts[0].Mode != BoostModeDistance {
		t.Fatalf("boost mode lost: %+v", spec.Definitions[0].Boosts)
	}
	if len(spec.RuleGroups) != 1 || spec.RuleGroups[0].Rules[0].Operator != "in" {
		t.Fatalf("rule groups lost: %+v", spec.RuleGroups)
	}
	if spec.PlaybackContinuation != ContinuationContinue {
		t.Fatalf("continuation lost: %q", spec.PlaybackContinuation)
	}

	if err := Validate(spec); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestModelRoundTrip(t *testing.T) {
	spec := validSpec()

	model, err := ToModel(spec)
	if err != nil {
		t.Fatalf("ToModel: %v", err)
	}
	back, err := FromModel(model)
	if err != nil {
		t.Fatalf("FromModel: %v", err)
	}

	if back.Name != spec.Name || back.NumSlots != spec.NumSlots || back.RecentRepeatWindow != spec.RecentRepeatWindow {
		t.Fatalf("scalar fields diverged: %+v", back)
	}
	if len(back.Definitions) != len(spec.Definitions) {
		t.Fatalf("definitions diverged: %+v", back.Definitions)
	}
	if back.Definitions[1].Boosts[0].Weight != 2 {
		t.Fatalf("boost weight diverged: %+v", back.Definitions[1].Boosts)
	}
	if len(back.RuleGroups) != 1 || back.RuleGroups[0].Rules[0].Field != "genre" {
		t.Fatalf("rule groups diverged: %+v", back.RuleGroups)
	}
	if err := Validate(back); err != nil {
		t.Fatalf("round-tripped spec failed validation: %v", err)
	}
}
