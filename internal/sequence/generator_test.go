/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package sequence

import (
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/friendsincode/cadence/internal/models"
)

// threeTrackCatalog is the A/B/C fixture used throughout: one track below,
// one at, and one above the slot targets.
func threeTrackCatalog() []models.Track {
	return []models.Track{
		{ID: "A", Speed: feature(1), Intensity: feature(1)},
		{ID: "B", Speed: feature(3), Intensity: feature(3)},
		{ID: "C", Speed: feature(5), Intensity: feature(5)},
	}
}

func midSlotSpec(window int) Spec {
	return Spec{
		Name:               "mid energy",
		NumSlots:           1,
		RecentRepeatWindow: window,
		Definitions: []SlotDefinition{{
			Index:   1,
			Targets: map[string]float64{"speed": 3, "intensity": 3},
			Boosts: []Boost{
				{Field: "speed", Mode: BoostModeDistance, Weight: 2},
				{Field: "intensity", Mode: BoostModeDistance, Weight: 1},
			},
		}},
	}
}

func TestGenerateSelectsMinimumScore(t *testing.T) {
	engine := New(zerolog.Nop())

	result, err := engine.Generate(midSlotSpec(0), threeTrackCatalog(), 1)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(result.TrackIDs) != 1 || result.TrackIDs[0] != "B" {
		t.Fatalf("Generate picked %v, want [B]", result.TrackIDs)
	}
	if result.Items[0].Score != 0 {
		t.Errorf("B should score 0, got %v", result.Items[0].Score)
	}
}

func TestGenerateExcludesRecentAndBreaksTiesByCatalogOrder(t *testing.T) {
	engine := New(zerolog.Nop())

	result, err := engine.Generate(midSlotSpec(1), threeTrackCatalog(), 2)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	// Position 0 takes B. Position 1 must exclude B; A and C tie at 6 and
	// the earlier catalog entry wins.
	want := []string{"B", "A"}
	if !reflect.DeepEqual(result.TrackIDs, want) {
		t.Fatalf("Generate = %v, want %v", result.TrackIDs, want)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	engine := New(zerolog.Nop())
	spec := midSlotSpec(1)
	catalog := threeTrackCatalog()

	first, err := engine.Generate(spec, catalog, 12)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for run := 0; run < 5; run++ {
		again, err := engine.Generate(spec, catalog, 12)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		if !reflect.DeepEqual(first.TrackIDs, again.TrackIDs) {
			t.Fatalf("run %d diverged: %v != %v", run, again.TrackIDs, first.TrackIDs)
		}
	}
}

func TestGenerateNoRepeatWithinWindow(t *testing.T) {
	catalog := []models.Track{
		{ID: "a", Tempo: feature(100)},
		{ID: "b", Tempo: feature(110)},
		{ID: "c", Tempo: feature(120)},
		{ID: "d", Tempo: feature(130)},
		{ID: "e", Tempo: feature(140)},
	}
	const window = 3
	spec := Spec{
		Name:               "tempo ladder",
		RecentRepeatWindow: window,
		Definitions: []SlotDefinition{
			{Index: 1, Targets: map[string]float64{"tempo": 100}},
			{Index: 2, Targets: map[string]float64{"tempo": 140}},
		},
	}

	result, err := New(zerolog.Nop()).Generate(spec, catalog, 40)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if result.Degraded != 0 {
		t.Fatalf("pool of 5 with window 3 must never degrade, got %d", result.Degraded)
	}

	ids := result.TrackIDs
	for start := 0; start+window < len(ids); start++ {
		seen := map[string]int{}
		for _, id := range ids[start : start+window+1] {
			seen[id]++
			if seen[id] > 1 {
				t.Fatalf("track %s repeated within window starting at %d: %v", id, start, ids[start:start+window+1])
			}
		}
	}
}

func TestGenerateCyclicSlotReuse(t *testing.T) {
	spec := Spec{
		Name: "three slot cycle",
		Definitions: []SlotDefinition{
			{Index: 1, Targets: map[string]float64{"tempo": 100}},
			{Index: 2, Targets: map[string]float64{"tempo": 120}},
			{Index: 3, Targets: map[string]float64{"tempo": 140}},
		},
	}
	catalog := []models.Track{{ID: "only", Tempo: feature(120)}}

	result, err := New(zerolog.Nop()).Generate(spec, catalog, 9)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for position, item := range result.Items {
		wantIndex := position%3 + 1
		if item.SlotIndex != wantIndex {
			t.Errorf("position %d applied slot %d, want %d", position, item.SlotIndex, wantIndex)
		}
	}
}

func TestGenerateScoreMinimality(t *testing.T) {
	catalog := []models.Track{
		{ID: "a", Speed: feature(1), Valence: feature(8)},
		{ID: "b", Speed: feature(4), Valence: feature(2)},
		{ID: "c", Speed: feature(7)},
		{ID: "d", Speed: feature(5), Valence: feature(5)},
	}
	spec := Spec{
		Name:               "minimality",
		RecentRepeatWindow: 1,
		Definitions: []SlotDefinition{{
			Index:   1,
			Targets: map[string]float64{"speed": 5, "valence": 5},
			Boosts:  []Boost{{Field: "speed", Weight: 2}},
		}},
	}

	engine := New(zerolog.Nop())
	result, err := engine.Generate(spec, catalog, 8)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	scorer := Scorer{}
	window := newRecencyWindow(spec.RecentRepeatWindow)
	for _, item := range result.Items {
		def := spec.Definitions[0]
		for _, cand := range catalog {
			if !window.isEligible(cand.ID) {
				continue
			}
			if scorer.Score(cand, def) < item.Score {
				t.Fatalf("position %d chose %s (score %v) but %s scores lower", item.Position, item.TrackID, item.Score, cand.ID)
			}
		}
		window.record(item.TrackID)
	}
}

func TestGenerateEmptyPoolFails(t *testing.T) {
	spec := midSlotSpec(0)
	spec.RuleGroups = []RuleGroup{{
		Logic: "AND",
		Rules: []Rule{{Field: "channel_id", Operator: "eq", Value: "X"}},
	}}

	_, err := New(zerolog.Nop()).Generate(spec, threeTrackCatalog(), 4)
	if !errors.Is(err, ErrNoEligibleTracks) {
		t.Fatalf("expected ErrNoEligibleTracks, got %v", err)
	}
}

func TestGenerateRelaxesWindowOnlyWhenNecessary(t *testing.T) {
	// Window larger than the pool: every position past the pool size must
	// fall back rather than fail, and only those positions may degrade.
	catalog := []models.Track{
		{ID: "x", Speed: feature(2)},
		{ID: "y", Speed: feature(4)},
	}
	spec := Spec{
		Name:               "window too large",
		RecentRepeatWindow: 5,
		Definitions:        []SlotDefinition{{Index: 1, Targets: map[string]float64{"speed": 3}}},
	}

	result, err := New(zerolog.Nop()).Generate(spec, catalog, 6)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(result.TrackIDs) != 6 {
		t.Fatalf("expected a full sequence, got %d items", len(result.TrackIDs))
	}
	// First two positions drain the pool without fallback; the rest must
	// relax exactly once each.
	if result.Items[0].Relaxed || result.Items[1].Relaxed {
		t.Fatal("fallback exercised before the window exhausted the pool")
	}
	if result.Degraded != 4 {
		t.Fatalf("Degraded = %d, want 4", result.Degraded)
	}
}

func TestGenerateFilterSoundness(t *testing.T) {
	catalog := []models.Track{
		{ID: "jazz-low", Genre: "jazz", EnergyTier: "low", Speed: feature(2)},
		{ID: "jazz-high", Genre: "jazz", EnergyTier: "high", Speed: feature(8)},
		{ID: "rock-high", Genre: "rock", EnergyTier: "high", Speed: feature(9)},
		{ID: "ambient", Genre: "ambient", EnergyTier: "low", Speed: feature(1)},
	}
	spec := Spec{
		Name: "jazz or anything high energy",
		RuleGroups: []RuleGroup{
			{Logic: "AND", Order: 0, Rules: []Rule{{Field: "genre", Operator: "eq", Value: "jazz"}}},
			{Logic: "AND", Order: 1, Rules: []Rule{{Field: "energy_tier", Operator: "eq", Value: "high"}}},
		},
		RecentRepeatWindow: 2,
		Definitions:        []SlotDefinition{{Index: 1, Targets: map[string]float64{"speed": 5}}},
	}

	result, err := New(zerolog.Nop()).Generate(spec, catalog, 12)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, id := range result.TrackIDs {
		if id == "ambient" {
			t.Fatal("track excluded by every rule group appeared in output")
		}
	}
	if result.PoolSize != 3 {
		t.Fatalf("PoolSize = %d, want 3", result.PoolSize)
	}
}

func TestGenerateZeroLength(t *testing.T) {
	result, err := New(zerolog.Nop()).Generate(midSlotSpec(0), threeTrackCatalog(), 0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(result.TrackIDs) != 0 {
		t.Fatalf("length 0 must produce an empty sequence, got %v", result.TrackIDs)
	}
}
