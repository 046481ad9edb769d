/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package sequence

import (
	"testing"

	"github.com/friendsincode/cadence/internal/models"
)

func TestToFloat(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected float64
		ok       bool
	}{
		{"float64", float64(123.45), 123.45, true},
		{"float32", float32(2.5), 2.5, true},
		{"int", int(100), 100.0, true},
		{"int64", int64(200), 200.0, true},
		{"string", "42.5", 42.5, true},
		{"invalid string", "abc", 0, false},
		{"nil", nil, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := toFloat(tt.input)
			if ok != tt.ok {
				t.Fatalf("toFloat(%v) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && result != tt.expected {
				t.Errorf("toFloat(%v) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestToString(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
		ok       bool
	}{
		{"string", "hello", "hello", true},
		{"float64", float64(123.45), "123.45", true},
		{"int", int(42), "42", true},
		{"bool", true, "true", true},
		{"nil", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, ok := toString(tt.input)
			if ok != tt.ok {
				t.Fatalf("toString(%v) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && result != tt.expected {
				t.Errorf("toString(%v) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestCompileRuleRejectsTypeMismatches(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
	}{
		{"unknown operator", Rule{Field: "genre", Operator: "between", Value: "jazz"}},
		{"gte on string column", Rule{Field: "genre", Operator: "gte", Value: 3}},
		{"numeric field with string value", Rule{Field: "speed", Operator: "eq", Value: "fast"}},
		{"in with scalar value", Rule{Field: "genre", Operator: "in", Value: "jazz"}},
		{"in with empty list", Rule{Field: "genre", Operator: "in", Value: []any{}}},
		{"empty field", Rule{Field: "", Operator: "eq", Value: "x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := compileRule(tt.rule); err == nil {
				t.Fatalf("compileRule(%+v) should fail", tt.rule)
			}
		})
	}
}

func TestCompileRuleAcceptsTypedValues(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
	}{
		{"string eq", Rule{Field: "genre", Operator: "eq", Value: "jazz"}},
		{"numeric gte", Rule{Field: "tempo", Operator: "gte", Value: 120}},
		{"numeric gte from string", Rule{Field: "tempo", Operator: "gte", Value: "120"}},
		{"string in", Rule{Field: "genre", Operator: "in", Value: []any{"jazz", "soul"}}},
		{"numeric in", Rule{Field: "speed", Operator: "in", Value: []any{1.0, 2.0}}},
		{"metadata path eq", Rule{Field: "rights.label", Operator: "eq", Value: "blue note"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := compileRule(tt.rule); err != nil {
				t.Fatalf("compileRule(%+v): %v", tt.rule, err)
			}
		})
	}
}

func TestRuleMatchesFailsClosedOnUnresolvableField(t *testing.T) {
	track := models.Track{ID: "t1", Genre: "jazz"}

	rule, err := compileRule(Rule{Field: "rights.label", Operator: "eq", Value: "blue note"})
	if err != nil {
		t.Fatalf("compileRule: %v", err)
	}
	if rule.matches(track) {
		t.Fatal("rule on a missing metadata path must not match")
	}

	// gte against a feature the track never recorded is also a non-match.
	gte, err := compileRule(Rule{Field: "tempo", Operator: "gte", Value: 100})
	if err != nil {
		t.Fatalf("compileRule: %v", err)
	}
	if gte.matches(track) {
		t.Fatal("gte on an absent feature must not match")
	}
}

func TestRuleMatchesMetadataPath(t *testing.T) {
	track := models.Track{
		ID: "t1",
		Metadata: map[string]any{
			"rights": map[string]any{"label": "Blue Note"},
			"era":    "60s",
		},
	}

	tests := []struct {
		name  string
		rule  Rule
		match bool
	}{
		{"nested path", Rule{Field: "rights.label", Operator: "eq", Value: "blue note"}, true},
		{"top-level key", Rule{Field: "era", Operator: "eq", Value: "60s"}, true},
		{"neq on nested path", Rule{Field: "rights.label", Operator: "neq", Value: "verve"}, true},
		{"wrong value", Rule{Field: "era", Operator: "eq", Value: "70s"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := compileRule(tt.rule)
			if err != nil {
				t.Fatalf("compileRule: %v", err)
			}
			if got := rule.matches(track); got != tt.match {
				t.Errorf("matches() = %v, want %v", got, tt.match)
			}
		})
	}
}

func TestGroupLogic(t *testing.T) {
	track := models.Track{ID: "t1", Genre: "jazz", EnergyTier: "low"}

	andGroup, err := compileGroup(RuleGroup{Logic: "AND", Rules: []Rule{
		{Field: "genre", Operator: "eq", Value: "jazz"},
		{Field: "energy_tier", Operator: "eq", Value: "high"},
	}})
	if err != nil {
		t.Fatalf("compileGroup: %v", err)
	}
	if andGroup.matches(track) {
		t.Error("AND group with one failing rule must not match")
	}

	orGroup, err := compileGroup(RuleGroup{Logic: "OR", Rules: []Rule{
		{Field: "genre", Operator: "eq", Value: "jazz"},
		{Field: "energy_tier", Operator: "eq", Value: "high"},
	}})
	if err != nil {
		t.Fatalf("compileGroup: %v", err)
	}
	if !orGroup.matches(track) {
		t.Error("OR group with one passing rule must match")
	}

	if _, err := compileGroup(RuleGroup{Logic: "XOR", Rules: []Rule{{Field: "genre", Operator: "eq", Value: "jazz"}}}); err == nil {
		t.Error("unknown group logic should fail compilation")
	}
	if _, err := compileGroup(RuleGroup{Logic: "AND"}); err == nil {
		t.Error("empty rule group should fail compilation")
	}
}
