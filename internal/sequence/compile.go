/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package sequence

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/friendsincode/cadence/internal/models"
)

// Operator names accepted in rule documents.
const (
	OpEq  = "eq"
	OpNeq = "neq"
	OpGte = "gte"
	OpLte = "lte"
	OpIn  = "in"
)

type fieldKind int

const (
	// kindDynamic covers metadata paths whose type is only known per track.
	kindDynamic fieldKind = iota
	kindNumber
	kindString
)

var stringColumns = map[string]struct{}{
	"id":          {},
	"title":       {},
	"artist":      {},
	"album":       {},
	"genre":       {},
	"channel_id":  {},
	"energy_tier": {},
}

func fieldKindOf(field string) fieldKind {
	key := strings.ToLower(field)
	if models.IsFeatureField(key) {
		return kindNumber
	}
	if _, ok := stringColumns[key]; ok {
		return kindString
	}
	return kindDynamic
}

// typedValue is the tagged operand a rule resolves to at validation time.
// Exactly one arm is populated, selected by the operator and field schema.
type typedValue struct {
	num     float64
	str     string
	strSet  []string
	numSet  []float64
	numeric bool
	isSet   bool
}

// compiledRule is a schema-checked rule ready for evaluation. Evaluation is
// fail-closed: anything that does not resolve on a track is a non-match.
type compiledRule struct {
	field string
	op    string
	val   typedValue
}

// compiledGroup evaluates its rules with AND or OR.
type compiledGroup struct {
	all   bool
	rules []compiledRule
}

func compileRule(r Rule) (compiledRule, error) {
	op := strings.ToLower(strings.TrimSpace(r.Operator))
	field := strings.ToLower(strings.TrimSpace(r.Field))
	if field == "" {
		return compiledRule{}, fmt.Errorf("rule has empty field")
	}

	kind := fieldKindOf(field)
	out := compiledRule{field: field, op: op}

	switch op {
	case OpGte, OpLte:
		if kind == kindString {
			return compiledRule{}, fmt.Errorf("field %q is not numeric, operator %q requires a numeric field", field, op)
		}
		num, ok := toFloat(r.Value)
		if !ok {
			return compiledRule{}, fmt.Errorf("rule on %q: %q requires a numeric value, got %v", field, op, r.Value)
		}
		out.val = typedValue{num: num, numeric: true}

	case OpEq, OpNeq:
		switch kind {
		case kindNumber:
			num, ok := toFloat(r.Value)
			if !ok {
				return compiledRule{}, fmt.Errorf("rule on %q: expected a numeric value, got %v", field, r.Value)
			}
			out.val = typedValue{num: num, numeric: true}
		case kindString:
			s, ok := toString(r.Value)
			if !ok {
				return compiledRule{}, fmt.Errorf("rule on %q: expected a string value, got %v", field, r.Value)
			}
			out.val = typedValue{str: s}
		default:
			// Metadata path: keep whichever representation the value has.
			if num, ok := toFloat(r.Value); ok {
				out.val = typedValue{num: num, numeric: true}
			} else if s, ok := toString(r.Value); ok {
				out.val = typedValue{str: s}
			} else {
				return compiledRule{}, fmt.Errorf("rule on %q: unsupported value %v", field, r.Value)
			}
		}

	case OpIn:
		items, ok := toSlice(r.Value)
		if !ok || len(items) == 0 {
			return compiledRule{}, fmt.Errorf("rule on %q: %q requires a non-empty list value", field, OpIn)
		}
		if kind == kindNumber {
			nums := make([]float64, 0, len(items))
			for _, item := range items {
				num, ok := toFloat(item)
				if !ok {
					return compiledRule{}, fmt.Errorf("rule on %q: list contains non-numeric value %v", field, item)
				}
				nums = append(nums, num)
			}
			out.val = typedValue{numSet: nums, numeric: true, isSet: true}
		} else {
			strs := make([]string, 0, len(items))
			for _, item := range items {
				s, ok := toString(item)
				if !ok {
					return compiledRule{}, fmt.Errorf("rule on %q: list contains unsupported value %v", field, item)
				}
				strs = append(strs, s)
			}
			out.val = typedValue{strSet: strs, isSet: true}
		}

	default:
		return compiledRule{}, fmt.Errorf("unknown operator %q", r.Operator)
	}

	return out, nil
}

func compileGroup(g RuleGroup) (compiledGroup, error) {
	logic := strings.ToUpper(strings.TrimSpace(g.Logic))
	out := compiledGroup{}
	switch logic {
	case "AND", "":
		out.all = true
	case "OR":
		out.all = false
	default:
		return compiledGroup{}, fmt.Errorf("unknown group logic %q", g.Logic)
	}

	if len(g.Rules) == 0 {
		return compiledGroup{}, fmt.Errorf("rule group has no rules")
	}
	for _, r := range g.Rules {
		cr, err := compileRule(r)
		if err != nil {
			return compiledGroup{}, err
		}
		out.rules = append(out.rules, cr)
	}
	return out, nil
}

func (g compiledGroup) matches(t models.Track) bool {
	for _, r := range g.rules {
		ok := r.matches(t)
		if g.all && !ok {
			return false
		}
		if !g.all && ok {
			return true
		}
	}
	return g.all
}

func (r compiledRule) matches(t models.Track) bool {
	raw, ok := t.FieldValue(r.field)
	if !ok {
		return false
	}

	switch r.op {
	case OpGte:
		num, ok := toFloat(raw)
		return ok && num >= r.val.num
	case OpLte:
		num, ok := toFloat(raw)
		return ok && num <= r.val.num
	case OpEq:
		return valueEquals(raw, r.val)
	case OpNeq:
		return !valueEquals(raw, r.val)
	case OpIn:
		if r.val.numeric {
			num, ok := toFloat(raw)
			if !ok {
				return false
			}
			for _, candidate := range r.val.numSet {
				if num == candidate {
					return true
				}
			}
			return false
		}
		s, ok := toString(raw)
		if !ok {
			return false
		}
		for _, candidate := range r.val.strSet {
			if strings.EqualFold(s, candidate) {
				return true
			}
		}
		return false
	}
	return false
}

func valueEquals(raw any, val typedValue) bool {
	if val.numeric {
		num, ok := toFloat(raw)
		return ok && num == val.num
	}
	s, ok := toString(raw)
	return ok && strings.EqualFold(s, val.str)
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toString(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case fmt.Stringer:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case int:
		return strconv.Itoa(v), true
	}
	return "", false
}

func toSlice(value any) ([]any, bool) {
	switch v := value.(type) {
	case []any:
		return v, true
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	case []float64:
		out := make([]any, len(v))
		for i, f := range v {
			out[i] = f
		}
		return out, true
	}
	return nil, false
}
