// Package quality scores collected records for completeness, validity and
// internal consistency. The score gates whether a record is retained.
package quality

import (
	"strconv"

	"github.com/fooddesert/tract-agent/internal/tract"
)

// Penalty points deducted from the 100-point base per failed check.
const (
	missingFieldPenalty  = 20
	outOfRangePenalty    = 15
	nonNumericPenalty    = 10
	inconsistencyPenalty = 20
)

// Consistency is checked between these two fields: a rate derived from a
// population must land in [0,100].
const (
	populationField = "total_population"
	rateField       = "poverty_rate"
)

// Range bounds the plausible values of one numeric field.
type Range struct {
	Min float64
	Max float64
}

// Assessor evaluates records against a configured required-field list and
// per-field valid ranges.
type Assessor struct {
	required []string
	ranges   map[string]Range
}

// New builds an Assessor.
func New(required []string, ranges map[string]Range) *Assessor {
	return &Assessor{required: required, ranges: ranges}
}

// Score rates a record on [0,1]. Checks are applied unconditionally in one
// pass; a field can be penalized by more than one check. Within the range
// check, coercion failure takes precedence: a non-numeric value costs 10
// points and the bounds are not consulted.
func (a *Assessor) Score(rec tract.Record) float64 {
	score := 100.0

	for _, field := range a.required {
		if v, ok := rec[field]; !ok || v == nil {
			score -= missingFieldPenalty
		}
	}

	for field, bounds := range a.ranges {
		v, ok := rec[field]
		if !ok || v == nil {
			continue
		}
		f, numeric := toFloat(v)
		if !numeric {
			score -= nonNumericPenalty
			continue
		}
		if f < bounds.Min || f > bounds.Max {
			score -= outOfRangePenalty
		}
	}

	if pop, ok := rec[populationField]; ok && pop != nil {
		if rate, ok := rec[rateField]; ok && rate != nil {
			if r, numeric := toFloat(rate); numeric && (r < 0 || r > 100) {
				score -= inconsistencyPenalty
			}
		}
	}

	if score < 0 {
		score = 0
	}
	return score / 100.0
}

// toFloat coerces the scalar types a Record can hold into a float64.
func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		return f, err == nil
	default:
		return 0, false
	}
}
