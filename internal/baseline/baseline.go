// Package baseline holds league/season/position reference distributions and
// turns per-90 values into z-scores behind confidence guardrails.
package baseline

import (
	"fmt"
	"math"
	"sort"

	"github.com/albapepper/footiq/internal/diag"
	"github.com/albapepper/footiq/internal/metric"
)

// MinSample is the smallest baseline n that may produce a z-score.
const MinSample = 30

// AllPositions is the position group covering every outfield position.
const AllPositions = "all_positions"

// Entry is one reference distribution.
type Entry struct {
	League    string     `json:"league"`
	Season    string     `json:"season"`
	Position  string     `json:"position_group"`
	MetricKey metric.Key `json:"metric_key"`
	Mean      float64    `json:"mean"`
	Std       float64    `json:"std"`
	N         int        `json:"n"`
}

type entryKey struct {
	league, season, position string
	metric                   metric.Key
}

func keyOf(e Entry) entryKey {
	return entryKey{e.League, e.Season, e.Position, e.MetricKey}
}

// Table is an immutable set of baseline entries. The zero value is empty.
type Table struct {
	entries map[entryKey]Entry
	source  string
}

// NewTable builds a table; later duplicates replace earlier ones.
func NewTable(source string, entries []Entry) *Table {
	t := &Table{entries: make(map[entryKey]Entry, len(entries)), source: source}
	for _, e := range entries {
		t.entries[keyOf(e)] = e
	}
	return t
}

// Source describes where the table was loaded from.
func (t *Table) Source() string {
	if t == nil {
		return ""
	}
	return t.source
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Lookup finds the entry for one metric in one context.
func (t *Table) Lookup(league, season, position string, key metric.Key) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	e, ok := t.entries[entryKey{league, season, position, key}]
	return e, ok
}

// Entries returns all entries sorted by league, season, position, metric.
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.League != b.League {
			return a.League < b.League
		}
		if a.Season != b.Season {
			return a.Season < b.Season
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return a.MetricKey < b.MetricKey
	})
	return out
}

// --------------------------------------------------------------------------
// Comparison
// --------------------------------------------------------------------------

// Comparison is a per-90 value set against a baseline. ZScore is only set
// when RawPer90 is set and a usable baseline exists.
type Comparison struct {
	MetricKey      metric.Key `json:"metric_key"`
	RawPer90       *float64   `json:"raw_per90"`
	ZScore         *float64   `json:"z_score"`
	BaselineUsed   bool       `json:"baseline_used"`
	Interpretation string     `json:"interpretation"`
}

// Compare converts per90 into a z-score. A missing entry, zero variance, a
// negative or non-finite std or n below MinSample each disable the z-score and return the raw value with
// a BASELINE_MISSING diagnostic. A nil per90 yields an empty comparison and
// no diagnostic.
func (t *Table) Compare(key metric.Key, per90 *float64, league, season, position string) (Comparison, *diag.Diagnostic) {
	c := Comparison{MetricKey: key, Interpretation: Interpret(nil)}
	if per90 == nil {
		return c, nil
	}
	raw := *per90
	c.RawPer90 = &raw

	ctx := map[string]any{
		"fallback":   "raw_per90",
		"league":     league,
		"season":     season,
		"position":   position,
		"metric_key": string(key),
	}

	e, ok := t.Lookup(league, season, position, key)
	if !ok {
		ctx["reason"] = "not_found"
		d := diag.New(diag.BaselineMissing, ctx,
			"No baseline for %s in %s/%s/%s. Returning raw per-90.", key, league, season, position)
		return c, &d
	}
	if e.Std == 0 {
		ctx["reason"] = "zero_variance"
		d := diag.New(diag.BaselineMissing, ctx,
			"Cannot compute z-score: zero variance for %s. Returning raw per-90.", key)
		return c, &d
	}
	if !(e.Std > 0) || math.IsInf(e.Std, 0) {
		ctx["reason"] = "invalid_std"
		ctx["std"] = e.Std
		d := diag.New(diag.BaselineMissing, ctx,
			"Cannot compute z-score: invalid std %g for %s. Returning raw per-90.", e.Std, key)
		return c, &d
	}
	if e.N < MinSample {
		ctx["reason"] = "low_sample"
		ctx["n"] = e.N
		d := diag.New(diag.BaselineMissing, ctx,
			"Cannot compute z-score: insufficient sample (n=%d) for %s. Returning raw per-90.", e.N, key)
		return c, &d
	}

	z := (raw - e.Mean) / e.Std
	c.ZScore = &z
	c.BaselineUsed = true
	c.Interpretation = Interpret(&z)
	return c, nil
}

// Interpret renders a z-score for narration.
func Interpret(z *float64) string {
	if z == nil {
		return "unavailable"
	}
	abs := math.Abs(*z)
	dir := "below"
	if *z > 0 {
		dir = "above"
	}
	switch {
	case abs >= 3:
		return fmt.Sprintf("Extraordinary (%s average)", dir)
	case abs >= 2:
		return fmt.Sprintf("Exceptional (%s average)", dir)
	case abs >= 1:
		return fmt.Sprintf("Notably %s average", dir)
	case abs >= 0.5:
		return fmt.Sprintf("Slightly %s average", dir)
	default:
		return "Average"
	}
}
