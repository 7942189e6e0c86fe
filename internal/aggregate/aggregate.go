// Package aggregate combines extracted per-game values across a window.
//
// Rates are always built from sums (Σvalue / Σminutes, Σnum / Σden), never
// from an average of per-game rates.
package aggregate

import (
	"github.com/albapepper/footiq/internal/diag"
	"github.com/albapepper/footiq/internal/extract"
	"github.com/albapepper/footiq/internal/metric"
)

// Sample is one game's value for a metric plus the minutes played in it.
type Sample struct {
	Value   extract.Value
	Minutes float64
}

// Metric is one metric aggregated over a window.
type Metric struct {
	Key          metric.Key       `json:"metric_key"`
	Rule         metric.Per90Rule `json:"per90_rule"`
	SumValue     float64          `json:"sum_value"`
	SumMinutes   float64          `json:"sum_minutes"`
	GamesCounted int              `json:"games_counted"`
	MissingGames int              `json:"missing_games"`

	// Per90 is the per-90 rate, or the ratio itself for weighted_ratio
	// metrics. Nil below the minutes gate or on a zero denominator.
	Per90 *float64 `json:"per90_value"`

	// SumDenominator is only set for weighted_ratio metrics.
	SumDenominator float64 `json:"sum_denominator,omitempty"`
}

// Total is the window total. It is nil when no game reported a value or
// when any game in the window was missing, since a partial sum is not a
// window total. For weighted_ratio metrics it is the ratio.
func (m Metric) Total() *float64 {
	if m.Rule == metric.WeightedRatio {
		return m.Per90
	}
	if m.GamesCounted == 0 || m.MissingGames > 0 {
		return nil
	}
	v := m.SumValue
	return &v
}

// Mean is the per-game average over games with a value. Only meaningful for
// already-normalized metrics such as ratings.
func (m Metric) Mean() *float64 {
	if m.GamesCounted == 0 || m.Rule == metric.WeightedRatio {
		return nil
	}
	v := m.SumValue / float64(m.GamesCounted)
	return &v
}

// Aggregate sums samples for key. Minutes only count for games whose value is
// present. per90_by_minutes metrics are gated on metric.MinMinutesPer90;
// metrics with rule none pass through with no per-90.
func Aggregate(key metric.Key, samples []Sample) (Metric, []diag.Diagnostic, error) {
	def, ok := metric.Get(key)
	if !ok {
		return Metric{}, nil, &extract.UnregisteredMetricError{Key: key}
	}
	if def.Per90 == metric.WeightedRatio {
		return Metric{}, nil, &RuleError{Key: key, Rule: def.Per90}
	}

	m := Metric{Key: key, Rule: def.Per90}
	for _, s := range samples {
		if s.Value.Value == nil {
			m.MissingGames++
			continue
		}
		m.SumValue += *s.Value.Value
		m.SumMinutes += s.Minutes
		m.GamesCounted++
	}

	var ds []diag.Diagnostic
	if m.GamesCounted == 0 {
		ds = append(ds, unavailable(key, len(samples), "no_data"))
		return m, ds, nil
	}

	if def.Per90 != metric.Per90ByMinutes {
		return m, nil, nil
	}
	if m.SumMinutes < metric.MinMinutesPer90 {
		ds = append(ds, diag.New(diag.InsufficientMinutes,
			map[string]any{
				"metric_key":    string(key),
				"total_minutes": m.SumMinutes,
				"threshold":     metric.MinMinutesPer90,
			},
			"Total minutes (%g) below threshold (%d) for %s", m.SumMinutes, metric.MinMinutesPer90, key))
		return m, ds, nil
	}
	p := m.SumValue / m.SumMinutes * 90
	m.Per90 = &p
	return m, nil, nil
}

// Ratio computes a weighted_ratio metric as Σnum / Σden. Values are paired
// by game ID; a game where either side is nil is skipped. A zero Σden is nil.
func Ratio(key metric.Key, num, den []extract.Value) (Metric, []diag.Diagnostic, error) {
	def, ok := metric.Get(key)
	if !ok {
		return Metric{}, nil, &extract.UnregisteredMetricError{Key: key}
	}
	if def.Per90 != metric.WeightedRatio {
		return Metric{}, nil, &RuleError{Key: key, Rule: def.Per90}
	}

	byGame := make(map[int]*float64, len(den))
	for _, d := range den {
		byGame[d.GameID] = d.Value
	}

	m := Metric{Key: key, Rule: def.Per90}
	for _, n := range num {
		d := byGame[n.GameID]
		if n.Value == nil || d == nil {
			m.MissingGames++
			continue
		}
		m.SumValue += *n.Value
		m.SumDenominator += *d
		m.GamesCounted++
	}

	switch {
	case m.GamesCounted == 0:
		return m, []diag.Diagnostic{unavailable(key, len(num), "no_data")}, nil
	case m.SumDenominator == 0:
		return m, []diag.Diagnostic{unavailable(key, len(num), "zero_denominator")}, nil
	}
	r := m.SumValue / m.SumDenominator
	m.Per90 = &r
	return m, nil, nil
}

func unavailable(key metric.Key, games int, reason string) diag.Diagnostic {
	return diag.New(diag.MetricUnavailable,
		map[string]any{"metric_key": string(key), "games": games, "reason": reason},
		"Metric '%s' unavailable across %d game(s)", key, games)
}

// RuleError is returned when a metric is aggregated with the wrong function
// for its per-90 rule.
type RuleError struct {
	Key  metric.Key
	Rule metric.Per90Rule
}

func (e *RuleError) Error() string {
	return "metric " + string(e.Key) + " has per90 rule " + string(e.Rule)
}
