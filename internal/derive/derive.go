// Package derive computes metrics that are functions of other aggregated
// metrics. A nil input always yields a nil result, and a zero divisor
// yields nil rather than an error or an infinity.
package derive

import (
	"github.com/albapepper/footiq/internal/aggregate"
	"github.com/albapepper/footiq/internal/diag"
	"github.com/albapepper/footiq/internal/extract"
	"github.com/albapepper/footiq/internal/metric"
)

// Result is one derived metric over the window.
type Result struct {
	Key   metric.Key `json:"metric_key"`
	Value *float64   `json:"value"`
	Per90 *float64   `json:"per90_value,omitempty"`
}

type formula func(in map[metric.Key]aggregate.Metric, vals []float64) (Result, []diag.Diagnostic)

var formulas = map[metric.Key]formula{
	metric.GoalInvolvement: func(in map[metric.Key]aggregate.Metric, v []float64) (Result, []diag.Diagnostic) {
		sum := v[0] + v[1]
		r := Result{Key: metric.GoalInvolvement, Value: &sum}
		minutes := in[metric.Goals].SumMinutes
		if minutes < metric.MinMinutesPer90 {
			return r, []diag.Diagnostic{diag.New(diag.InsufficientMinutes,
				map[string]any{
					"metric_key":    string(metric.GoalInvolvement),
					"total_minutes": minutes,
					"threshold":     metric.MinMinutesPer90,
				},
				"Total minutes (%g) below threshold (%d) for %s", minutes, metric.MinMinutesPer90, metric.GoalInvolvement)}
		}
		p := sum / minutes * 90
		r.Per90 = &p
		return r, nil
	},
	metric.XGOverperformance: func(_ map[metric.Key]aggregate.Metric, v []float64) (Result, []diag.Diagnostic) {
		d := v[0] - v[1]
		return Result{Key: metric.XGOverperformance, Value: &d}, nil
	},
	metric.MinutesPerGoal: func(_ map[metric.Key]aggregate.Metric, v []float64) (Result, []diag.Diagnostic) {
		r := Result{Key: metric.MinutesPerGoal}
		if v[1] == 0 {
			return r, []diag.Diagnostic{diag.New(diag.MetricUnavailable,
				map[string]any{"metric_key": string(metric.MinutesPerGoal), "reason": "division_by_zero", "total_goals": 0},
				"Cannot compute %s: zero goals scored", metric.MinutesPerGoal)}
		}
		q := v[0] / v[1]
		r.Value = &q
		return r, nil
	},
}

// Compute evaluates the derived metric key from the aggregated inputs in.
// shot_accuracy is a weighted ratio and is built by aggregate.Ratio instead.
func Compute(key metric.Key, in map[metric.Key]aggregate.Metric) (Result, []diag.Diagnostic, error) {
	def, ok := metric.Get(key)
	if !ok || !def.Derived {
		return Result{}, nil, &extract.UnregisteredMetricError{Key: key}
	}
	fn, ok := formulas[key]
	if !ok {
		return Result{}, nil, &aggregate.RuleError{Key: key, Rule: def.Per90}
	}

	vals := make([]float64, 0, len(def.Inputs))
	var missing []string
	for _, k := range def.Inputs {
		m, present := in[k]
		var total *float64
		if present {
			total = m.Total()
		}
		if total == nil {
			missing = append(missing, string(k))
			continue
		}
		vals = append(vals, *total)
	}
	if len(missing) > 0 {
		return Result{Key: key}, []diag.Diagnostic{diag.New(diag.MetricUnavailable,
			map[string]any{"metric_key": string(key), "missing_inputs": missing},
			"Cannot compute %s: required inputs unavailable", key)}, nil
	}

	r, ds := fn(in, vals)
	return r, ds, nil
}

// All computes every derived metric that has a formula, in catalogue order.
func All(in map[metric.Key]aggregate.Metric) ([]Result, []diag.Diagnostic, error) {
	var (
		out []Result
		ds  []diag.Diagnostic
	)
	for _, def := range metric.Derived() {
		if _, ok := formulas[def.Key]; !ok {
			continue
		}
		r, d, err := Compute(def.Key, in)
		if err != nil {
			return nil, nil, err
		}
		out = append(out, r)
		ds = append(ds, d...)
	}
	return out, ds, nil
}
