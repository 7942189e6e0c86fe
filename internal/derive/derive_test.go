package derive

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/footiq/internal/aggregate"
	"github.com/albapepper/footiq/internal/diag"
	"github.com/albapepper/footiq/internal/extract"
	"github.com/albapepper/footiq/internal/metric"
)

func f(v float64) *float64 { return &v }

// agg builds an aggregated metric from per-game values, 90 minutes each.
func agg(t *testing.T, key metric.Key, vs ...*float64) aggregate.Metric {
	t.Helper()
	s := make([]aggregate.Sample, len(vs))
	for i, v := range vs {
		s[i] = aggregate.Sample{Value: extract.Value{Key: key, Value: v, GameID: i + 1}, Minutes: 90}
	}
	m, _, err := aggregate.Aggregate(key, s)
	require.NoError(t, err)
	return m
}

func TestCompute_XGOverperformanceMissingPropagates(t *testing.T) {
	in := map[metric.Key]aggregate.Metric{
		metric.Goals:         agg(t, metric.Goals, f(2)),
		metric.ExpectedGoals: agg(t, metric.ExpectedGoals, nil),
	}

	r, ds, err := Compute(metric.XGOverperformance, in)
	require.NoError(t, err)
	assert.Nil(t, r.Value, "missing xG is never treated as zero")
	require.Len(t, ds, 1)
	assert.Equal(t, diag.MetricUnavailable, ds[0].Code)
	assert.Equal(t, []string{"expected_goals"}, ds[0].Details["missing_inputs"])
}

func TestCompute_XGOverperformanceAnyMissingGame(t *testing.T) {
	in := map[metric.Key]aggregate.Metric{
		metric.Goals:         agg(t, metric.Goals, f(1), f(1)),
		metric.ExpectedGoals: agg(t, metric.ExpectedGoals, f(0.5), nil),
	}
	r, _, err := Compute(metric.XGOverperformance, in)
	require.NoError(t, err)
	assert.Nil(t, r.Value)
}

func TestCompute_XGOverperformance(t *testing.T) {
	in := map[metric.Key]aggregate.Metric{
		metric.Goals:         agg(t, metric.Goals, f(2), f(1)),
		metric.ExpectedGoals: agg(t, metric.ExpectedGoals, f(0.8), f(0.7)),
	}
	r, ds, err := Compute(metric.XGOverperformance, in)
	require.NoError(t, err)
	assert.Empty(t, ds)
	require.NotNil(t, r.Value)
	assert.InDelta(t, 1.5, *r.Value, 1e-9)
}

func TestCompute_GoalInvolvement(t *testing.T) {
	in := map[metric.Key]aggregate.Metric{
		metric.Goals:   agg(t, metric.Goals, f(1), f(0)),
		metric.Assists: agg(t, metric.Assists, f(1), f(1)),
	}
	r, ds, err := Compute(metric.GoalInvolvement, in)
	require.NoError(t, err)
	assert.Empty(t, ds)
	require.NotNil(t, r.Value)
	assert.Equal(t, 3.0, *r.Value)
	require.NotNil(t, r.Per90)
	assert.InDelta(t, 1.5, *r.Per90, 1e-9)
}

func TestCompute_MinutesPerGoalZeroGoals(t *testing.T) {
	in := map[metric.Key]aggregate.Metric{
		metric.MinutesPlayed: agg(t, metric.MinutesPlayed, f(90), f(90)),
		metric.Goals:         agg(t, metric.Goals, f(0), f(0)),
	}
	r, ds, err := Compute(metric.MinutesPerGoal, in)
	require.NoError(t, err)
	assert.Nil(t, r.Value)
	require.Len(t, ds, 1)
	assert.Equal(t, "division_by_zero", ds[0].Details["reason"])

	in[metric.Goals] = agg(t, metric.Goals, f(1), f(2))
	r, _, err = Compute(metric.MinutesPerGoal, in)
	require.NoError(t, err)
	require.NotNil(t, r.Value)
	assert.Equal(t, 60.0, *r.Value)
	assert.False(t, math.IsInf(*r.Value, 0))
}

func TestCompute_Errors(t *testing.T) {
	_, _, err := Compute(metric.Goals, nil)
	var ume *extract.UnregisteredMetricError
	assert.True(t, errors.As(err, &ume), "raw metrics are not derived")

	_, _, err = Compute(metric.ShotAccuracy, nil)
	var re *aggregate.RuleError
	assert.True(t, errors.As(err, &re))
}

func TestAll(t *testing.T) {
	in := map[metric.Key]aggregate.Metric{
		metric.MinutesPlayed: agg(t, metric.MinutesPlayed, f(90)),
		metric.Goals:         agg(t, metric.Goals, f(1)),
		metric.Assists:       agg(t, metric.Assists, f(0)),
	}
	rs, ds, err := All(in)
	require.NoError(t, err)
	require.Len(t, rs, 3)
	assert.Equal(t, metric.GoalInvolvement, rs[0].Key)
	assert.Equal(t, metric.XGOverperformance, rs[1].Key)
	assert.Nil(t, rs[1].Value)
	assert.Equal(t, metric.MinutesPerGoal, rs[2].Key)
	require.Len(t, ds, 1)
	assert.Equal(t, diag.MetricUnavailable, ds[0].Code)
}
