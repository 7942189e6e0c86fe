package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/footiq/internal/aggregate"
	"github.com/albapepper/footiq/internal/baseline"
	"github.com/albapepper/footiq/internal/metric"
	"github.com/albapepper/footiq/internal/router"
)

func TestNum(t *testing.T) {
	v := 0.428571
	assert.Equal(t, "0.43", num(&v))
	assert.Equal(t, "-", num(nil))
}

func TestRenderDefinitions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderDefinitions(&buf, metric.All(), formatTable))
	out := buf.String()
	assert.Contains(t, out, "goal_involvement")
	assert.Contains(t, out, "derived")
	assert.Contains(t, out, "16")

	buf.Reset()
	require.NoError(t, renderDefinitions(&buf, metric.ByDepth(metric.L1), formatJSON))
	var defs []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &defs))
	assert.Len(t, defs, 6)

	assert.Error(t, renderDefinitions(&buf, nil, "yaml"))
}

func TestRenderDecision(t *testing.T) {
	d, err := router.Decide("Compare Saka vs Palmer", nil, router.Constraints{})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, renderDecision(&buf, d, formatTable))
	assert.Contains(t, buf.String(), "tier=Compare")
	assert.Contains(t, buf.String(), string(router.CompareToLeague))
}

func TestRenderError(t *testing.T) {
	abort := &router.Abort{
		Code:    router.AmbiguousEntity,
		Message: "Multiple players match 'Silva'.",
		Options: []router.Option{{Label: "Bernardo Silva (Man City)", AthleteID: 101}},
	}

	var buf bytes.Buffer
	err := renderError(&buf, abort, formatTable)
	assert.Same(t, abort, err)
	assert.Contains(t, buf.String(), "AMBIGUOUS_ENTITY")
	assert.Contains(t, buf.String(), "Bernardo Silva (Man City)")

	buf.Reset()
	plain := errors.New("boom")
	assert.Equal(t, plain, renderError(&buf, plain, formatTable))
	assert.Empty(t, buf.String())
}

func TestRenderBaselines(t *testing.T) {
	entries := []baseline.Entry{
		{League: "premier_league", Season: "2025_2026", Position: "all_positions", MetricKey: metric.Goals, Mean: 0.18, Std: 0.22, N: 412},
		{League: "premier_league", Season: "2025_2026", Position: "all_positions", MetricKey: metric.RedCards, Mean: 0.01, Std: 0, N: 412},
	}
	var buf bytes.Buffer
	require.NoError(t, renderBaselines(&buf, "file:config/baselines.json", entries, formatTable))
	out := buf.String()
	assert.Contains(t, out, "source: file:config/baselines.json")
	assert.Contains(t, out, "0.180")
	assert.Contains(t, out, "red_cards *")
}

func TestRequestFlags(t *testing.T) {
	f := requestFlags{last: 5, noLive: true, metrics: []string{"goals", " expected_goals"}, maxDepth: router.DepthL1}
	req := f.request("How is Saka doing?")
	assert.Equal(t, aggregate.Window{Kind: aggregate.LastN, N: 5}, req.Window)
	require.NotNil(t, req.Constraints.AllowLiveFetch)
	assert.False(t, *req.Constraints.AllowLiveFetch)
	assert.Equal(t, []metric.Key{metric.Goals, metric.ExpectedGoals}, req.Metrics)
	assert.Equal(t, router.DepthL1, req.Constraints.MaxDepth)

	f = requestFlags{season: "2025_2026"}
	req = f.request("Saka")
	assert.Equal(t, aggregate.Season, req.Window.Kind)
	assert.Equal(t, "2025_2026", req.Season)

	f = requestFlags{from: "2025-08-01", to: "2025-09-30"}
	req = f.request("Saka")
	assert.Equal(t, aggregate.Window{Kind: aggregate.DateRange, From: "2025-08-01", To: "2025-09-30"}, req.Window)
}
