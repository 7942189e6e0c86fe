package baseline

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/footiq/internal/diag"
	"github.com/albapepper/footiq/internal/metric"
)

func f(v float64) *float64 { return &v }

func testTable() *Table {
	return NewTable("test", []Entry{
		{League: "premier_league", Season: "2025_2026", Position: AllPositions, MetricKey: metric.Goals, Mean: 0.18, Std: 0.22, N: 30},
		{League: "premier_league", Season: "2025_2026", Position: AllPositions, MetricKey: metric.Assists, Mean: 0.12, Std: 0.14, N: 29},
		{League: "premier_league", Season: "2025_2026", Position: AllPositions, MetricKey: metric.RedCards, Mean: 0.01, Std: 0, N: 400},
		{League: "premier_league", Season: "2025_2026", Position: AllPositions, MetricKey: metric.YellowCards, Mean: 0.2, Std: -0.1, N: 400},
		{League: "premier_league", Season: "2025_2026", Position: AllPositions, MetricKey: metric.TacklesWon, Mean: 1.5, Std: math.NaN(), N: 400},
	})
}

func TestCompare_Guardrails(t *testing.T) {
	tests := []struct {
		name       string
		key        metric.Key
		league     string
		wantZ      bool
		wantReason string
	}{
		{name: "n=30 computes a z-score", key: metric.Goals, league: "premier_league", wantZ: true},
		{name: "n=29 is low_sample", key: metric.Assists, league: "premier_league", wantReason: "low_sample"},
		{name: "std=0 is zero_variance", key: metric.RedCards, league: "premier_league", wantReason: "zero_variance"},
		{name: "negative std is invalid_std", key: metric.YellowCards, league: "premier_league", wantReason: "invalid_std"},
		{name: "NaN std is invalid_std", key: metric.TacklesWon, league: "premier_league", wantReason: "invalid_std"},
		{name: "unknown league is not_found", key: metric.Goals, league: "eredivisie", wantReason: "not_found"},
		{name: "unknown metric is not_found", key: metric.KeyPasses, league: "premier_league", wantReason: "not_found"},
	}

	tbl := testTable()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, d := tbl.Compare(tt.key, f(0.5), tt.league, "2025_2026", AllPositions)
			require.NotNil(t, c.RawPer90)
			assert.Equal(t, 0.5, *c.RawPer90)

			if tt.wantZ {
				assert.Nil(t, d)
				require.NotNil(t, c.ZScore)
				assert.InDelta(t, (0.5-0.18)/0.22, *c.ZScore, 1e-9)
				assert.True(t, c.BaselineUsed)
				assert.Equal(t, "Notably above average", c.Interpretation)
				return
			}

			assert.Nil(t, c.ZScore)
			assert.False(t, c.BaselineUsed)
			assert.Equal(t, "unavailable", c.Interpretation)
			require.NotNil(t, d)
			assert.Equal(t, diag.BaselineMissing, d.Code)
			assert.Equal(t, "raw_per90", d.Details["fallback"])
			assert.Equal(t, tt.wantReason, d.Details["reason"])
		})
	}
}

func TestCompare_LowSampleCarriesN(t *testing.T) {
	_, d := testTable().Compare(metric.Assists, f(0.2), "premier_league", "2025_2026", AllPositions)
	require.NotNil(t, d)
	assert.Equal(t, 29, d.Details["n"])
}

func TestCompare_NilPer90(t *testing.T) {
	c, d := testTable().Compare(metric.Goals, nil, "premier_league", "2025_2026", AllPositions)
	assert.Nil(t, d)
	assert.Nil(t, c.RawPer90)
	assert.Nil(t, c.ZScore)
	assert.False(t, c.BaselineUsed)
}

func TestCompare_NilTable(t *testing.T) {
	var tbl *Table
	c, d := tbl.Compare(metric.Goals, f(0.3), "premier_league", "2025_2026", AllPositions)
	require.NotNil(t, d)
	assert.Equal(t, "not_found", d.Details["reason"])
	assert.Nil(t, c.ZScore)
}

func TestInterpret(t *testing.T) {
	tests := []struct {
		z    *float64
		want string
	}{
		{nil, "unavailable"},
		{f(3.2), "Extraordinary (above average)"},
		{f(-2.1), "Exceptional (below average)"},
		{f(1.0), "Notably above average"},
		{f(-0.7), "Slightly below average"},
		{f(0.2), "Average"},
		{f(0), "Average"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Interpret(tt.z))
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "baselines.json")
	doc := `{"premier_league": {"2025_2026": {` +
		`"all_positions": {"goals": {"mean": 0.18, "std": 0.22, "n": 412}, "expected_goals": {"mean": 0.17, "std": 0.19, "n": 398}}, ` +
		`"forward": {"goals": {"mean": 0.41, "std": 0.24, "n": 88}}}}}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	tbl, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.Len())
	assert.Equal(t, "file:"+path, tbl.Source())

	e, ok := tbl.Lookup("premier_league", "2025_2026", "forward", metric.Goals)
	require.True(t, ok)
	assert.Equal(t, 0.41, e.Mean)
	assert.Equal(t, 88, e.N)

	entries := tbl.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, AllPositions, entries[0].Position)
	assert.Equal(t, metric.ExpectedGoals, entries[0].MetricKey)
	assert.Equal(t, "forward", entries[2].Position)
}

func TestLoadFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "baselines.yaml")
	doc := "la_liga:\n  \"2025_2026\":\n    all_positions:\n      assists: {mean: 0.11, std: 0.13, n: 377}\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	tbl, err := LoadFile(path)
	require.NoError(t, err)
	e, ok := tbl.Lookup("la_liga", "2025_2026", AllPositions, metric.Assists)
	require.True(t, ok)
	assert.Equal(t, 377, e.N)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path,
		[]byte(`{"pl": {"2025_2026": {"all_positions": {"dribbles": {"mean": 1, "std": 1, "n": 40}}}}}`), 0o644))
	_, err = LoadFile(path)
	assert.ErrorContains(t, err, "dribbles")
}

func TestLoadFile_SampleConfig(t *testing.T) {
	tbl, err := LoadFile(filepath.Join("..", "..", "config", "baselines.json"))
	require.NoError(t, err)
	assert.Greater(t, tbl.Len(), 0)

	_, ok := tbl.Lookup("premier_league", "2025_2026", AllPositions, metric.Goals)
	assert.True(t, ok)
}
