package router

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/footiq/internal/metric"
)

var someHistory = []Message{{Role: "user", Content: "How is Bukayo Saka doing?"}}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		history []Message
		want    Tier
	}{
		{name: "plain stats", query: "How many goals has Saka scored?", want: Surface},
		{name: "deep keyword", query: "Why has Saka's form declined?", want: Deep},
		{name: "xg is deep", query: "What is Haaland's xG this season", want: Deep},
		{name: "compare keyword", query: "Compare Saka and Foden", want: Compare},
		{name: "vs", query: "Saka vs Foden", want: Compare},
		{name: "better than", query: "Is Saka better than Foden?", want: Compare},
		{name: "compare beats deep", query: "Compare Saka and Foden xG", want: Compare},
		{name: "pronoun with history", query: "How is he doing?", history: someHistory, want: Surface},
		{name: "pronoun inside a word is not a pronoun", query: "How is Theo doing?", want: Surface},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.query, tt.history)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify_InsufficientContext(t *testing.T) {
	for _, q := range []string{"How is he doing?", "What are his stats", "Is she fit?"} {
		t.Run(q, func(t *testing.T) {
			_, err := Classify(q, nil)
			var abort *Abort
			require.True(t, errors.As(err, &abort))
			assert.Equal(t, InsufficientContext, abort.Code)
		})
	}
}

func TestDecide_Table(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		maxDepth  string
		wantTier  Tier
		wantDepth metric.Depth
		wantTools []Tool
	}{
		{
			name: "surface auto", query: "Saka goals", maxDepth: DepthAuto,
			wantTier: Surface, wantDepth: metric.L1, wantTools: baseTools,
		},
		{
			name: "surface L2", query: "Saka goals", maxDepth: DepthL2,
			wantTier: Surface, wantDepth: metric.L2,
			wantTools: append(append([]Tool(nil), baseTools...), GetDetailedStats),
		},
		{
			name: "deep auto", query: "Why is Saka improving?", maxDepth: DepthAuto,
			wantTier: Deep, wantDepth: metric.L2,
			wantTools: append(append([]Tool(nil), baseTools...), GetDetailedStats, CalculateDerived, ShowFormChart),
		},
		{
			name: "deep capped at L1 is surface", query: "Why is Saka improving?", maxDepth: DepthL1,
			wantTier: Surface, wantDepth: metric.L1, wantTools: baseTools,
		},
		{
			name: "compare is fixed at L1", query: "Saka vs Foden", maxDepth: DepthL2,
			wantTier: Compare, wantDepth: metric.L1, wantTools: baseTools,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Decide(tt.query, nil, Constraints{MaxDepth: tt.maxDepth})
			require.NoError(t, err)
			assert.Equal(t, tt.wantTier, d.Tier)
			assert.Equal(t, tt.wantDepth, d.Depth)
			assert.Equal(t, tt.wantTools, d.ToolNames())
		})
	}
}

func TestDecide_L1RemovesL2Tools(t *testing.T) {
	d, err := Decide("Analyze Saka's shot map", nil, Constraints{MaxDepth: DepthL1})
	require.NoError(t, err)
	assert.Equal(t, Deep, d.RawTier)
	assert.True(t, d.Downgraded)
	for _, tool := range []Tool{GetDetailedStats, CalculateDerived, ShowFormChart} {
		assert.False(t, d.Allows(tool), tool)
	}
}

func TestDecide_ReplayBindsNoNetworkTool(t *testing.T) {
	d, err := Decide("Why is Saka improving?", nil, Constraints{DataMode: ModeReplay})
	require.NoError(t, err)
	require.NotEmpty(t, d.Tools)
	for _, tb := range d.Tools {
		assert.NotEqual(t, Network, tb.Binding, tb.Tool)
	}
	b, ok := d.Binding(SearchPlayer)
	require.True(t, ok)
	assert.Equal(t, Fixture, b)
	b, _ = d.Binding(CalculatePer90)
	assert.Equal(t, Local, b)
}

func TestDecide_NoLiveFetchBindsCache(t *testing.T) {
	off := false
	d, err := Decide("Saka goals", nil, Constraints{AllowLiveFetch: &off})
	require.NoError(t, err)
	b, _ := d.Binding(GetRecentGames)
	assert.Equal(t, Cache, b)

	d, err = Decide("Saka goals", nil, Constraints{})
	require.NoError(t, err)
	b, _ = d.Binding(GetRecentGames)
	assert.Equal(t, Network, b)
	assert.Equal(t, ModeLive, d.DataMode)
}

func TestDecide_InvalidConstraints(t *testing.T) {
	_, err := Decide("Saka goals", nil, Constraints{MaxDepth: "L3"})
	assert.Error(t, err)
	_, err = Decide("Saka goals", nil, Constraints{DataMode: "offline"})
	assert.Error(t, err)
}

func TestDecide_AbortsBeforeTools(t *testing.T) {
	d, err := Decide("How is he doing?", nil, Constraints{})
	var abort *Abort
	require.True(t, errors.As(err, &abort))
	assert.Equal(t, InsufficientContext, abort.Code)
	assert.Empty(t, d.Tools)
}

func TestDecide_Deterministic(t *testing.T) {
	a, err := Decide("Compare Saka xG", nil, Constraints{DataMode: ModeReplay})
	require.NoError(t, err)
	b, err := Decide("Compare Saka xG", nil, Constraints{DataMode: ModeReplay})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
