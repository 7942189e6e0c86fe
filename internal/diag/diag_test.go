package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_UnknownTypeIDReportedOnce(t *testing.T) {
	c := NewCollector()
	c.UnknownTypeID(999, 101)
	c.UnknownTypeID(999, 102)
	c.UnknownTypeID(999, 102)
	c.UnknownTypeID(501, 101)

	ds := c.Diagnostics()
	require.Len(t, ds, 2)

	assert.Equal(t, NormalizationGap, ds[0].Code)
	assert.Equal(t, 999, ds[0].Details["unknown_type_id"])
	assert.Equal(t, []int{101, 102}, ds[0].Details["game_ids"])
	assert.Equal(t, 501, ds[1].Details["unknown_type_id"])
}

func TestCollector_OrderIsStable(t *testing.T) {
	c := NewCollector()
	c.UnknownTypeID(7, 101)
	c.Add(New(InsufficientGames, map[string]any{"games_found": 2}, "only %d", 2))

	ds := c.Diagnostics()
	require.Len(t, ds, 2)
	assert.Equal(t, InsufficientGames, ds[0].Code)
	assert.Equal(t, NormalizationGap, ds[1].Code)
	assert.Equal(t, ds, c.Diagnostics(), "repeated reads are identical")
	assert.True(t, c.Has(NormalizationGap))
	assert.False(t, c.Has(BaselineMissing))
}

func TestNew_NilDetails(t *testing.T) {
	d := New(MetricUnavailable, nil, "metric %s unavailable", "xg")
	assert.NotNil(t, d.Details)
	assert.Equal(t, "metric xg unavailable", d.Message)
}
