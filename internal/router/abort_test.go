package router

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/footiq/internal/diag"
	"github.com/albapepper/footiq/internal/provider"
)

func score(v float64) *float64 { return &v }

func TestResolveEntity(t *testing.T) {
	saka := provider.Candidate{ID: 1, Name: "Bukayo Saka", Team: "Arsenal", Score: score(0.98)}
	weak := provider.Candidate{ID: 2, Name: "Sakaria", Team: "Unknown FC", Score: score(0.2)}

	c, err := ResolveEntity("saka", []provider.Candidate{saka, weak})
	require.NoError(t, err)
	assert.Equal(t, 1, c.ID, "low-score candidates are not ambiguous")

	_, err = ResolveEntity("nobody", nil)
	var abort *Abort
	require.True(t, errors.As(err, &abort))
	assert.Equal(t, PlayerNotFound, abort.Code)
}

func TestResolveEntity_Ambiguous(t *testing.T) {
	var cands []provider.Candidate
	for i := 1; i <= 7; i++ {
		cands = append(cands, provider.Candidate{ID: i, Name: "Silva", Team: ""})
	}
	cands[0].Name = "Bernardo Silva"
	cands[0].Team = "Man City"

	_, err := ResolveEntity("Sil", cands)
	var abort *Abort
	require.True(t, errors.As(err, &abort))
	assert.Equal(t, AmbiguousEntity, abort.Code)
	require.Len(t, abort.Options, MaxOptions)
	assert.Equal(t, Option{Label: "Bernardo Silva (Man City)", AthleteID: 1}, abort.Options[0])
	assert.Equal(t, "Silva (?)", abort.Options[1].Label)
}

func TestResolveEntity_ExactMatchWins(t *testing.T) {
	cands := []provider.Candidate{
		{ID: 10, Name: "Gabriel Jesus"},
		{ID: 11, Name: "Gabriel"},
		{ID: 12, Name: "Gabriel Martinelli"},
	}
	c, err := ResolveEntity("  gabriel ", cands)
	require.NoError(t, err)
	assert.Equal(t, 11, c.ID)
}

func TestResolveEntity_AllLowScoresStillAmbiguous(t *testing.T) {
	cands := []provider.Candidate{
		{ID: 1, Name: "A", Score: score(0.1)},
		{ID: 2, Name: "B", Score: score(0.2)},
	}
	_, err := ResolveEntity("x", cands)
	var abort *Abort
	require.True(t, errors.As(err, &abort))
	assert.Equal(t, AmbiguousEntity, abort.Code)
}

func TestCheckGames(t *testing.T) {
	_, err := CheckGames(7, 0)
	var abort *Abort
	require.True(t, errors.As(err, &abort))
	assert.Equal(t, InsufficientData, abort.Code)

	for _, n := range []int{1, 2} {
		d, err := CheckGames(7, n)
		require.NoError(t, err)
		require.NotNil(t, d)
		assert.Equal(t, diag.InsufficientGames, d.Code)
		assert.Equal(t, n, d.Details["games_found"])
		assert.Equal(t, 3, d.Details["threshold"])
	}

	d, err := CheckGames(7, 3)
	require.NoError(t, err)
	assert.Nil(t, d)
}
