package sportapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/footiq/internal/provider"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, "test-host", r.Header.Get("X-RapidAPI-Host"))
		assert.Equal(t, "saka", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`{"results":[{"entity":{"id":934235,"name":"Bukayo Saka","position":"F","team":{"name":"Arsenal"}},"score":0.97}]}`))
	})
	mux.HandleFunc("/athletes/934235/games", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`{"games":[{"game_id":11,"date":"2025-09-13","home_team":"Arsenal","away_team":"Forest","score":{"home":3,"away":0},"statistics":[{"type":21,"value":1},{"type":11,"value":"90"}]}]}`))
	})
	mux.HandleFunc("/games/11/lineups", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "934235", r.URL.Query().Get("athlete_id"))
		_, _ = w.Write([]byte(`{"lineup":{"position":"RW","statistics":[{"type":42,"value":{"total":0.41}},{"type":56,"value":null}]}}`))
	})
	mux.HandleFunc("/athletes/1/games", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL, "test-key", "test-host", 6000, nil)
	ctx := context.Background()

	cands, _, err := c.Search(ctx, "saka")
	require.NoError(t, err)
	require.Len(t, cands, 1)
	assert.Equal(t, "Bukayo Saka", cands[0].Name)
	assert.Equal(t, "Arsenal", cands[0].Team)
	require.NotNil(t, cands[0].Score)
	assert.Equal(t, 0.97, *cands[0].Score)

	games, _, err := c.Games(ctx, 934235, 5)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, 11, games[0].ID)
	assert.Equal(t, "3-0", games[0].Score)
	assert.Equal(t, "Arsenal vs Forest", games[0].Opponent())
	require.Len(t, games[0].Statistics, 2)
	assert.Equal(t, 90.0, *games[0].Statistics[1].Value)

	lu, _, err := c.Lineup(ctx, 934235, 11)
	require.NoError(t, err)
	assert.Equal(t, 11, lu.GameID)
	assert.Equal(t, 934235, lu.AthleteID)
	assert.Equal(t, 0.41, *lu.Statistics[0].Value)
	assert.Nil(t, lu.Statistics[1].Value)
}

func TestClient_UpstreamError(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL, "test-key", "test-host", 6000, nil)

	_, _, err := c.Games(context.Background(), 1, 5)
	var ue *provider.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusTooManyRequests, ue.StatusCode)
	assert.Contains(t, ue.Body, "quota")
}

func TestClient_ContextCanceled(t *testing.T) {
	srv := newTestServer(t)
	c := NewClient(srv.URL, "test-key", "test-host", 6000, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := c.Search(ctx, "saka")
	assert.Error(t, err)
}
