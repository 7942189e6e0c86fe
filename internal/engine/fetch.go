package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/albapepper/footiq/internal/aggregate"
	"github.com/albapepper/footiq/internal/diag"
	"github.com/albapepper/footiq/internal/provider"
	"github.com/albapepper/footiq/internal/router"
)

// source returns what tool runs against under dec.
func (e *Engine) source(dec router.Decision, tool router.Tool) (provider.Source, error) {
	binding, ok := dec.Binding(tool)
	if !ok {
		return nil, fmt.Errorf("tool %s not allowed", tool)
	}
	switch binding {
	case router.Fixture:
		if e.opts.Replay == nil {
			return nil, &router.Abort{Code: router.UpstreamDown, Message: "Replay mode requested but no fixture directory is configured."}
		}
		return e.opts.Replay, nil
	case router.Cache:
		if c, ok := e.opts.Live.(*provider.Cached); ok {
			return c.CacheOnly(), nil
		}
		return nil, &router.Abort{Code: router.UpstreamDown, Message: "Live fetch is disabled and no cache is configured."}
	default:
		if e.opts.Live == nil {
			return nil, &router.Abort{Code: router.UpstreamDown, Message: "No live data provider is configured."}
		}
		return e.opts.Live, nil
	}
}

// resolve finds the one athlete the request is about.
func (e *Engine) resolve(ctx context.Context, dec router.Decision, req Request) (provider.Candidate, provider.Meta, error) {
	if req.AthleteID > 0 {
		return provider.Candidate{ID: req.AthleteID, Name: req.Entity}, provider.Meta{}, nil
	}
	src, err := e.source(dec, router.SearchPlayer)
	if err != nil {
		return provider.Candidate{}, provider.Meta{}, err
	}
	q := req.Entity
	if q == "" {
		q = req.Query
	}

	start := time.Now()
	cands, meta, err := src.Search(ctx, q)
	e.observeFetch("search", meta, err, start)
	if err != nil {
		if errors.Is(err, provider.ErrFixtureNotFound) {
			e.logger.Warn("No search fixture", "query", q, "error", err)
			return provider.Candidate{}, meta, &router.Abort{
				Code:    router.PlayerNotFound,
				Message: fmt.Sprintf("No player found matching '%s'.", q),
			}
		}
		return provider.Candidate{}, meta, e.fetchFailed("search", err)
	}
	c, err := router.ResolveEntity(q, cands)
	return c, meta, err
}

// fetchGames loads enough recent games for w and selects the window.
func (e *Engine) fetchGames(ctx context.Context, dec router.Decision, athleteID int, w aggregate.Window) ([]provider.Game, provider.Meta, error) {
	src, err := e.source(dec, router.GetRecentGames)
	if err != nil {
		return nil, provider.Meta{}, err
	}

	start := time.Now()
	games, meta, err := src.Games(ctx, athleteID, w.FetchLimit())
	e.observeFetch("games", meta, err, start)
	if err != nil {
		if errors.Is(err, provider.ErrFixtureNotFound) {
			e.logger.Warn("No games fixture", "athlete_id", athleteID, "error", err)
			return nil, meta, &router.Abort{
				Code:    router.InsufficientData,
				Message: fmt.Sprintf("No recent games found for athlete %d.", athleteID),
			}
		}
		return nil, meta, e.fetchFailed("games", err)
	}
	return w.Select(games), meta, nil
}

// fetchLineups loads one lineup per game with at most LineupWorkers requests
// in flight. The result is indexed like games. A lineup that cannot be
// loaded leaves a nil slot and a METRIC_UNAVAILABLE diagnostic; only
// cancellation aborts the whole fetch.
func (e *Engine) fetchLineups(ctx context.Context, dec router.Decision, athleteID int, games []provider.Game) ([]*provider.Lineup, []diag.Diagnostic, bool, error) {
	src, err := e.source(dec, router.GetDetailedStats)
	if err != nil {
		return nil, nil, false, err
	}

	lineups := make([]*provider.Lineup, len(games))
	metas := make([]provider.Meta, len(games))
	failed := make([]error, len(games))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.LineupWorkers)
	for i := range games {
		g.Go(func() error {
			start := time.Now()
			lu, meta, err := src.Lineup(gctx, athleteID, games[i].ID)
			e.observeFetch("lineup", meta, err, start)
			metas[i] = meta
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed[i] = err
				return nil
			}
			lineups[i] = lu
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, false, err
	}

	var (
		ds  []diag.Diagnostic
		hit bool
	)
	for i, m := range metas {
		ds = append(ds, m.Diagnostics...)
		hit = hit || m.CacheHit
		if failed[i] != nil {
			e.logger.Warn("Lineup unavailable", "athlete_id", athleteID, "game_id", games[i].ID, "error", failed[i])
			ds = append(ds, diag.New(diag.MetricUnavailable,
				map[string]any{"game_id": games[i].ID, "reason": "lineup_unavailable"},
				"Detailed stats unavailable for game %d", games[i].ID))
		}
	}
	return lineups, ds, hit, nil
}

func (e *Engine) fetchFailed(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	e.logger.Error("Provider fetch failed", "op", op, "error", err)
	if errors.Is(err, provider.ErrCacheOnly) {
		return &router.Abort{Code: router.UpstreamDown, Message: "Live fetch is disabled and the data is not cached."}
	}
	return &router.Abort{Code: router.UpstreamDown, Message: "The stats provider is unavailable. Try again shortly."}
}

func (e *Engine) observeFetch(op string, meta provider.Meta, err error, start time.Time) {
	result := "ok"
	switch {
	case err != nil:
		result = "error"
	case meta.CacheHit:
		result = "cache_hit"
	}
	e.opts.Metrics.ObserveFetch(op, result, time.Since(start))
}

// mergeFetchDiagnostics collapses per-fetch DATA_MODE_REPLAY and
// USED_CACHED_DATA diagnostics into one of each, placed where the first one
// appeared. Other diagnostics keep their order.
func mergeFetchDiagnostics(ds []diag.Diagnostic) []diag.Diagnostic {
	var (
		out      []diag.Diagnostic
		replay   = -1
		cached   = -1
		fixtures []string
		keys     []string
		minTTL   = -1
	)
	for _, d := range ds {
		switch d.Code {
		case diag.DataModeReplay:
			if f, ok := d.Details["fixture"].(string); ok {
				fixtures = append(fixtures, f)
			}
			if replay < 0 {
				replay = len(out)
				out = append(out, d)
			}
		case diag.UsedCachedData:
			if k, ok := d.Details["cache_key"].(string); ok {
				keys = append(keys, k)
			}
			if ttl, ok := d.Details["ttl_remaining_s"].(int); ok && (minTTL < 0 || ttl < minTTL) {
				minTTL = ttl
			}
			if cached < 0 {
				cached = len(out)
				out = append(out, d)
			}
		default:
			out = append(out, d)
		}
	}
	if replay >= 0 && len(fixtures) > 1 {
		out[replay] = diag.New(diag.DataModeReplay,
			map[string]any{"source": "fixture", "fixtures": fixtures},
			"Serving %d responses from replay fixtures", len(fixtures))
	}
	if cached >= 0 && len(keys) > 1 {
		out[cached] = diag.New(diag.UsedCachedData,
			map[string]any{"ttl_remaining_s": minTTL, "cache_keys": keys},
			"Serving %d responses from cache (min TTL %ds)", len(keys), minTTL)
	}
	return out
}
