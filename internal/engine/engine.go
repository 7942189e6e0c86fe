// Package engine runs one query end to end: route, resolve the player,
// fetch the window's games (and lineups at L2), then extract, aggregate,
// derive and compare.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/albapepper/footiq/internal/aggregate"
	"github.com/albapepper/footiq/internal/baseline"
	"github.com/albapepper/footiq/internal/derive"
	"github.com/albapepper/footiq/internal/diag"
	"github.com/albapepper/footiq/internal/metric"
	"github.com/albapepper/footiq/internal/provider"
	"github.com/albapepper/footiq/internal/router"
	"github.com/albapepper/footiq/internal/telemetry"
)

// Options configures an Engine.
type Options struct {
	// Live serves network-bound tools. When it also offers CacheOnly, that
	// view serves cache-bound tools.
	Live provider.Source
	// Replay serves fixture-bound tools.
	Replay provider.Source

	Baselines *baseline.Table
	Metrics   *telemetry.Metrics
	Logger    *slog.Logger

	LineupWorkers   int
	DefaultDataMode string
	DefaultLeague   string
	DefaultSeason   string
	DefaultPosition string
}

// Engine is safe for concurrent use.
type Engine struct {
	opts      Options
	logger    *slog.Logger
	baselines atomic.Pointer[baseline.Table]
}

// New creates an Engine.
func New(opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.LineupWorkers < 1 {
		opts.LineupWorkers = 1
	}
	if opts.DefaultDataMode == "" {
		opts.DefaultDataMode = router.ModeLive
	}
	if opts.DefaultPosition == "" {
		opts.DefaultPosition = baseline.AllPositions
	}
	e := &Engine{opts: opts, logger: opts.Logger}
	e.baselines.Store(opts.Baselines)
	return e
}

// Baselines returns the current baseline table.
func (e *Engine) Baselines() *baseline.Table { return e.baselines.Load() }

// SetBaselines swaps the baseline table. Analyses already running keep the
// table they started with.
func (e *Engine) SetBaselines(t *baseline.Table) { e.baselines.Store(t) }

// --------------------------------------------------------------------------
// Request / Report
// --------------------------------------------------------------------------

// Request is one analysis query.
type Request struct {
	Query       string             `json:"query"`
	Entity      string             `json:"entity,omitempty"`
	AthleteID   int                `json:"athlete_id,omitempty"`
	History     []router.Message   `json:"history,omitempty"`
	Constraints router.Constraints `json:"constraints"`
	Window      aggregate.Window   `json:"window"`
	League      string             `json:"league,omitempty"`
	Season      string             `json:"season,omitempty"`
	Position    string             `json:"position,omitempty"`
	Metrics     []metric.Key       `json:"metrics,omitempty"`
	FormMetric  metric.Key         `json:"form_metric,omitempty"`
}

// RequestError is an invalid request. It never comes from data conditions.
type RequestError struct {
	Field   string
	Message string
}

func (e *RequestError) Error() string {
	return e.Field + ": " + e.Message
}

// GameSummary is one game in the window.
type GameSummary struct {
	GameID   int      `json:"game_id"`
	Date     string   `json:"date,omitempty"`
	Opponent string   `json:"opponent"`
	Score    string   `json:"score,omitempty"`
	Minutes  *float64 `json:"minutes_played"`
	Detailed bool     `json:"detailed"`
}

// MetricResult is one aggregated raw metric with its optional comparison.
type MetricResult struct {
	aggregate.Metric
	DisplayName string               `json:"display_name"`
	Total       *float64             `json:"total"`
	Mean        *float64             `json:"mean,omitempty"`
	Comparison  *baseline.Comparison `json:"comparison,omitempty"`
}

// DerivedResult is one derived metric with its optional comparison.
type DerivedResult struct {
	derive.Result
	DisplayName string               `json:"display_name"`
	Comparison  *baseline.Comparison `json:"comparison,omitempty"`
}

// FormPoint is one game's value in a form series, most recent first.
type FormPoint struct {
	GameID int      `json:"game_id"`
	Date   string   `json:"date,omitempty"`
	Value  *float64 `json:"value"`
}

// FormSeries is per-game data for a form chart.
type FormSeries struct {
	MetricKey metric.Key  `json:"metric_key"`
	Available int         `json:"available"`
	Points    []FormPoint `json:"points"`
}

// Report is the result of Analyze.
type Report struct {
	Decision    router.Decision    `json:"decision"`
	Player      provider.Candidate `json:"player"`
	Window      aggregate.Window   `json:"window"`
	League      string             `json:"league"`
	Season      string             `json:"season"`
	Position    string             `json:"position"`
	Games       []GameSummary      `json:"games"`
	Metrics     []MetricResult     `json:"metrics"`
	Derived     []DerivedResult    `json:"derived,omitempty"`
	Form        *FormSeries        `json:"form,omitempty"`
	Diagnostics []diag.Diagnostic  `json:"diagnostics"`
	CacheHit    bool               `json:"cache_hit"`
}

// --------------------------------------------------------------------------
// Operations
// --------------------------------------------------------------------------

// Route evaluates the router only. Nothing is fetched.
func (e *Engine) Route(req Request) (router.Decision, error) {
	if strings.TrimSpace(req.Query) == "" {
		return router.Decision{}, &RequestError{Field: "query", Message: "must not be empty"}
	}
	c := req.Constraints
	if c.DataMode == "" {
		c.DataMode = e.opts.DefaultDataMode
	}
	d, err := router.Decide(req.Query, req.History, c)
	var abort *router.Abort
	if err != nil && !errors.As(err, &abort) {
		return d, &RequestError{Field: "constraints", Message: err.Error()}
	}
	if err == nil {
		e.opts.Metrics.ObserveDecision(string(d.Tier), string(d.Depth), d.DataMode)
	}
	return d, err
}

// Analyze runs the full pipeline for req. Router aborts come back as
// *router.Abort, bad input as *RequestError.
func (e *Engine) Analyze(ctx context.Context, req Request) (rep *Report, err error) {
	start := time.Now()
	defer func() {
		e.opts.Metrics.ObserveAnalyze(outcome(err), time.Since(start))
		if rep != nil {
			for _, d := range rep.Diagnostics {
				e.opts.Metrics.ObserveDiagnostic(string(d.Code))
			}
		}
	}()

	if err := e.validate(&req); err != nil {
		return nil, err
	}

	dec, err := e.Route(req)
	if err != nil {
		return nil, err
	}

	rep = &Report{
		Decision: dec,
		Window:   req.Window,
		League:   req.League,
		Season:   req.Season,
		Position: req.Position,
	}
	col := diag.NewCollector()
	var fetchDiags []diag.Diagnostic

	// Resolve
	player, meta, err := e.resolve(ctx, dec, req)
	fetchDiags = append(fetchDiags, meta.Diagnostics...)
	rep.CacheHit = meta.CacheHit
	if err != nil {
		return nil, err
	}
	rep.Player = player

	// Games
	games, meta, err := e.fetchGames(ctx, dec, player.ID, req.Window)
	fetchDiags = append(fetchDiags, meta.Diagnostics...)
	rep.CacheHit = rep.CacheHit || meta.CacheHit
	if err != nil {
		return nil, err
	}
	warn, err := router.CheckGames(player.ID, len(games))
	if err != nil {
		return nil, err
	}

	// Lineups
	var lineups []*provider.Lineup
	if dec.Depth == metric.L2 && dec.Allows(router.GetDetailedStats) {
		var (
			ds  []diag.Diagnostic
			hit bool
		)
		lineups, ds, hit, err = e.fetchLineups(ctx, dec, player.ID, games)
		if err != nil {
			return nil, err
		}
		fetchDiags = append(fetchDiags, ds...)
		rep.CacheHit = rep.CacheHit || hit
	}

	col.Add(mergeFetchDiagnostics(fetchDiags)...)
	if warn != nil {
		col.Add(*warn)
	}

	if err := e.compute(rep, dec, req, games, lineups, e.Baselines(), col); err != nil {
		return nil, err
	}
	rep.Diagnostics = col.Diagnostics()

	e.logger.Info("Analyze complete",
		"athlete_id", player.ID,
		"tier", dec.Tier,
		"depth", dec.Depth,
		"data_mode", dec.DataMode,
		"games", len(games),
		"diagnostics", len(rep.Diagnostics),
		"elapsed", time.Since(start),
	)
	return rep, nil
}

// validate fills defaults and rejects malformed input.
func (e *Engine) validate(req *Request) error {
	if strings.TrimSpace(req.Query) == "" {
		return &RequestError{Field: "query", Message: "must not be empty"}
	}
	if req.League == "" {
		req.League = e.opts.DefaultLeague
	}
	if req.Season == "" {
		req.Season = e.opts.DefaultSeason
	}
	if req.Position == "" {
		req.Position = e.opts.DefaultPosition
	}

	// A season window without a season covers the baseline season.
	if req.Window.Kind == aggregate.Season && req.Window.Season == "" {
		req.Window.Season = req.Season
	}
	w, err := req.Window.Normalize()
	if err != nil {
		return &RequestError{Field: "window", Message: err.Error()}
	}
	req.Window = w

	for _, k := range req.Metrics {
		if _, ok := metric.Get(k); !ok {
			return &RequestError{Field: "metrics", Message: fmt.Sprintf("unknown metric %q", k)}
		}
	}
	if req.FormMetric == "" {
		req.FormMetric = metric.Goals
	}
	if d, ok := metric.Get(req.FormMetric); !ok || d.Derived {
		return &RequestError{Field: "form_metric", Message: fmt.Sprintf("%q is not a raw metric", req.FormMetric)}
	}
	return nil
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var abort *router.Abort
	if errors.As(err, &abort) {
		return string(abort.Code)
	}
	var re *RequestError
	if errors.As(err, &re) {
		return "bad_request"
	}
	return "error"
}
