// Package app builds the engine and its dependencies from configuration.
// Both the API server and the CLI start here.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/albapepper/footiq/internal/baseline"
	"github.com/albapepper/footiq/internal/cache"
	"github.com/albapepper/footiq/internal/config"
	"github.com/albapepper/footiq/internal/db"
	"github.com/albapepper/footiq/internal/engine"
	"github.com/albapepper/footiq/internal/maintenance"
	"github.com/albapepper/footiq/internal/provider"
	"github.com/albapepper/footiq/internal/provider/replay"
	"github.com/albapepper/footiq/internal/provider/sportapi"
	"github.com/albapepper/footiq/internal/telemetry"
)

// App is a wired engine plus the resources it holds.
type App struct {
	Engine  *engine.Engine
	Cache   *cache.Cache
	Pool    *db.Pool // nil without DATABASE_URL
	Metrics *telemetry.Metrics

	logger      *slog.Logger
	mu          sync.Mutex
	lastVersion baselineVersion
}

// baselineVersion identifies the database table contents cheaply.
type baselineVersion struct {
	rows      int64
	updatedAt int64
}

// New connects to Postgres when configured, loads baselines and builds the
// live and replay sources.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	a := &App{
		Cache:   cache.New(cfg.CacheEnabled),
		Metrics: telemetry.New(),
		logger:  logger,
	}
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled, "ttl", cfg.CacheTTL)

	if cfg.DatabaseURL != "" {
		logger.Info("Connecting to database...")
		pool, err := db.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		a.Pool = pool
		logger.Info("Database connected",
			"min_conns", cfg.DBPoolMinConns,
			"max_conns", cfg.DBPoolMaxConns)
	}

	table, err := LoadBaselines(ctx, cfg, a.Pool, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Metrics.SetBaselineEntries(table.Len())

	if cfg.SportAPIKey == "" && cfg.DataMode == config.DataModeLive {
		logger.Warn("SPORTAPI_KEY is not set; live fetches will fail")
	}
	client := sportapi.NewClient(cfg.SportAPIBaseURL, cfg.SportAPIKey, cfg.SportAPIHost, cfg.SportAPIRequestsPerMinute, logger)

	a.Engine = engine.New(engine.Options{
		Live:            provider.NewCached(client, a.Cache, cfg.CacheTTL),
		Replay:          replay.New(cfg.FixtureDir, logger),
		Baselines:       table,
		Metrics:         a.Metrics,
		Logger:          logger,
		LineupWorkers:   cfg.LineupWorkers,
		DefaultDataMode: cfg.DataMode,
		DefaultLeague:   cfg.DefaultLeague,
		DefaultSeason:   cfg.DefaultSeason,
		DefaultPosition: cfg.DefaultPosition,
	})
	return a, nil
}

// LoadBaselines prefers Postgres when pool is set and holds rows, then the
// baselines file. A missing file yields an empty table, so every comparison
// falls back to the raw per-90 value.
func LoadBaselines(ctx context.Context, cfg *config.Config, pool *db.Pool, logger *slog.Logger) (*baseline.Table, error) {
	if pool != nil {
		t, err := baseline.LoadFromDB(ctx, pool)
		switch {
		case err != nil:
			logger.Warn("Loading baselines from database failed, trying file", "error", err)
		case t.Len() > 0:
			logger.Info("Baselines loaded", "source", t.Source(), "entries", t.Len())
			return t, nil
		}
	}

	if _, err := os.Stat(cfg.BaselinesPath); errors.Is(err, fs.ErrNotExist) {
		logger.Warn("No baselines file; comparisons will return raw per-90 values", "path", cfg.BaselinesPath)
		return baseline.NewTable("none", nil), nil
	}
	t, err := baseline.LoadFile(cfg.BaselinesPath)
	if err != nil {
		return nil, fmt.Errorf("load baselines: %w", err)
	}
	logger.Info("Baselines loaded", "source", t.Source(), "entries", t.Len())
	return t, nil
}

// --------------------------------------------------------------------------
// Baseline reload
// --------------------------------------------------------------------------

// ReloadBaselines replaces the engine's table with the database contents.
// An empty table is ignored so a truncated import never wipes baselines.
func (a *App) ReloadBaselines(ctx context.Context) error {
	if a.Pool == nil {
		return errors.New("reload baselines: no database configured")
	}
	v, err := a.version(ctx)
	if err != nil {
		a.Metrics.ObserveBaselineReload("error")
		return err
	}
	t, err := baseline.LoadFromDB(ctx, a.Pool)
	if err != nil {
		a.Metrics.ObserveBaselineReload("error")
		return fmt.Errorf("reload baselines: %w", err)
	}
	if t.Len() == 0 {
		a.Metrics.ObserveBaselineReload("empty")
		a.logger.Warn("Database holds no baselines; keeping current table", "source", a.Engine.Baselines().Source())
		return nil
	}

	a.Engine.SetBaselines(t)
	a.Metrics.SetBaselineEntries(t.Len())
	a.Metrics.ObserveBaselineReload("ok")
	a.mu.Lock()
	a.lastVersion = v
	a.mu.Unlock()
	a.logger.Info("Baselines reloaded", "source", t.Source(), "entries", t.Len())
	return nil
}

// refreshBaselines reloads only when the table changed since the last
// reload. It covers notifications missed while the listener was down.
func (a *App) refreshBaselines(ctx context.Context) error {
	v, err := a.version(ctx)
	if err != nil {
		return err
	}
	a.mu.Lock()
	same := v == a.lastVersion
	a.mu.Unlock()
	if same || v.rows == 0 {
		return nil
	}
	return a.ReloadBaselines(ctx)
}

func (a *App) version(ctx context.Context) (baselineVersion, error) {
	var v baselineVersion
	if err := a.Pool.QueryRow(ctx, "baselines_version").Scan(&v.rows, &v.updatedAt); err != nil {
		return v, fmt.Errorf("read baselines version: %w", err)
	}
	return v, nil
}

// MaintenanceTasks lists the periodic jobs the API server runs.
func (a *App) MaintenanceTasks(cfg *config.Config) []maintenance.Task {
	var tasks []maintenance.Task
	if a.Pool != nil {
		tasks = append(tasks, maintenance.Task{
			Name:     "baseline_refresh",
			Interval: cfg.BaselineRefreshInterval,
			Run:      a.refreshBaselines,
		})
	}
	return tasks
}

// Close releases the database pool.
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}
