// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking. Postgres is optional: it only backs the
// league baseline store.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/albapepper/footiq/internal/config"
)

// Schema creates the baseline table. Safe to run repeatedly.
const Schema = `
CREATE TABLE IF NOT EXISTS ` + config.BaselinesTable + ` (
	league         TEXT             NOT NULL,
	season         TEXT             NOT NULL,
	position_group TEXT             NOT NULL,
	metric_key     TEXT             NOT NULL,
	mean           DOUBLE PRECISION NOT NULL,
	std            DOUBLE PRECISION NOT NULL,
	n              INTEGER          NOT NULL,
	updated_at     TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
	PRIMARY KEY (league, season, position_group, metric_key)
)`

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// The table must exist before statements referencing it can be prepared.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if _, err := conn.Exec(ctx, Schema); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// Statements maps prepared statement names to SQL.
var Statements = map[string]string{
	// Health
	"health_check": "SELECT 1",

	// Baselines
	"baselines_all": "SELECT league, season, position_group, metric_key, mean, std, n FROM " +
		config.BaselinesTable + " ORDER BY league, season, position_group, metric_key",
	"baseline_upsert": "INSERT INTO " + config.BaselinesTable + ` (league, season, position_group, metric_key, mean, std, n)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (league, season, position_group, metric_key) DO UPDATE SET
			mean = EXCLUDED.mean,
			std = EXCLUDED.std,
			n = EXCLUDED.n,
			updated_at = NOW()`,
	"baselines_version": "SELECT COUNT(*), COALESCE(EXTRACT(EPOCH FROM MAX(updated_at))::bigint, 0) FROM " +
		config.BaselinesTable,
	"baselines_notify": "SELECT pg_notify('" + config.BaselinesChannel + "', $1)",
}

func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	for name, sql := range Statements {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
