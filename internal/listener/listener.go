// Package listener consumes baseline import announcements over Postgres
// LISTEN/NOTIFY. It holds a dedicated pgx connection (not from the pool)
// listening on config.BaselinesChannel and reloads the engine's baselines
// whenever an import lands.
package listener

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/albapepper/footiq/internal/config"
	"github.com/albapepper/footiq/internal/seed"
)

const (
	reconnectBackoff = 5 * time.Second
	maxReconnect     = 30 * time.Second
)

// ReloadFunc reloads baselines from the database.
type ReloadFunc func(ctx context.Context) error

// Start opens a dedicated connection and listens for baseline imports. It
// reconnects with backoff on connection loss and blocks until ctx is
// cancelled. Intended to be called with `go`.
func Start(ctx context.Context, dbURL string, reload ReloadFunc, logger *slog.Logger) {
	backoff := reconnectBackoff

	for {
		err := listenLoop(ctx, dbURL, reload, logger)
		if ctx.Err() != nil {
			logger.Info("Baseline listener stopped (context cancelled)")
			return
		}

		logger.Error("Baseline listener disconnected, reconnecting...",
			"error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return
		}
	}
}

// listenLoop runs a single listen session. Returns when the connection drops
// or the context is cancelled.
func listenLoop(ctx context.Context, dbURL string, reload ReloadFunc, logger *slog.Logger) error {
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+config.BaselinesChannel); err != nil {
		return fmt.Errorf("LISTEN %s: %w", config.BaselinesChannel, err)
	}
	logger.Info("Baseline listener connected", "channel", config.BaselinesChannel)

	// Imports that landed while disconnected are picked up here.
	if err := reload(ctx); err != nil {
		logger.Warn("Baseline reload after connect failed", "error", err)
	}

	for {
		n, err := conn.WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("wait for notification: %w", err)
		}
		handle(ctx, n.Payload, reload, logger)
	}
}

// handle reloads once per notification. Reloads run inline so two
// notifications never race to swap the table.
func handle(ctx context.Context, payload string, reload ReloadFunc, logger *slog.Logger) {
	ev, err := ParseEvent(payload)
	if err != nil {
		logger.Warn("Failed to parse baseline import event", "payload", payload, "error", err)
	} else {
		logger.Info("Baseline import event received",
			"source", ev.Source,
			"upserted", ev.Upserted,
			"age", time.Since(time.Unix(ev.Timestamp, 0)).Round(time.Second))
	}
	// A malformed payload still means the table changed.
	if err := reload(ctx); err != nil {
		logger.Warn("Baseline reload failed", "error", err)
	}
}

// ParseEvent decodes a NOTIFY payload written by seed.ImportBaselines.
func ParseEvent(payload string) (seed.ImportEvent, error) {
	var ev seed.ImportEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return ev, fmt.Errorf("decode import event: %w", err)
	}
	return ev, nil
}
