package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/albapepper/footiq/internal/baseline"
	"github.com/albapepper/footiq/internal/metric"
)

// Execer is satisfied by *pgxpool.Pool and *db.Pool.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ImportEvent is the payload announced on config.BaselinesChannel after an
// import wrote at least one row.
type ImportEvent struct {
	Source    string `json:"source"`
	Upserted  int    `json:"upserted"`
	Timestamp int64  `json:"ts"`
}

// ImportBaselines upserts every entry of t through the "baseline_upsert"
// prepared statement. Invalid entries are skipped and recorded; a failed
// write is recorded and the import continues unless ctx is done. Listening
// API servers are notified through "baselines_notify".
func ImportBaselines(ctx context.Context, db Execer, t *baseline.Table, logger *slog.Logger) SeedResult {
	var result SeedResult
	for _, e := range t.Entries() {
		if ctx.Err() != nil {
			result.AddErrorf("import aborted: %v", ctx.Err())
			return result
		}
		if reason := invalid(e); reason != "" {
			result.BaselinesSkipped++
			result.AddErrorf("skip %s/%s/%s/%s: %s", e.League, e.Season, e.Position, e.MetricKey, reason)
			continue
		}
		if _, err := db.Exec(ctx, "baseline_upsert",
			e.League, e.Season, e.Position, string(e.MetricKey), e.Mean, e.Std, e.N,
		); err != nil {
			result.AddErrorf("upsert %s/%s/%s/%s: %v", e.League, e.Season, e.Position, e.MetricKey, err)
			continue
		}
		result.BaselinesUpserted++
	}

	if result.BaselinesUpserted > 0 {
		if err := notify(ctx, db, ImportEvent{
			Source:    t.Source(),
			Upserted:  result.BaselinesUpserted,
			Timestamp: time.Now().Unix(),
		}); err != nil {
			result.AddErrorf("notify: %v", err)
		}
	}

	logger.Info("Baseline import complete",
		"source", t.Source(),
		"upserted", result.BaselinesUpserted,
		"skipped", result.BaselinesSkipped,
		"errors", len(result.Errors))
	return result
}

func notify(ctx context.Context, db Execer, ev ImportEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode import event: %w", err)
	}
	if _, err := db.Exec(ctx, "baselines_notify", string(payload)); err != nil {
		return err
	}
	return nil
}

func invalid(e baseline.Entry) string {
	switch {
	case e.League == "" || e.Season == "" || e.Position == "":
		return "missing context"
	case !knownMetric(e.MetricKey):
		return "unknown metric"
	case math.IsNaN(e.Mean) || math.IsInf(e.Mean, 0):
		return "mean is not finite"
	case math.IsNaN(e.Std) || e.Std < 0:
		return "std must be a non-negative number"
	case e.N < 0:
		return "n must be non-negative"
	}
	return ""
}

func knownMetric(k metric.Key) bool {
	_, ok := metric.Get(k)
	return ok
}
