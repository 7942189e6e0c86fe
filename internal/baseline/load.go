package baseline

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/albapepper/footiq/internal/metric"
)

type stat struct {
	Mean float64 `koanf:"mean"`
	Std  float64 `koanf:"std"`
	N    int     `koanf:"n"`
}

// LoadFile reads a baselines document nested as
// league -> season -> position -> metric -> {mean, std, n}. YAML and JSON
// files are both accepted. Unknown metric keys are rejected.
func LoadFile(path string) (*Table, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load baselines %s: %w", path, err)
	}

	var doc map[string]map[string]map[string]map[string]stat
	if err := k.Unmarshal("", &doc); err != nil {
		return nil, fmt.Errorf("decode baselines %s: %w", path, err)
	}

	var entries []Entry
	for league, seasons := range doc {
		for season, positions := range seasons {
			for position, metrics := range positions {
				for key, s := range metrics {
					if _, ok := metric.Get(metric.Key(key)); !ok {
						return nil, fmt.Errorf("baselines %s: unknown metric %q under %s/%s/%s",
							path, key, league, season, position)
					}
					entries = append(entries, Entry{
						League:    league,
						Season:    season,
						Position:  position,
						MetricKey: metric.Key(key),
						Mean:      s.Mean,
						Std:       s.Std,
						N:         s.N,
					})
				}
			}
		}
	}
	return NewTable("file:"+path, entries), nil
}

// Querier is satisfied by *pgxpool.Pool and *db.Pool.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// LoadFromDB reads every baseline row through the "baselines_all" prepared
// statement.
func LoadFromDB(ctx context.Context, q Querier) (*Table, error) {
	rows, err := q.Query(ctx, "baselines_all")
	if err != nil {
		return nil, fmt.Errorf("query baselines: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e   Entry
			key string
		)
		if err := rows.Scan(&e.League, &e.Season, &e.Position, &key, &e.Mean, &e.Std, &e.N); err != nil {
			return nil, fmt.Errorf("scan baseline: %w", err)
		}
		e.MetricKey = metric.Key(key)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate baselines: %w", err)
	}
	return NewTable("postgres", entries), nil
}
