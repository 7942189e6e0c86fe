// Package extract applies the registry's missing-data rules to one game's raw
// statistics array.
package extract

import (
	"fmt"

	"github.com/albapepper/footiq/internal/diag"
	"github.com/albapepper/footiq/internal/metric"
	"github.com/albapepper/footiq/internal/provider"
)

// Value is one metric read from one game. A nil Value means the data is
// genuinely unavailable; it is never a stand-in for zero.
type Value struct {
	Key    metric.Key `json:"metric_key"`
	Value  *float64   `json:"value"`
	GameID int        `json:"game_ref"`
}

// UnregisteredMetricError is returned when a caller asks for a key the
// registry does not define. It is a code bug, not a data condition.
type UnregisteredMetricError struct {
	Key metric.Key
}

func (e *UnregisteredMetricError) Error() string {
	return fmt.Sprintf("unregistered metric %q", e.Key)
}

// Extract resolves key against stats for gameID.
//
// An absent entry and an entry with a null value are treated the same: 0 for
// true_zero metrics, nil for missing metrics. A numeric value, zero included,
// is used as is.
func Extract(stats []provider.RawStatPoint, key metric.Key, gameID int) (Value, error) {
	def, ok := metric.Get(key)
	if !ok || !def.HasTypeID() {
		return Value{}, &UnregisteredMetricError{Key: key}
	}

	out := Value{Key: key, GameID: gameID}
	for _, p := range stats {
		if p.TypeID != def.TypeID {
			continue
		}
		if p.Value != nil {
			v := *p.Value
			out.Value = &v
			return out, nil
		}
		break
	}

	if def.Missing == metric.TrueZero {
		zero := 0.0
		out.Value = &zero
	}
	return out, nil
}

// ScanUnknown reports every type ID in stats that the registry does not know.
func ScanUnknown(stats []provider.RawStatPoint, gameID int, c *diag.Collector) {
	for _, p := range stats {
		if _, ok := metric.Lookup(p.TypeID); !ok {
			c.UnknownTypeID(p.TypeID, gameID)
		}
	}
}

// Game extracts keys from one game's stats and reports unknown type IDs to c.
func Game(stats []provider.RawStatPoint, keys []metric.Key, gameID int, c *diag.Collector) (map[metric.Key]Value, error) {
	out := make(map[metric.Key]Value, len(keys))
	for _, k := range keys {
		v, err := Extract(stats, k, gameID)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	if c != nil {
		ScanUnknown(stats, gameID, c)
	}
	return out, nil
}
