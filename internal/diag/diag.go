// Package diag carries the non-fatal diagnostics attached to a response.
package diag

import "fmt"

// Code identifies a diagnostic.
type Code string

const (
	NormalizationGap    Code = "NORMALIZATION_GAP"
	InsufficientMinutes Code = "INSUFFICIENT_MINUTES"
	BaselineMissing     Code = "BASELINE_MISSING"
	InsufficientGames   Code = "INSUFFICIENT_GAMES"
	MetricUnavailable   Code = "METRIC_UNAVAILABLE"
	DataModeReplay      Code = "DATA_MODE_REPLAY"
	UsedCachedData      Code = "USED_CACHED_DATA"
)

// Diagnostic is one non-fatal data-quality signal.
type Diagnostic struct {
	Code    Code           `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

// New builds a diagnostic with a formatted message. details may be nil.
func New(code Code, details map[string]any, format string, args ...any) Diagnostic {
	if details == nil {
		details = map[string]any{}
	}
	return Diagnostic{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: details,
	}
}

// Collector accumulates the diagnostics of a single response. Unknown
// provider type IDs are folded into one NORMALIZATION_GAP per ID. A
// Collector is not safe for concurrent use.
type Collector struct {
	items   []Diagnostic
	gaps    map[int][]int
	gapSeen []int
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{gaps: make(map[int][]int)}
}

// Add appends diagnostics in order.
func (c *Collector) Add(ds ...Diagnostic) {
	c.items = append(c.items, ds...)
}

// UnknownTypeID records an unresolved provider type ID seen in a game.
func (c *Collector) UnknownTypeID(typeID, gameID int) {
	games, seen := c.gaps[typeID]
	if !seen {
		c.gapSeen = append(c.gapSeen, typeID)
	}
	for _, g := range games {
		if g == gameID {
			return
		}
	}
	c.gaps[typeID] = append(games, gameID)
}

// Diagnostics returns the collected diagnostics followed by one
// NORMALIZATION_GAP per unknown type ID, in first-seen order.
func (c *Collector) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, 0, len(c.items)+len(c.gapSeen))
	out = append(out, c.items...)
	for _, id := range c.gapSeen {
		games := append([]int(nil), c.gaps[id]...)
		out = append(out, New(NormalizationGap,
			map[string]any{"unknown_type_id": id, "game_ids": games},
			"Unknown stat type ID %d encountered in %d game(s)", id, len(games)))
	}
	return out
}

// Has reports whether any collected diagnostic carries code.
func (c *Collector) Has(code Code) bool {
	for _, d := range c.Diagnostics() {
		if d.Code == code {
			return true
		}
	}
	return false
}
