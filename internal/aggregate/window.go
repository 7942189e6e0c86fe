package aggregate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/albapepper/footiq/internal/provider"
)

// WindowKind selects which games participate in an aggregation.
type WindowKind string

const (
	LastN     WindowKind = "last_n"
	Season    WindowKind = "season"
	DateRange WindowKind = "date_range"
)

const (
	// DefaultLastN applies when no window is given.
	DefaultLastN = 5
	// MaxFetch bounds the games requested for season and date_range windows.
	MaxFetch = 50
)

// Window is an aggregation window.
type Window struct {
	Kind   WindowKind `json:"kind"`
	N      int        `json:"n,omitempty"`
	Season string     `json:"season,omitempty"` // "2025_2026"
	From   string     `json:"from,omitempty"`   // inclusive, YYYY-MM-DD
	To     string     `json:"to,omitempty"`     // inclusive, YYYY-MM-DD
}

// DefaultWindow is last_n = 5.
func DefaultWindow() Window {
	return Window{Kind: LastN, N: DefaultLastN}
}

// Normalize fills defaults and validates the window.
func (w Window) Normalize() (Window, error) {
	switch w.Kind {
	case "":
		if w.N <= 0 {
			return DefaultWindow(), nil
		}
		w.Kind = LastN
		return w, nil
	case LastN:
		if w.N <= 0 {
			w.N = DefaultLastN
		}
		return w, nil
	case Season:
		if _, _, err := seasonBounds(w.Season); err != nil {
			return w, err
		}
		return w, nil
	case DateRange:
		from, to, err := w.dateBounds()
		if err != nil {
			return w, err
		}
		if to.Before(from) {
			return w, fmt.Errorf("date_range: from %s is after to %s", w.From, w.To)
		}
		return w, nil
	default:
		return w, fmt.Errorf("unknown window kind %q", w.Kind)
	}
}

// FetchLimit is how many recent games to request from a source.
func (w Window) FetchLimit() int {
	if w.Kind == LastN || w.Kind == "" {
		if w.N <= 0 {
			return DefaultLastN
		}
		return w.N
	}
	return MaxFetch
}

// Select returns the window's games, most recent first. The window should
// already be normalized. Undated games only participate in last_n windows.
func (w Window) Select(games []provider.Game) []provider.Game {
	ordered := make([]provider.Game, len(games))
	copy(ordered, games)
	sort.SliceStable(ordered, func(i, j int) bool {
		ti, oki := ordered[i].PlayedOn()
		tj, okj := ordered[j].PlayedOn()
		switch {
		case oki && okj:
			return ti.After(tj)
		default:
			return oki && !okj
		}
	})

	switch w.Kind {
	case Season:
		start, end, err := seasonBounds(w.Season)
		if err != nil {
			return nil
		}
		return filterDates(ordered, start, end.AddDate(0, 0, -1))
	case DateRange:
		from, to, err := w.dateBounds()
		if err != nil {
			return nil
		}
		return filterDates(ordered, from, to)
	default:
		n := w.N
		if n <= 0 {
			n = DefaultLastN
		}
		if len(ordered) > n {
			ordered = ordered[:n]
		}
		return ordered
	}
}

func filterDates(games []provider.Game, from, to time.Time) []provider.Game {
	var out []provider.Game
	for _, g := range games {
		d, ok := g.PlayedOn()
		if !ok || d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, g)
	}
	return out
}

func (w Window) dateBounds() (time.Time, time.Time, error) {
	from, err := time.Parse("2006-01-02", w.From)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("date_range from: %w", err)
	}
	to, err := time.Parse("2006-01-02", w.To)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("date_range to: %w", err)
	}
	return from, to, nil
}

// seasonBounds maps "2025_2026" to [2025-07-01, 2026-07-01).
func seasonBounds(season string) (time.Time, time.Time, error) {
	parts := strings.Split(season, "_")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid season %q", season)
	}
	start, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid season %q", season)
	}
	end, err := strconv.Atoi(parts[1])
	if err != nil || end != start+1 {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid season %q", season)
	}
	return time.Date(start, time.July, 1, 0, 0, 0, 0, time.UTC),
		time.Date(end, time.July, 1, 0, 0, 0, 0, time.UTC), nil
}
