// Package provider defines canonical data types that all stats sources
// normalize into. These structs are the contract between sources (live API,
// replay fixtures, cache) and the metric engine. Sources output these and
// the engine consumes them.
//
// Adding a new source means implementing Source. The engine never changes.
package provider

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/albapepper/footiq/internal/diag"
)

// RawStatPoint is one {type, value} entry of a provider statistics array.
// A nil Value means the provider sent the entry with a null value.
type RawStatPoint struct {
	TypeID int      `json:"type"`
	Value  *float64 `json:"value"`
}

// UnmarshalJSON accepts numeric, string, null and nested-object values.
func (p *RawStatPoint) UnmarshalJSON(b []byte) error {
	var raw struct {
		Type  int         `json:"type"`
		Value interface{} `json:"value"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	p.TypeID = raw.Type
	p.Value = nil
	if v, ok := ExtractValue(raw.Value); ok {
		p.Value = &v
	}
	return nil
}

// Candidate is one entity returned by a player search.
type Candidate struct {
	ID       int      `json:"id"`
	Name     string   `json:"name"`
	Team     string   `json:"team,omitempty"`
	Position string   `json:"position,omitempty"`
	Score    *float64 `json:"score,omitempty"`
}

// Game is one L1 game summary for an athlete. Statistics is the raw
// provider array for that athlete in that game.
type Game struct {
	ID         int            `json:"game_id"`
	Date       string         `json:"date,omitempty"` // "YYYY-MM-DD"
	HomeTeam   string         `json:"home_team,omitempty"`
	AwayTeam   string         `json:"away_team,omitempty"`
	Score      string         `json:"score,omitempty"`
	Statistics []RawStatPoint `json:"statistics"`
}

// Opponent is a best-effort "home vs away" label.
func (g Game) Opponent() string {
	switch {
	case g.HomeTeam != "" && g.AwayTeam != "":
		return g.HomeTeam + " vs " + g.AwayTeam
	case g.HomeTeam != "":
		return g.HomeTeam
	case g.AwayTeam != "":
		return g.AwayTeam
	default:
		return "Unknown"
	}
}

// PlayedOn parses Date. ok=false when the date is absent or malformed.
func (g Game) PlayedOn() (time.Time, bool) {
	if g.Date == "" {
		return time.Time{}, false
	}
	d := g.Date
	if len(d) > 10 {
		d = d[:10]
	}
	t, err := time.Parse("2006-01-02", d)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Lineup is the L2 detail for one athlete in one game.
type Lineup struct {
	GameID     int            `json:"game_id"`
	AthleteID  int            `json:"athlete_id"`
	Position   string         `json:"position,omitempty"`
	Statistics []RawStatPoint `json:"statistics"`
}

// Meta describes how a fetch was served.
type Meta struct {
	CacheHit    bool
	TTLLeft     time.Duration
	Diagnostics []diag.Diagnostic
}

// Source fetches raw provider data. Implementations: sportapi.Client (live),
// replay.Store (fixtures), Cached (TTL cache wrapper).
type Source interface {
	Search(ctx context.Context, query string) ([]Candidate, Meta, error)
	Games(ctx context.Context, athleteID, lastN int) ([]Game, Meta, error)
	Lineup(ctx context.Context, athleteID, gameID int) (*Lineup, Meta, error)
}

// NormalizeQuery lowercases and collapses whitespace in a search query.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(q)), " ")
}
