package provider

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ExtractValue normalizes a stat value from various API response formats.
//
// The stats API mostly returns flat numbers, occasionally numeric strings,
// and for some stat types dicts like {"total": 3, "accurate": 2}. This
// handles all of them, extracting the aggregate.
//
// Returns the scalar float64 value, and ok=false if not extractable.
func ExtractValue(val interface{}) (float64, bool) {
	if val == nil {
		return 0, false
	}

	switch v := val.(type) {
	case float64:
		return finite(v)
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return finite(f)
	case bool:
		// Boolean flags are not numeric stats.
		return 0, false
	case string:
		s := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "%"))
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return finite(f)
		}
		return 0, false
	case map[string]interface{}:
		// Nested objects: try "total", "value", "all", "count", "average"
		for _, key := range []string{"total", "value", "all", "count", "average"} {
			if inner, exists := v[key]; exists && inner != nil {
				return ExtractValue(inner)
			}
		}
		return 0, false
	default:
		return 0, false
	}
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// --------------------------------------------------------------------------
// Wire decoding shared by the live client and replay fixtures
// --------------------------------------------------------------------------

type searchRow struct {
	Entity *struct {
		ID       int    `json:"id"`
		Name     string `json:"name"`
		Position string `json:"position"`
		Team     *struct {
			Name string `json:"name"`
		} `json:"team"`
	} `json:"entity"`
	ID       int             `json:"id"`
	Name     string          `json:"name"`
	Team     json.RawMessage `json:"team"`
	Position string          `json:"position"`
	Score    interface{}     `json:"score"`
}

// DecodeSearch parses a search payload. Both {"results": [...]} and a bare
// array are accepted, with rows either wrapped in "entity" or flat. Rows
// without an id or name are dropped.
func DecodeSearch(body []byte) ([]Candidate, error) {
	var rows []searchRow
	var wrapped struct {
		Results []searchRow `json:"results"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil {
		rows = wrapped.Results
	} else if err := json.Unmarshal(body, &rows); err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(rows))
	for _, r := range rows {
		c := Candidate{ID: r.ID, Name: r.Name, Position: r.Position, Team: teamName(r.Team)}
		if r.Entity != nil {
			c = Candidate{ID: r.Entity.ID, Name: r.Entity.Name, Position: r.Entity.Position}
			if r.Entity.Team != nil {
				c.Team = r.Entity.Team.Name
			}
		}
		if s, ok := ExtractValue(r.Score); ok {
			c.Score = &s
		}
		if c.ID == 0 || c.Name == "" {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// teamName accepts "team": "Arsenal" or "team": {"name": "Arsenal"}.
func teamName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Name
	}
	return ""
}

// DecodeGames parses an athlete games payload: {"games": [...]}.
func DecodeGames(body []byte) ([]Game, error) {
	var payload struct {
		Games []struct {
			Game
			Score interface{} `json:"score"`
		} `json:"games"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	games := make([]Game, 0, len(payload.Games))
	for _, g := range payload.Games {
		game := g.Game
		game.Score = scoreLabel(g.Score)
		games = append(games, game)
	}
	return games, nil
}

// scoreLabel renders "2-1" strings or {"home": 2, "away": 1} objects.
func scoreLabel(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case map[string]interface{}:
		h, hok := ExtractValue(s["home"])
		a, aok := ExtractValue(s["away"])
		if hok && aok {
			return strconv.Itoa(int(h)) + "-" + strconv.Itoa(int(a))
		}
	}
	return ""
}

// DecodeLineup parses a lineup payload: {"lineup": {...}}.
func DecodeLineup(body []byte) (*Lineup, error) {
	var payload struct {
		Lineup *Lineup `json:"lineup"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, err
	}
	if payload.Lineup == nil {
		return &Lineup{}, nil
	}
	return payload.Lineup, nil
}
