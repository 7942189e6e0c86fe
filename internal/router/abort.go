package router

import (
	"fmt"
	"strings"

	"github.com/albapepper/footiq/internal/diag"
	"github.com/albapepper/footiq/internal/provider"
)

// AbortCode is a terminal router outcome.
type AbortCode string

const (
	InsufficientContext AbortCode = "INSUFFICIENT_CONTEXT"
	PlayerNotFound      AbortCode = "PLAYER_NOT_FOUND"
	AmbiguousEntity     AbortCode = "AMBIGUOUS_ENTITY"
	InsufficientData    AbortCode = "INSUFFICIENT_DATA"
	UpstreamDown        AbortCode = "UPSTREAM_DOWN"
)

// Option is one disambiguation choice.
type Option struct {
	Label     string `json:"label"`
	AthleteID int    `json:"athlete_id"`
}

// Abort ends the current query before any tool runs.
type Abort struct {
	Code    AbortCode `json:"code"`
	Message string    `json:"message"`
	Options []Option  `json:"options,omitempty"`
}

func (a *Abort) Error() string {
	return string(a.Code) + ": " + a.Message
}

const (
	// ConfidenceThreshold is the search score at or above which a candidate
	// counts as a confident match. Candidates without a score count too.
	ConfidenceThreshold = 0.5
	// MaxOptions caps the disambiguation choices.
	MaxOptions = 5
	// MinGames is the game count below which a warning is attached.
	MinGames = 3
)

// ResolveEntity picks the single candidate a search resolves to. Zero
// candidates is PLAYER_NOT_FOUND. More than one confident candidate is
// AMBIGUOUS_ENTITY unless exactly one name equals the query.
func ResolveEntity(query string, candidates []provider.Candidate) (provider.Candidate, error) {
	if len(candidates) == 0 {
		return provider.Candidate{}, &Abort{
			Code:    PlayerNotFound,
			Message: fmt.Sprintf("No player found matching '%s'.", query),
		}
	}

	var confident []provider.Candidate
	for _, c := range candidates {
		if c.Score == nil || *c.Score >= ConfidenceThreshold {
			confident = append(confident, c)
		}
	}
	if len(confident) == 0 {
		confident = candidates
	}
	if len(confident) == 1 {
		return confident[0], nil
	}

	q := provider.NormalizeQuery(query)
	var exact []provider.Candidate
	for _, c := range confident {
		if provider.NormalizeQuery(c.Name) == q {
			exact = append(exact, c)
		}
	}
	if len(exact) == 1 {
		return exact[0], nil
	}

	opts := make([]Option, 0, MaxOptions)
	for _, c := range confident {
		if len(opts) == MaxOptions {
			break
		}
		team := c.Team
		if team == "" {
			team = "?"
		}
		opts = append(opts, Option{Label: fmt.Sprintf("%s (%s)", c.Name, team), AthleteID: c.ID})
	}
	return provider.Candidate{}, &Abort{
		Code:    AmbiguousEntity,
		Message: fmt.Sprintf("Multiple matches found for '%s'.", strings.TrimSpace(query)),
		Options: opts,
	}
}

// CheckGames gates on the number of games in the window. Zero games is
// INSUFFICIENT_DATA; fewer than MinGames returns an INSUFFICIENT_GAMES
// warning and lets the query proceed.
func CheckGames(athleteID, found int) (*diag.Diagnostic, error) {
	if found == 0 {
		return nil, &Abort{
			Code:    InsufficientData,
			Message: fmt.Sprintf("No games found for player %d in the requested window.", athleteID),
		}
	}
	if found < MinGames {
		d := diag.New(diag.InsufficientGames,
			map[string]any{"games_found": found, "threshold": MinGames},
			"Only %d game(s) available; results may be unreliable.", found)
		return &d, nil
	}
	return nil, nil
}
