// Package replay serves provider data from static JSON fixtures. Nothing in
// this package touches the network.
package replay

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/albapepper/footiq/internal/diag"
	"github.com/albapepper/footiq/internal/provider"
)

// Store reads fixtures from a directory. It implements provider.Source.
type Store struct {
	dir    string
	logger *slog.Logger
}

// New creates a Store rooted at dir.
func New(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, logger: logger}
}

// Dir is the fixture directory.
func (s *Store) Dir() string { return s.dir }

var unsafeChars = regexp.MustCompile(`[^a-z0-9\s_-]`)

// SearchCandidates lists the fixture names tried for query, in order: the
// normalized query, its hyphen and underscore forms, then the last token
// (surname) and the first token.
func SearchCandidates(query string) []string {
	normalized := strings.Join(strings.Fields(unsafeChars.ReplaceAllString(strings.ToLower(query), " ")), " ")
	tokens := strings.Fields(normalized)

	var names []string
	if normalized != "" {
		names = append(names,
			"search_entity__"+normalized+".json",
			"search_entity__"+strings.ReplaceAll(normalized, " ", "-")+".json",
			"search_entity__"+strings.ReplaceAll(normalized, " ", "_")+".json",
		)
	}
	if len(tokens) > 1 {
		names = append(names,
			"search_entity__"+tokens[len(tokens)-1]+".json",
			"search_entity__"+tokens[0]+".json",
		)
	}

	seen := make(map[string]bool, len(names))
	out := names[:0]
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}

// GamesFixture is the fixture name for an athlete's last-N games.
func GamesFixture(athleteID, lastN int) string {
	return fmt.Sprintf("athletes_games__%d__last%d.json", athleteID, lastN)
}

// LineupFixture is the fixture name for one athlete's lineup in one game.
func LineupFixture(athleteID, gameID int) string {
	return fmt.Sprintf("athlete_lineup__%d__%d.json", athleteID, gameID)
}

func (s *Store) Search(_ context.Context, query string) ([]provider.Candidate, provider.Meta, error) {
	attempted := SearchCandidates(query)
	for _, name := range attempted {
		body, err := s.read(name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, provider.Meta{}, err
		}
		out, err := provider.DecodeSearch(body)
		if err != nil {
			return nil, provider.Meta{}, fmt.Errorf("decode fixture %s: %w", name, err)
		}
		return out, replayMeta(name), nil
	}

	s.logger.Warn("Fixture not found", "query", query, "attempted", attempted)
	return nil, provider.Meta{Diagnostics: []diag.Diagnostic{diag.New(diag.DataModeReplay,
		map[string]any{"attempted_fixtures": attempted, "source": "fixture"},
		"Fixture missing for query '%s'", query)}}, &provider.FixtureError{Attempted: attempted}
}

// Games reads the athlete's last-N fixture. Without an exact match it falls
// back to the largest last-N fixture recorded for the athlete; callers trim
// or filter through the aggregation window.
func (s *Store) Games(_ context.Context, athleteID, lastN int) ([]provider.Game, provider.Meta, error) {
	name := GamesFixture(athleteID, lastN)
	if _, err := os.Stat(filepath.Join(s.dir, name)); errors.Is(err, fs.ErrNotExist) {
		if alt, ok := s.largestGamesFixture(athleteID); ok {
			s.logger.Debug("Using nearest games fixture", "wanted", name, "fixture", alt)
			name = alt
		}
	}
	body, err := s.load(name)
	if err != nil {
		return nil, missingMeta(name, err), err
	}
	out, err := provider.DecodeGames(body)
	if err != nil {
		return nil, provider.Meta{}, fmt.Errorf("decode fixture %s: %w", name, err)
	}
	return out, replayMeta(name), nil
}

func (s *Store) Lineup(_ context.Context, athleteID, gameID int) (*provider.Lineup, provider.Meta, error) {
	name := LineupFixture(athleteID, gameID)
	body, err := s.load(name)
	if err != nil {
		return nil, missingMeta(name, err), err
	}
	out, err := provider.DecodeLineup(body)
	if err != nil {
		return nil, provider.Meta{}, fmt.Errorf("decode fixture %s: %w", name, err)
	}
	if out.GameID == 0 {
		out.GameID = gameID
	}
	if out.AthleteID == 0 {
		out.AthleteID = athleteID
	}
	return out, replayMeta(name), nil
}

// largestGamesFixture finds athletes_games__<id>__last<N>.json with the
// highest N.
func (s *Store) largestGamesFixture(athleteID int) (string, bool) {
	prefix := fmt.Sprintf("athletes_games__%d__last", athleteID)
	matches, err := filepath.Glob(filepath.Join(s.dir, prefix+"*.json"))
	if err != nil {
		return "", false
	}
	best, bestN := "", 0
	for _, m := range matches {
		base := filepath.Base(m)
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(base, prefix), ".json"))
		if err != nil || n <= bestN {
			continue
		}
		best, bestN = base, n
	}
	return best, best != ""
}

func (s *Store) read(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.dir, name))
}

// load reads name, mapping a missing file to *provider.FixtureError.
func (s *Store) load(name string) ([]byte, error) {
	body, err := s.read(name)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("Fixture not found", "fixture", name)
		return nil, &provider.FixtureError{Attempted: []string{name}}
	}
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", name, err)
	}
	return body, nil
}

func replayMeta(fixture string) provider.Meta {
	return provider.Meta{Diagnostics: []diag.Diagnostic{diag.New(diag.DataModeReplay,
		map[string]any{"fixture": fixture, "source": "fixture"},
		"DATA_MODE=replay active. Using static fixtures.")}}
}

func missingMeta(fixture string, err error) provider.Meta {
	if !errors.Is(err, provider.ErrFixtureNotFound) {
		return provider.Meta{}
	}
	return provider.Meta{Diagnostics: []diag.Diagnostic{diag.New(diag.DataModeReplay,
		map[string]any{"fixture": fixture, "source": "fixture"},
		"Fixture missing: %s", fixture)}}
}
