// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/footiq.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// League registry: baseline keys for the competitions we carry
// --------------------------------------------------------------------------

type LeagueConfig struct {
	ID            string
	Name          string
	CurrentSeason string
}

var LeagueRegistry = map[string]LeagueConfig{
	"premier_league": {ID: "premier_league", Name: "Premier League", CurrentSeason: "2025_2026"},
	"la_liga":        {ID: "la_liga", Name: "La Liga", CurrentSeason: "2025_2026"},
	"bundesliga":     {ID: "bundesliga", Name: "Bundesliga", CurrentSeason: "2025_2026"},
	"serie_a":        {ID: "serie_a", Name: "Serie A", CurrentSeason: "2025_2026"},
	"ligue_1":        {ID: "ligue_1", Name: "Ligue 1", CurrentSeason: "2025_2026"},
}

// --------------------------------------------------------------------------
// Table and channel names, matching db.Schema
// --------------------------------------------------------------------------

const (
	BaselinesTable = "metric_baselines"
	// BaselinesChannel is the NOTIFY channel an import announces itself on.
	BaselinesChannel = "baselines_updated"
)

// Data modes accepted by DATA_MODE and per-request constraints.
const (
	DataModeLive   = "live"
	DataModeReplay = "replay"
)

// --------------------------------------------------------------------------
// Config struct, populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database (optional; baselines fall back to BaselinesPath)
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// Baseline reload (database only). Zero interval disables the sweep.
	BaselinesListen         bool
	BaselineRefreshInterval time.Duration

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	LogLevel    string

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Upstream stats provider (RapidAPI)
	SportAPIBaseURL           string
	SportAPIKey               string
	SportAPIHost              string
	SportAPIRequestsPerMinute int

	// Data sources
	DataMode      string // live, replay
	FixtureDir    string
	BaselinesPath string
	LineupWorkers int

	// Cache
	CacheEnabled bool
	CacheTTL     time.Duration

	// Baseline defaults when a request does not name them
	DefaultLeague   string
	DefaultSeason   string
	DefaultPosition string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:    envOr("DATABASE_URL", ""),
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 1),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 5),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		BaselinesListen:         envBool("BASELINES_LISTEN", true),
		BaselineRefreshInterval: time.Duration(envInt("BASELINE_REFRESH_MINUTES", 15)) * time.Minute,

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8001)),
		Environment: envOr("ENVIRONMENT", "development"),
		LogLevel:    envOr("LOG_LEVEL", "info"),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:5173",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		SportAPIBaseURL:           envOr("SPORTAPI_BASE_URL", "https://sportapi7.p.rapidapi.com/api/v1"),
		SportAPIKey:               envOr("SPORTAPI_KEY", ""),
		SportAPIHost:              envOr("SPORTAPI_HOST", "sportapi7.p.rapidapi.com"),
		SportAPIRequestsPerMinute: envInt("SPORTAPI_REQUESTS_PER_MINUTE", 120),

		DataMode:      strings.ToLower(envOr("DATA_MODE", DataModeLive)),
		FixtureDir:    envOr("FIXTURE_DIR", "testdata/fixtures/sportapi"),
		BaselinesPath: envOr("BASELINES_PATH", "config/baselines.json"),
		LineupWorkers: envInt("LINEUP_WORKERS", 4),

		CacheEnabled: envBool("CACHE_ENABLED", true),
		CacheTTL:     time.Duration(envInt("CACHE_TTL_S", 1800)) * time.Second,

		DefaultLeague:   envOr("DEFAULT_LEAGUE", "premier_league"),
		DefaultSeason:   envOr("DEFAULT_SEASON", LeagueRegistry["premier_league"].CurrentSeason),
		DefaultPosition: envOr("DEFAULT_POSITION", "all_positions"),
	}

	if cfg.DataMode != DataModeLive && cfg.DataMode != DataModeReplay {
		return nil, fmt.Errorf("DATA_MODE must be %q or %q, got %q", DataModeLive, DataModeReplay, cfg.DataMode)
	}
	if cfg.LineupWorkers < 1 {
		cfg.LineupWorkers = 1
	}
	return cfg, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// CurrentSeason returns the configured current season for a league,
// falling back to the process default.
func (c *Config) CurrentSeason(league string) string {
	if lc, ok := LeagueRegistry[league]; ok {
		return lc.CurrentSeason
	}
	return c.DefaultSeason
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
