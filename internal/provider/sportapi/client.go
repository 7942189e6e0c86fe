// Package sportapi provides the HTTP client for the RapidAPI-hosted football
// stats provider.
//
// Auth is sent as X-RapidAPI-Key / X-RapidAPI-Host headers. Responses are
// decoded straight into provider canonical types.
package sportapi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/albapepper/footiq/internal/provider"
)

// DefaultBaseURL is the provider's public endpoint.
const DefaultBaseURL = "https://sportapi7.p.rapidapi.com/api/v1"

// Client is the HTTP client for the provider. It implements provider.Source.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	apiHost    string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// NewClient creates a provider HTTP client with rate limiting.
func NewClient(baseURL, apiKey, apiHost string, requestsPerMinute int, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
		apiHost:    apiHost,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// get performs a rate-limited GET request and returns the raw body.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-RapidAPI-Key", c.apiKey)
	req.Header.Set("X-RapidAPI-Host", c.apiHost)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	c.logger.Debug("Provider request", "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return nil, &provider.UpstreamError{Endpoint: path, StatusCode: resp.StatusCode, Body: truncate(body, 200)}
	}
	return body, nil
}

// Search finds players by name.
func (c *Client) Search(ctx context.Context, query string) ([]provider.Candidate, provider.Meta, error) {
	body, err := c.get(ctx, "/search", url.Values{"q": {query}})
	if err != nil {
		return nil, provider.Meta{}, err
	}
	out, err := provider.DecodeSearch(body)
	if err != nil {
		return nil, provider.Meta{}, fmt.Errorf("decode search: %w", err)
	}
	return out, provider.Meta{}, nil
}

// Games fetches the athlete's most recent lastN game summaries.
func (c *Client) Games(ctx context.Context, athleteID, lastN int) ([]provider.Game, provider.Meta, error) {
	path := fmt.Sprintf("/athletes/%d/games", athleteID)
	body, err := c.get(ctx, path, url.Values{"limit": {strconv.Itoa(lastN)}})
	if err != nil {
		return nil, provider.Meta{}, err
	}
	out, err := provider.DecodeGames(body)
	if err != nil {
		return nil, provider.Meta{}, fmt.Errorf("decode games: %w", err)
	}
	return out, provider.Meta{}, nil
}

// Lineup fetches detailed per-game stats for one athlete.
func (c *Client) Lineup(ctx context.Context, athleteID, gameID int) (*provider.Lineup, provider.Meta, error) {
	path := fmt.Sprintf("/games/%d/lineups", gameID)
	body, err := c.get(ctx, path, url.Values{"athlete_id": {strconv.Itoa(athleteID)}})
	if err != nil {
		return nil, provider.Meta{}, err
	}
	out, err := provider.DecodeLineup(body)
	if err != nil {
		return nil, provider.Meta{}, fmt.Errorf("decode lineup: %w", err)
	}
	if out.GameID == 0 {
		out.GameID = gameID
	}
	if out.AthleteID == 0 {
		out.AthleteID = athleteID
	}
	return out, provider.Meta{}, nil
}

// truncate returns a truncated string for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
