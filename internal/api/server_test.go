package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/footiq/internal/baseline"
	"github.com/albapepper/footiq/internal/cache"
	"github.com/albapepper/footiq/internal/config"
	"github.com/albapepper/footiq/internal/engine"
	"github.com/albapepper/footiq/internal/provider/replay"
	"github.com/albapepper/footiq/internal/router"
	"github.com/albapepper/footiq/internal/telemetry"
)

func testConfig() *config.Config {
	return &config.Config{
		DataMode:          config.DataModeReplay,
		CORSAllowOrigins:  []string{"http://localhost:3000"},
		RateLimitRequests: 60,
		RateLimitWindow:   time.Minute,
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	table, err := baseline.LoadFile(filepath.Join("..", "..", "config", "baselines.json"))
	require.NoError(t, err)
	m := telemetry.New()
	e := engine.New(engine.Options{
		Replay:          replay.New(filepath.Join("..", "..", "testdata", "fixtures", "sportapi"), nil),
		Baselines:       table,
		Metrics:         m,
		DefaultDataMode: router.ModeReplay,
		DefaultLeague:   "premier_league",
		DefaultSeason:   "2025_2026",
	})
	return NewRouter(Deps{Engine: e, Cache: cache.New(true), Config: cfg, Metrics: m})
}

func do(h http.Handler, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t, testConfig())

	rec := do(h, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "not_configured", body["database"])

	rec = do(h, http.MethodGet, "/health/baselines", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Greater(t, body["entries"].(float64), 0.0)
	assert.True(t, strings.HasPrefix(body["source"].(string), "file:"))
}

func TestMetricDefinitions_ETag(t *testing.T) {
	h := newTestRouter(t, testConfig())

	rec := do(h, http.MethodGet, "/api/v1/metrics/definitions", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	body := decodeBody(t, rec)
	assert.Equal(t, 16.0, body["count"])

	rec = do(h, http.MethodGet, "/api/v1/metrics/definitions", "", map[string]string{"If-None-Match": etag})
	assert.Equal(t, http.StatusNotModified, rec.Code)

	rec = do(h, http.MethodGet, "/api/v1/metrics/definitions?depth=L1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 6.0, decodeBody(t, rec)["count"])

	rec = do(h, http.MethodGet, "/api/v1/metrics/definitions?depth=L9", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	errBody := decodeBody(t, rec)["error"].(map[string]any)
	assert.Equal(t, "INVALID_DEPTH", errBody["code"])
	assert.Equal(t, `got depth="L9"`, errBody["detail"])
}

func TestPostRoute(t *testing.T) {
	h := newTestRouter(t, testConfig())

	rec := do(h, http.MethodPost, "/api/v1/route", `{"query":"Why is Saka's xG dropping?","constraints":{"max_depth":"L1"}}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	d := body["decision"].(map[string]any)
	assert.Equal(t, "Deep", d["raw_tier"])
	assert.Equal(t, "Surface", d["tier"])
	assert.Equal(t, true, d["downgraded"])
	assert.NotEmpty(t, body["trace_id"])
	assert.NotEmpty(t, rec.Header().Get("X-Trace-Id"))

	rec = do(h, http.MethodPost, "/api/v1/route", `{"query":"Is he any good?"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	abort := decodeBody(t, rec)["abort"].(map[string]any)
	assert.Equal(t, "INSUFFICIENT_CONTEXT", abort["code"])

	rec = do(h, http.MethodPost, "/api/v1/route", `{"query":"x","constraints":{"data_mode":"offline"}}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPostAnalyze(t *testing.T) {
	h := newTestRouter(t, testConfig())
	traceID := "6f1c1a52-8c1e-4e55-9d0c-3f1b8f0b8a11"

	rec := do(h, http.MethodPost, "/api/v1/analyze", `{"query":"Saka goals this season?","entity":"Saka"}`,
		map[string]string{"X-Trace-Id": traceID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, traceID, body["trace_id"])
	assert.Equal(t, 934235.0, body["player"].(map[string]any)["id"])
	assert.Len(t, body["games"], 5)
	assert.NotEmpty(t, body["diagnostics"])

	metricsRec := do(h, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, metricsRec.Code)
	assert.Contains(t, metricsRec.Body.String(), `footiq_http_requests_total{method="POST",route="/api/v1/analyze",status_code="200"} 1`)
	assert.Contains(t, metricsRec.Body.String(), `footiq_engine_analyze_total{outcome="ok"} 1`)
}

func TestPostAnalyze_Errors(t *testing.T) {
	h := newTestRouter(t, testConfig())

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{name: "ambiguous", body: `{"query":"goals","entity":"Silva"}`, status: http.StatusConflict, code: "AMBIGUOUS_ENTITY"},
		{name: "not found", body: `{"query":"goals","entity":"nobody"}`, status: http.StatusNotFound, code: "PLAYER_NOT_FOUND"},
		{name: "pronoun", body: `{"query":"how did he play"}`, status: http.StatusUnprocessableEntity, code: "INSUFFICIENT_CONTEXT"},
		{name: "bad window", body: `{"query":"Saka","window":{"kind":"season","season":"2025"}}`, status: http.StatusBadRequest, code: "INVALID_REQUEST"},
		{name: "unknown field", body: `{"query":"Saka","sport":"nba"}`, status: http.StatusBadRequest, code: "INVALID_BODY"},
		{name: "not json", body: `nope`, status: http.StatusBadRequest, code: "INVALID_BODY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(h, http.MethodPost, "/api/v1/analyze", tt.body, nil)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			errBody := decodeBody(t, rec)["error"].(map[string]any)
			assert.Equal(t, tt.code, errBody["code"])
			assert.NotEmpty(t, errBody["trace_id"])
		})
	}

	rec := do(h, http.MethodPost, "/api/v1/analyze", `{"query":"goals","entity":"Silva"}`, nil)
	opts := decodeBody(t, rec)["error"].(map[string]any)["options"].([]any)
	assert.Len(t, opts, 2)
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitEnabled = true
	cfg.RateLimitRequests = 2
	h := newTestRouter(t, cfg)

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/health", "", nil).Code)
	rec := do(h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}
