package telemetry

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.ObserveAnalyze("ok", 20*time.Millisecond)
	m.ObserveAnalyze("PLAYER_NOT_FOUND", time.Millisecond)
	m.ObserveAnalyze("ok", time.Millisecond)
	m.ObserveDiagnostic("INSUFFICIENT_MINUTES")
	m.ObserveFetch("games", "cache_hit", time.Millisecond)
	m.SetBaselineEntries(12)
	m.ObserveBaselineReload("ok")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.analyzeTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.analyzeTotal.WithLabelValues("PLAYER_NOT_FOUND")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.diagnostics.WithLabelValues("INSUFFICIENT_MINUTES")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues("games", "cache_hit")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.baselineEntries))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.baselineReloads.WithLabelValues("ok")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAnalyze("ok", time.Second)
		m.ObserveDecision("Surface", "L1", "live")
		m.ObserveDiagnostic("X")
		m.ObserveFetch("search", "ok", time.Second)
		m.ObserveHTTP("/health", "GET", 200, time.Second)
		m.SetBaselineEntries(1)
		m.ObserveBaselineReload("error")
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveHTTP("/api/v1/route", http.MethodPost, 200, time.Millisecond)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `footiq_http_requests_total{method="POST",route="/api/v1/route",status_code="200"} 1`)
}
