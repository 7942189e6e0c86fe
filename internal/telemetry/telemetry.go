// Package telemetry provides the Prometheus metrics of the FootIQ service.
package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "footiq"

// Metrics holds every collector on a private registry. A nil *Metrics is a
// valid no-op recorder.
type Metrics struct {
	registry *prometheus.Registry

	analyzeTotal    *prometheus.CounterVec
	analyzeDuration prometheus.Histogram
	decisions       *prometheus.CounterVec
	diagnostics     *prometheus.CounterVec
	fetches         *prometheus.CounterVec
	fetchDuration   *prometheus.HistogramVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	baselineEntries prometheus.Gauge
	baselineReloads *prometheus.CounterVec
}

// New registers all collectors on a fresh registry, plus the Go and process
// collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	auto := promauto.With(reg)

	return &Metrics{
		registry: reg,
		analyzeTotal: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "analyze_total",
			Help:      "Analyze requests by outcome (ok, an abort code, or error).",
		}, []string{"outcome"}),
		analyzeDuration: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "analyze_duration_seconds",
			Help:      "End-to-end analyze latency.",
			Buckets:   prometheus.DefBuckets,
		}),
		decisions: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "router",
			Name:      "decisions_total",
			Help:      "Router decisions by final tier and depth.",
		}, []string{"tier", "depth", "data_mode"}),
		diagnostics: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "diagnostics_total",
			Help:      "Diagnostics attached to responses, by code.",
		}, []string{"code"}),
		fetches: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "fetches_total",
			Help:      "Provider fetches by operation and result.",
		}, []string{"op", "result"}),
		fetchDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "provider",
			Name:      "fetch_duration_seconds",
			Help:      "Provider fetch latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status_code"}),
		httpDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		baselineEntries: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "baseline",
			Name:      "entries",
			Help:      "Baseline entries currently loaded.",
		}),
		baselineReloads: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "baseline",
			Name:      "reloads_total",
			Help:      "Baseline reloads from the database by result.",
		}, []string{"result"}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveAnalyze records one analyze call.
func (m *Metrics) ObserveAnalyze(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.analyzeTotal.WithLabelValues(outcome).Inc()
	m.analyzeDuration.Observe(elapsed.Seconds())
}

// ObserveDecision records a router decision.
func (m *Metrics) ObserveDecision(tier, depth, dataMode string) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(tier, depth, dataMode).Inc()
}

// ObserveDiagnostic counts one diagnostic code.
func (m *Metrics) ObserveDiagnostic(code string) {
	if m == nil {
		return
	}
	m.diagnostics.WithLabelValues(code).Inc()
}

// ObserveFetch records one provider fetch; result is "ok", "cache_hit" or
// "error".
func (m *Metrics) ObserveFetch(op, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(op, result).Inc()
	m.fetchDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveHTTP records one HTTP request.
func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// SetBaselineEntries records the size of the loaded baseline table.
func (m *Metrics) SetBaselineEntries(n int) {
	if m == nil {
		return
	}
	m.baselineEntries.Set(float64(n))
}

// ObserveBaselineReload counts one reload; result is "ok", "empty" or
// "error".
func (m *Metrics) ObserveBaselineReload(result string) {
	if m == nil {
		return
	}
	m.baselineReloads.WithLabelValues(result).Inc()
}
