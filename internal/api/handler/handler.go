// Package handler provides HTTP handlers for all API endpoints. Handlers
// decode the request, call the engine and render its result; they hold no
// analysis logic of their own.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/albapepper/footiq/internal/api/respond"
	"github.com/albapepper/footiq/internal/cache"
	"github.com/albapepper/footiq/internal/config"
	"github.com/albapepper/footiq/internal/engine"
	"github.com/albapepper/footiq/internal/telemetry"
)

type ctxKey string

// TraceIDKey is the request context key holding the trace id.
const TraceIDKey ctxKey = "trace_id"

// HealthChecker is satisfied by *db.Pool.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	engine  *engine.Engine
	cache   *cache.Cache
	cfg     *config.Config
	db      HealthChecker
	metrics *telemetry.Metrics
	logger  *slog.Logger
}

// New creates a Handler. db may be nil when no database is configured.
func New(e *engine.Engine, c *cache.Cache, cfg *config.Config, db HealthChecker, m *telemetry.Metrics, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{engine: e, cache: c, cfg: cfg, db: db, metrics: m, logger: logger}
}

func traceID(r *http.Request) string {
	id, _ := r.Context().Value(TraceIDKey).(string)
	return id
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, status and the data mode in effect.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":      "FootIQ Metric Engine",
		"version":   "1.0.0",
		"status":    "running",
		"docs":      "/docs",
		"data_mode": h.cfg.DataMode,
	})
}

// HealthCheck returns basic health status, plus database reachability when a
// database is configured.
// @Summary Health check
// @Description Returns health status, cache statistics and database connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	body := map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"database":  "not_configured",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if h.db != nil {
		if err := h.db.HealthCheck(r.Context()); err != nil {
			h.logger.Warn("Database health check failed", "error", err)
			body["status"] = "unhealthy"
			body["database"] = "disconnected"
			respond.WriteJSONObject(w, http.StatusServiceUnavailable, body)
			return
		}
		body["database"] = "connected"
	}
	respond.WriteJSONObject(w, http.StatusOK, body)
}

// HealthBaselines reports the loaded baseline table.
// @Summary Baseline health
// @Description Returns where league baselines were loaded from and how many entries exist. Without baselines every comparison falls back to raw per-90 values.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/baselines [get]
func (h *Handler) HealthBaselines(w http.ResponseWriter, r *http.Request) {
	t := h.engine.Baselines()
	status := "healthy"
	if t.Len() == 0 {
		status = "degraded"
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    status,
		"source":    t.Source(),
		"entries":   t.Len(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
