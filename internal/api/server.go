// Package api wires the chi router, middleware stack and handlers.
package api

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/albapepper/footiq/internal/api/handler"
	"github.com/albapepper/footiq/internal/cache"
	"github.com/albapepper/footiq/internal/config"
	"github.com/albapepper/footiq/internal/engine"
	"github.com/albapepper/footiq/internal/telemetry"
)

// Deps are the router's dependencies. DB may be nil.
type Deps struct {
	Engine  *engine.Engine
	Cache   *cache.Cache
	Config  *config.Config
	DB      handler.HealthChecker
	Metrics *telemetry.Metrics
	Logger  *slog.Logger
}

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(d Deps) *chi.Mux {
	cfg := d.Config
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TraceMiddleware)
	r.Use(TimingMiddleware(d.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "If-None-Match", "Cache-Control", "X-Trace-Id"},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "X-Trace-Id", "ETag"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	h := handler.New(d.Engine, d.Cache, cfg, d.DB, d.Metrics, d.Logger)

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/baselines", h.HealthBaselines)
	})

	// Prometheus
	r.Handle("/metrics", d.Metrics.Handler())

	// Swagger UI
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/metrics/definitions", h.GetMetricDefinitions)
		r.Post("/route", h.PostRoute)
		r.Post("/analyze", h.PostAnalyze)
	})

	return r
}
