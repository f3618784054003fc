// Package handler provides the HTTP surface of the CKBFS faucet.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Router wires the faucet routes.
type Router struct {
	claimHandler   *ClaimHandler
	authMiddleware func(http.Handler) http.Handler
	metrics        MetricsRecorder
	metricsPath    string
	health         HealthChecker
	logger         zerolog.Logger
}

// MetricsRecorder instruments requests and serves the scrape endpoint.
type MetricsRecorder interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	ClaimHandler   *ClaimHandler
	AuthMiddleware func(http.Handler) http.Handler

	// Metrics is optional. MetricsPath is only served when Metrics is set.
	Metrics     MetricsRecorder
	MetricsPath string

	// Health backs GET /health (optional).
	Health HealthChecker

	Logger zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(config RouterConfig) *Router {
	return &Router{
		claimHandler:   config.ClaimHandler,
		authMiddleware: config.AuthMiddleware,
		metrics:        config.Metrics,
		metricsPath:    config.MetricsPath,
		health:         config.Health,
		logger:         config.Logger.With().Str("component", "router").Logger(),
	}
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(rt.requestLogger)
	r.Use(middleware.Recoverer)
	if rt.metrics != nil {
		r.Use(rt.metrics.Middleware)
	}

	// Liveness (no negotiation, no auth)
	r.Get("/health", rt.handleHealth)

	if rt.metrics != nil && rt.metricsPath != "" {
		r.Method(http.MethodGet, rt.metricsPath, rt.metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		// Quota report is public, like liveness.
		r.Get("/health", rt.claimHandler.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(Negotiate)
			r.Use(rt.authMiddleware)
			rt.claimHandler.RegisterRoutes(r)
		})
	})

	return r
}

// handleHealth handles liveness requests.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if rt.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := rt.health.Health(ctx); err != nil {
			rt.logger.Warn().Err(err).Msg("health check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy"}`))
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// requestLogger logs one line per request at debug level, and at warn for
// server errors.
func (rt *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		event := rt.logger.Debug()
		if ww.Status() >= http.StatusInternalServerError {
			event = rt.logger.Warn()
		}
		event.
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
