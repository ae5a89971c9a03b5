// Package transport assembles the HTTP surface. It composes middleware and
// feature handlers so transport concerns remain isolated from domain logic.
package transport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"idregistry/internal/identity/handler"
	"idregistry/internal/platform/middleware"
)

// HealthChecker reports readiness of a backing dependency.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Options tune the transport layer.
type Options struct {
	// RateLimit caps requests per caller per RateLimitWindow. Zero disables
	// throttling.
	RateLimit       int
	RateLimitWindow time.Duration
}

// NewRouter wires all endpoints. Registry routes require a bearer token;
// health and metrics stay public for probes and scrapers.
func NewRouter(h *handler.Handler, signingKey string, logger *slog.Logger, opts Options, checks ...HealthChecker) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		for _, check := range checks {
			if err := check.Health(req.Context()); err != nil {
				logger.WarnContext(req.Context(), "health check failed", "error", err)
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestMetadata)
		r.Use(middleware.RequireAuth(signingKey, logger))
		if opts.RateLimit > 0 {
			throttle := middleware.NewThrottle(opts.RateLimit, opts.RateLimitWindow)
			r.Use(throttle.Middleware(logger))
		}
		h.Register(r)
	})

	return r
}
