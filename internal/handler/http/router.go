package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/reelreviews/internal/identity"
	"github.com/utafrali/reelreviews/internal/resolver"
	"github.com/utafrali/reelreviews/pkg/health"
	"github.com/utafrali/reelreviews/pkg/middleware"
)

// ServiceName labels metrics and spans emitted by the router.
const ServiceName = "reelreviews"

// RouterConfig carries the collaborators NewRouter wires together.
type RouterConfig struct {
	Resolver *resolver.Resolver
	Verifier identity.Verifier
	Health   *health.Handler
	Metrics  *middleware.HTTPMetrics
	Gatherer prometheus.Gatherer
	CORS     middleware.CORSConfig
	Logger   *slog.Logger
}

// NewRouter creates a chi router with the query endpoint, health checks and
// metrics registered.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.Tracing(ServiceName))
	r.Use(middleware.RequestLogger(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	// Health check endpoints
	r.Get("/health/live", cfg.Health.LivenessHandler())
	r.Get("/health/ready", cfg.Health.ReadinessHandler())
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	queryHandler := NewQueryHandler(cfg.Resolver, cfg.Logger)
	r.Group(func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Use(identity.Resolve(cfg.Verifier, cfg.Logger))

		r.Post("/query", queryHandler.Query)
	})

	return r
}
