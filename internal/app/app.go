package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/utafrali/reelreviews/internal/auth"
	"github.com/utafrali/reelreviews/internal/catalog"
	"github.com/utafrali/reelreviews/internal/config"
	"github.com/utafrali/reelreviews/internal/event"
	handler "github.com/utafrali/reelreviews/internal/handler/http"
	"github.com/utafrali/reelreviews/internal/resolver"
	"github.com/utafrali/reelreviews/internal/service"
	"github.com/utafrali/reelreviews/pkg/health"
	"github.com/utafrali/reelreviews/pkg/httpclient"
	pkgkafka "github.com/utafrali/reelreviews/pkg/kafka"
	"github.com/utafrali/reelreviews/pkg/middleware"
	"github.com/utafrali/reelreviews/pkg/tracing"
)

const serviceName = "reelreviews"

// App wires together all dependencies and runs the review API.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	store          *store
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	st, err := openStore(ctx, cfg, reg, logger)
	if err != nil {
		_ = tracerShutdown(context.Background())
		return nil, err
	}

	tmdbHTTP, err := newCatalogHTTP(cfg, reg, logger)
	if err != nil {
		releaseStartup(st, tracerShutdown, logger)
		return nil, err
	}

	// Kafka is optional. The event producer must receive a nil interface,
	// not a nil *Producer, when publishing is disabled.
	var (
		producer  *pkgkafka.Producer
		publisher event.Publisher
	)
	if cfg.EventsEnabled() {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = producer
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	} else {
		logger.Info("kafka brokers not configured, event publishing disabled")
	}

	// Build the dependency graph.
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiry, cfg.JWTIssuer)
	eventProducer := event.NewProducer(publisher, logger)
	accountService := service.NewAccountService(st.accounts, eventProducer, cfg.BcryptCost, logger)
	reviewService := service.NewReviewService(st.reviews, st.accounts, eventProducer, logger)
	tmdb := catalog.NewClient(tmdbHTTP, catalog.Config{
		BaseURL:  cfg.TMDBBaseURL,
		APIKey:   cfg.TMDBAPIKey,
		Language: cfg.TMDBLanguage,
	}, logger)
	res := resolver.New(accountService, reviewService, tmdb, jwtManager)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical(st.name, st.ping)
	if producer != nil {
		healthHandler.RegisterNonCritical("kafka", producer.Ping)
	}

	// HTTP router.
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins
	router := handler.NewRouter(handler.RouterConfig{
		Resolver: res,
		Verifier: jwtManager,
		Health:   healthHandler,
		Metrics:  middleware.NewHTTPMetrics(reg, serviceName),
		Gatherer: reg,
		CORS:     corsCfg,
		Logger:   logger,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		store:          st,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// newCatalogHTTP builds the TMDB client with retries disabled; the breaker and
// timeout bound it.
func newCatalogHTTP(cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger) (*httpclient.CircuitBreakerClient, error) {
	breakerMetrics, err := httpclient.NewBreakerMetrics(reg)
	if err != nil {
		return nil, fmt.Errorf("register breaker metrics: %w", err)
	}
	if cfg.TMDBAPIKey == "" {
		logger.Warn("TMDB_API_KEY is empty, popular movie requests will fail upstream")
	}
	return httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.Config{Timeout: cfg.TMDBTimeout, MaxRetries: 0}),
		httpclient.DefaultCircuitBreakerConfig("tmdb"),
		breakerMetrics,
		logger,
	), nil
}

// releaseStartup closes what NewApp opened before a later step failed.
func releaseStartup(st *store, tracerShutdown func(context.Context) error, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := st.close(ctx); err != nil {
		logger.Error("store close error", slog.String("store", st.name), slog.String("error", err.Error()))
	}
	if err := tracerShutdown(ctx); err != nil {
		logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.String("store", a.store.name),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka producer
// 4. Store
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests (5s budget).
	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 2. Flush pending spans after HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 3. Close Kafka producer.
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 4. Close the store.
	storeCtx, storeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer storeCancel()
	if err := a.store.close(storeCtx); err != nil {
		a.logger.Error("store close error", slog.String("store", a.store.name), slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
