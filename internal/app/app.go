package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/utafrali/purchase-orders/internal/config"
	"github.com/utafrali/purchase-orders/internal/event"
	handler "github.com/utafrali/purchase-orders/internal/handler/http"
	"github.com/utafrali/purchase-orders/internal/service"
	"github.com/utafrali/purchase-orders/pkg/database"
	"github.com/utafrali/purchase-orders/pkg/health"
	pkgkafka "github.com/utafrali/purchase-orders/pkg/kafka"
	"github.com/utafrali/purchase-orders/pkg/middleware"
	"github.com/utafrali/purchase-orders/pkg/tracing"
)

// ServiceName identifies the HTTP service in logs, metrics, traces and
// event envelopes.
const ServiceName = "purchase-orders"

// App wires together all dependencies and runs the purchase order service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	store          *Store
	producer       *pkgkafka.Producer
	tracerShutdown func(context.Context) error
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing(ServiceName))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	store, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		_ = tracerShutdown(context.Background())
		return nil, err
	}
	if store.Pool != nil {
		database.RegisterPoolMetrics(store.Pool, ServiceName)
	}

	// A nil Publisher turns event publishing into a no-op.
	var publisher event.Publisher
	var producer *pkgkafka.Producer
	if cfg.KafkaEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = producer
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Build the dependency graph.
	eventProducer := event.NewProducer(publisher, ServiceName, logger)
	orderService := service.NewPurchaseOrderService(store.Orders, eventProducer, logger)

	healthHandler := newHealthHandler(store, producer)

	router := handler.NewRouter(orderService, healthHandler, logger, handler.RouterConfig{
		ServiceName: ServiceName,
		ProjectName: cfg.ProjectName,
		PprofCIDRs:  cfg.PprofAllowedCIDRs,
		CORS: middleware.CORSConfig{
			AllowedOrigins:   cfg.CORSOrigins,
			ExposedHeaders:   []string{middleware.CorrelationIDHeader},
			AllowCredentials: cfg.CORSAllowCredentials,
			Environment:      cfg.Environment,
		},
		RateLimit: middleware.RateLimitConfig{
			RPS:            cfg.RateLimitRPS,
			Burst:          cfg.RateLimitBurst,
			TrustedProxies: cfg.TrustedProxies,
		},
		RequestTimeout: cfg.RequestTimeout,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		store:          store,
		producer:       producer,
		tracerShutdown: tracerShutdown,
		httpServer:     httpServer,
	}, nil
}

// newHealthHandler registers PostgreSQL as critical and the optional Redis
// cache and Kafka brokers as non-critical readiness checks.
func newHealthHandler(store *Store, producer *pkgkafka.Producer) *health.Handler {
	h := health.NewHandler()
	if store.Pool != nil {
		h.RegisterCritical("postgres", store.Pool.Ping)
	}
	if store.Redis != nil {
		h.RegisterNonCritical("redis", func(ctx context.Context) error {
			return store.Redis.Ping(ctx).Err()
		})
	}
	if producer != nil {
		h.RegisterNonCritical("kafka", producer.Ping)
	}
	return h
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.Shutdown()
		return err
	}

	a.Shutdown()
	return nil
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	a.store.Close()

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}

	a.logger.Info("application shutdown complete")
}
