package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/purchase-orders/internal/service"
	"github.com/utafrali/purchase-orders/pkg/health"
	"github.com/utafrali/purchase-orders/pkg/httputil"
	"github.com/utafrali/purchase-orders/pkg/middleware"
)

// RouterConfig carries the settings NewRouter needs from configuration.
type RouterConfig struct {
	ServiceName    string
	ProjectName    string
	PprofCIDRs     []string
	CORS           middleware.CORSConfig
	RateLimit      middleware.RateLimitConfig
	RequestTimeout time.Duration
}

// NewRouter creates a chi router with all purchase order routes registered.
func NewRouter(
	orderService *service.PurchaseOrderService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(cfg.RequestTimeout))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": cfg.ProjectName})
	})

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Handle("/metrics", promhttp.Handler())

	middleware.RegisterPprof(r, cfg.PprofCIDRs, logger)

	orderHandler := NewPurchaseOrderHandler(orderService, logger)

	r.Route("/api/purchase-orders", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimit, logger))
		r.Use(ContentTypeJSON)

		r.Get("/", orderHandler.ListPurchaseOrders)
		r.Post("/", orderHandler.CreatePurchaseOrder)
		r.Get("/cursor", orderHandler.ListPurchaseOrdersWithCursor)
		r.Get("/{id}", orderHandler.GetPurchaseOrder)
		r.Delete("/{id}", orderHandler.DeletePurchaseOrder)
	})

	return r
}
