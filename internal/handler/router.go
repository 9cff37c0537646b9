package handler

import (
	"net/http"
	"time"

	"github.com/danasys/invoice-bfa-go/internal/domain"
	"github.com/danasys/invoice-bfa-go/internal/infra/observability"
	"github.com/danasys/invoice-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// svc may be nil, in which case only the operational endpoints respond.
func NewRouter(svc *service.InvoiceService, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc))
	r.Get("/readyz", readyzHandler(svc))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	r.Get("/v1/metrics/invoices", invoiceMetricsHandler(metrics))

	if svc == nil {
		return r
	}

	// --- Invoices ---
	r.Route("/api/order/invoice/{orderId}", func(r chi.Router) {
		r.Use(OrderIDMiddleware(logger))
		r.Get("/", getInvoiceHandler(svc, logger))
		r.Get("/download", downloadInvoiceHandler(svc, logger))
		r.Delete("/cache", invalidateInvoiceHandler(svc, logger))
	})

	return r
}

func healthzHandler(svc *service.InvoiceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		self := domain.ServiceHealth{
			Name:        "invoice-bfa",
			Status:      service.StatusHealthy,
			LastChecked: time.Now().UTC().Format(time.RFC3339),
		}
		if svc == nil {
			writeJSON(w, http.StatusOK, domain.HealthStatus{Status: service.StatusHealthy, Services: []domain.ServiceHealth{self}})
			return
		}

		h := svc.CheckHealth(r.Context())
		h.Services = append([]domain.ServiceHealth{self}, h.Services...)
		writeJSON(w, http.StatusOK, h)
	}
}

func readyzHandler(svc *service.InvoiceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc != nil && svc.CheckHealth(r.Context()).Status == service.StatusUnhealthy {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func invoiceMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetInvoiceSnapshot())
	}
}
