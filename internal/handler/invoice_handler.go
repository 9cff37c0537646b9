package handler

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/danasys/invoice-bfa-go/internal/domain"
	"github.com/danasys/invoice-bfa-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Invoice: GET /api/order/invoice/{orderId}
// ============================================================

func getInvoiceHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/order/invoice/{orderId}")
		defer span.End()

		orderID, _ := OrderIDFromContext(ctx)
		span.SetAttributes(attribute.Int64("order.id", orderID))

		inv, err := svc.GetInvoice(ctx, orderID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, inv.Summary())
	}
}

// ============================================================
// Invoice download: GET /api/order/invoice/{orderId}/download?type=pdf
// ============================================================

func downloadInvoiceHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/order/invoice/{orderId}/download")
		defer span.End()

		orderID, _ := OrderIDFromContext(ctx)
		format := formatParam(r)
		span.SetAttributes(
			attribute.Int64("order.id", orderID),
			attribute.String("invoice.format", format),
		)

		doc, err := svc.RenderInvoice(ctx, orderID, format)
		if err != nil {
			span.RecordError(err)
			handleDownloadError(w, err, logger)
			return
		}

		h := w.Header()
		h.Set("Content-Type", doc.MIMEType)
		h.Set("Content-Disposition", mime.FormatMediaType(doc.Disposition(), map[string]string{"filename": doc.Filename}))
		h.Set("Content-Length", strconv.Itoa(len(doc.Body)))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(doc.Body); err != nil {
			logger.Warn("failed to write invoice body",
				zap.Int64("order_id", orderID),
				zap.Error(err),
			)
		}
	}
}

// ============================================================
// Cache invalidation: DELETE /api/order/invoice/{orderId}/cache
// ============================================================

func invalidateInvoiceHandler(svc *service.InvoiceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, _ := OrderIDFromContext(r.Context())
		svc.Invalidate(orderID)
		logger.Info("invoice cache invalidated", zap.Int64("order_id", orderID))
		w.WriteHeader(http.StatusNoContent)
	}
}

// formatParam reads ?type=, falling back to ?format= and then the default.
// A parameter that is present but empty is passed through and rejected later.
func formatParam(r *http.Request) string {
	q := r.URL.Query()
	switch {
	case q.Has("type"):
		return q.Get("type")
	case q.Has("format"):
		return q.Get("format")
	}
	return string(domain.DefaultFormat)
}
