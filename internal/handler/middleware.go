package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type contextKey string

const orderIDKey contextKey = "orderID"

// OrderIDMiddleware parses the {orderId} route parameter and injects it into
// the request context. Non-numeric ids are rejected with an empty 400.
func OrderIDMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := chi.URLParam(r, "orderId")
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				logger.Debug("invalid order id",
					zap.String("path", r.URL.Path),
					zap.String("order_id", raw),
				)
				w.WriteHeader(http.StatusBadRequest)
				return
			}

			ctx := context.WithValue(r.Context(), orderIDKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OrderIDFromContext extracts the parsed order id from context.
func OrderIDFromContext(ctx context.Context) (int64, bool) {
	v, ok := ctx.Value(orderIDKey).(int64)
	return v, ok
}
