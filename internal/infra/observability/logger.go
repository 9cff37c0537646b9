package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the service logger. "debug" selects a colorized console
// encoder for local work; any other level logs JSON. Unknown levels mean info.
func NewLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if lvl == zapcore.DebugLevel {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	logger, err := cfg.Build(zap.Fields(zap.String("service", "invoice-bfa")))
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	return logger
}

// ZapLoggerMiddleware writes one access log line per request. Invoice routes
// also carry the order id and requested format, so a download can be traced
// back from the logs alone. 5xx logs at error, 4xx at warn, except a caller
// that hung up (499), which is not worth a warning.
func ZapLoggerMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				status := ww.Status()
				fields := append(requestFields(r),
					zap.Int("status", status),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("latency", time.Since(start)),
				)

				switch {
				case status >= 500:
					logger.Error("request served", fields...)
				case status >= 400 && status != 499:
					logger.Warn("request served", fields...)
				default:
					logger.Info("request served", fields...)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// requestFields reads the routing outcome, so it must run after next has
// served the request.
func requestFields(r *http.Request) []zap.Field {
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.String("remote_addr", r.RemoteAddr),
	}

	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return fields
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		fields = append(fields, zap.String("route", pattern))
	}
	if id := rctx.URLParam("orderId"); id != "" {
		fields = append(fields, zap.String("order_id", id))
	}

	q := r.URL.Query()
	for _, key := range []string{"type", "format"} {
		if q.Has(key) {
			fields = append(fields, zap.String("format", q.Get(key)))
			break
		}
	}
	return fields
}

// TracingMiddleware extracts trace context from incoming requests.
func TracingMiddleware(next http.Handler) http.Handler {
	propagator := otel.GetTextMapPropagator()
	if propagator == nil {
		propagator = propagation.TraceContext{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := propagator.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
