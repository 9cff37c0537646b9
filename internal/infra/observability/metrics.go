package observability

import (
	"time"

	"github.com/danasys/invoice-bfa-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Outcome labels for rendered documents.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

var knownFormats = []domain.Format{domain.FormatPDF, domain.FormatText, domain.FormatHTML}

// Metrics holds all Prometheus metrics for the invoice BFA.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	documentBytes   *prometheus.HistogramVec
	rendersTotal    *prometheus.CounterVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "invoice_bfa_operation_duration_seconds",
				Help:    "Duration of invoice lookups and renders.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		documentBytes: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "invoice_bfa_document_bytes",
				Help:    "Size of rendered invoice documents.",
				Buckets: prometheus.ExponentialBuckets(256, 2, 10),
			},
			[]string{"format"},
		),
		rendersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invoice_bfa_renders_total",
				Help: "Total invoice renders by format and outcome.",
			},
			[]string{"format", "outcome"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invoice_bfa_external_errors_total",
				Help: "Total errors from the order lookup backends.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invoice_bfa_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "invoice_bfa_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
	}
}

// RecordDuration records the duration of an operation.
func (m *Metrics) RecordDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordRender counts a render attempt; size is observed on success only.
func (m *Metrics) RecordRender(format domain.Format, outcome string, size int) {
	m.rendersTotal.WithLabelValues(string(format), outcome).Inc()
	if outcome == OutcomeSuccess {
		m.documentBytes.WithLabelValues(string(format)).Observe(float64(size))
	}
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// GetInvoiceSnapshot returns cumulative render metrics for the
// GET /v1/metrics/invoices endpoint.
func (m *Metrics) GetInvoiceSnapshot() *domain.InvoiceMetrics {
	byFormat := make(map[string]int64, len(knownFormats))
	var total, failed float64
	for _, f := range knownFormats {
		ok := getCounterValue(m.rendersTotal, string(f), OutcomeSuccess)
		bad := getCounterValue(m.rendersTotal, string(f), OutcomeError)
		byFormat[string(f)] = int64(ok + bad)
		total += ok + bad
		failed += bad
	}

	hits := getCounterValue(m.cacheHits, "invoice")
	misses := getCounterValue(m.cacheMisses, "invoice")

	errorRate := float64(0)
	if total > 0 {
		errorRate = failed / total
	}
	cacheHitRate := float64(0)
	if hits+misses > 0 {
		cacheHitRate = hits / (hits + misses)
	}

	return &domain.InvoiceMetrics{
		TotalRenders:    int64(total),
		FailedRenders:   int64(failed),
		RendersByFormat: byFormat,
		ErrorRate:       errorRate,
		CacheHitRate:    cacheHitRate,
		ExternalErrors:  int64(sumCounter(m.externalErrors)),
		Period:          "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for the given labels.
func getCounterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	counter := cv.WithLabelValues(labels...)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}

// sumCounter adds up every child of a CounterVec.
func sumCounter(cv *prometheus.CounterVec) float64 {
	ch := make(chan prometheus.Metric, 16)
	go func() {
		cv.Collect(ch)
		close(ch)
	}()

	var sum float64
	for metric := range ch {
		m := &dto.Metric{}
		if err := metric.Write(m); err == nil && m.Counter != nil {
			sum += m.Counter.GetValue()
		}
	}
	return sum
}
