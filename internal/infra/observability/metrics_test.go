package observability_test

import (
	"testing"
	"time"

	"github.com/danasys/invoice-bfa-go/internal/domain"
	"github.com/danasys/invoice-bfa-go/internal/infra/observability"
)

func TestGetInvoiceSnapshot(t *testing.T) {
	m := observability.NewMetrics()

	m.RecordRender(domain.FormatPDF, observability.OutcomeSuccess, 1500)
	m.RecordRender(domain.FormatPDF, observability.OutcomeSuccess, 1500)
	m.RecordRender(domain.FormatText, observability.OutcomeSuccess, 120)
	m.RecordRender(domain.FormatHTML, observability.OutcomeError, 0)
	m.IncrCacheHit("invoice")
	m.IncrCacheMiss("invoice")
	m.IncrCacheMiss("invoice")
	m.IncrCacheMiss("invoice")
	m.IncrExternalError("orders")
	m.IncrExternalError("supabase/orders")
	m.RecordDuration("render", 3*time.Millisecond)

	snap := m.GetInvoiceSnapshot()

	if snap.TotalRenders != 4 {
		t.Errorf("expected 4 renders, got %d", snap.TotalRenders)
	}
	if snap.FailedRenders != 1 {
		t.Errorf("expected 1 failed render, got %d", snap.FailedRenders)
	}
	if snap.RendersByFormat["pdf"] != 2 || snap.RendersByFormat["text"] != 1 || snap.RendersByFormat["html"] != 1 {
		t.Errorf("unexpected per-format counts: %v", snap.RendersByFormat)
	}
	if snap.ErrorRate != 0.25 {
		t.Errorf("expected error rate 0.25, got %f", snap.ErrorRate)
	}
	if snap.CacheHitRate != 0.25 {
		t.Errorf("expected cache hit rate 0.25, got %f", snap.CacheHitRate)
	}
	if snap.ExternalErrors != 2 {
		t.Errorf("expected 2 external errors, got %d", snap.ExternalErrors)
	}
}

func TestNewMetrics_Independent(t *testing.T) {
	a := observability.NewMetrics()
	b := observability.NewMetrics()

	a.RecordRender(domain.FormatText, observability.OutcomeSuccess, 10)

	if got := b.GetInvoiceSnapshot().TotalRenders; got != 0 {
		t.Fatalf("expected registries to be independent, got %d renders", got)
	}
}
