package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danasys/invoice-bfa-go/internal/domain"
	"github.com/danasys/invoice-bfa-go/internal/infra/cache"
	"github.com/danasys/invoice-bfa-go/internal/infra/memory"
	"github.com/danasys/invoice-bfa-go/internal/infra/observability"
	"github.com/danasys/invoice-bfa-go/internal/infra/resilience"
	"github.com/danasys/invoice-bfa-go/internal/render"
	"github.com/danasys/invoice-bfa-go/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Mocks ---

type mockFinder struct {
	invoice *domain.Invoice
	err     error
	delay   time.Duration
	calls   atomic.Int32
}

func (m *mockFinder) FindInvoice(ctx context.Context, _ int64) (*domain.Invoice, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.invoice, m.err
}

type failingRenderer struct{}

func (failingRenderer) RenderDocument(_ *domain.Invoice, format string) (*domain.Document, error) {
	return nil, &domain.ErrEncoding{Format: domain.Format(format), Err: errors.New("boom")}
}

func sampleInvoice() *domain.Invoice {
	return &domain.Invoice{
		ID:           42,
		Date:         time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		CustomerName: "ACME Corp",
		Items: []domain.InvoiceItem{
			{Description: "Product A", Quantity: 2, UnitPrice: decimal.RequireFromString("19.99")},
		},
	}
}

func newService(t *testing.T, finder *mockFinder) (*service.InvoiceService, *observability.Metrics) {
	t.Helper()
	c := cache.New[*domain.Invoice](time.Minute)
	t.Cleanup(c.Close)
	m := observability.NewMetrics()
	return service.NewInvoiceService(finder, render.New(), c, resilience.NewBulkhead(4), m, zap.NewNop()), m
}

func TestGetInvoice_CachesResult(t *testing.T) {
	finder := &mockFinder{invoice: sampleInvoice()}
	svc, m := newService(t, finder)

	for i := 0; i < 3; i++ {
		inv, err := svc.GetInvoice(context.Background(), 42)
		require.NoError(t, err)
		assert.Equal(t, "ACME Corp", inv.CustomerName)
	}

	assert.Equal(t, int32(1), finder.calls.Load())
	assert.InDelta(t, 2.0/3.0, m.GetInvoiceSnapshot().CacheHitRate, 0.001)
}

func TestGetInvoice_InvalidateForcesLookup(t *testing.T) {
	finder := &mockFinder{invoice: sampleInvoice()}
	svc, _ := newService(t, finder)

	_, err := svc.GetInvoice(context.Background(), 42)
	require.NoError(t, err)
	svc.Invalidate(42)
	_, err = svc.GetInvoice(context.Background(), 42)
	require.NoError(t, err)

	assert.Equal(t, int32(2), finder.calls.Load())
}

func TestGetInvoice_CollapsesConcurrentMisses(t *testing.T) {
	finder := &mockFinder{invoice: sampleInvoice(), delay: 100 * time.Millisecond}
	svc, _ := newService(t, finder)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.GetInvoice(context.Background(), 42)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), finder.calls.Load())
}

func TestGetInvoice_NotFoundIsNotAnExternalError(t *testing.T) {
	finder := &mockFinder{err: &domain.ErrNotFound{Resource: "invoice", ID: "7"}}
	svc, m := newService(t, finder)

	_, err := svc.GetInvoice(context.Background(), 7)

	var notFound *domain.ErrNotFound
	assert.True(t, errors.As(err, &notFound))
	assert.Zero(t, m.GetInvoiceSnapshot().ExternalErrors)
}

func TestGetInvoice_UpstreamFailureCounted(t *testing.T) {
	finder := &mockFinder{err: &domain.ErrExternalService{Service: "orders", Err: errors.New("refused")}}
	svc, m := newService(t, finder)

	_, err := svc.GetInvoice(context.Background(), 7)

	var external *domain.ErrExternalService
	assert.True(t, errors.As(err, &external))
	assert.Equal(t, int64(1), m.GetInvoiceSnapshot().ExternalErrors)
}

func TestGetInvoice_ContextCancelled(t *testing.T) {
	finder := &mockFinder{invoice: sampleInvoice()}
	svc, _ := newService(t, finder)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.GetInvoice(ctx, 42)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, finder.calls.Load())
}

func TestRenderInvoice_AllFormats(t *testing.T) {
	svc, m := newService(t, &mockFinder{invoice: sampleInvoice()})

	for _, format := range []string{"pdf", "text", "html"} {
		doc, err := svc.RenderInvoice(context.Background(), 42, format)
		require.NoError(t, err, format)
		assert.NotEmpty(t, doc.Body, format)
	}

	snap := m.GetInvoiceSnapshot()
	assert.Equal(t, int64(3), snap.TotalRenders)
	assert.Zero(t, snap.FailedRenders)
	assert.Equal(t, int64(1), snap.RendersByFormat["pdf"])
}

func TestRenderInvoice_InvalidFormatSkipsLookup(t *testing.T) {
	finder := &mockFinder{invoice: sampleInvoice()}
	svc, _ := newService(t, finder)

	doc, err := svc.RenderInvoice(context.Background(), 42, "xml")

	assert.Nil(t, doc)
	var ferr *domain.ErrInvalidFormat
	assert.True(t, errors.As(err, &ferr))
	assert.Zero(t, finder.calls.Load())
}

func TestRenderInvoice_NotFound(t *testing.T) {
	svc, m := newService(t, &mockFinder{err: &domain.ErrNotFound{Resource: "invoice", ID: "9"}})

	_, err := svc.RenderInvoice(context.Background(), 9, "pdf")

	var notFound *domain.ErrNotFound
	assert.True(t, errors.As(err, &notFound))
	assert.Zero(t, m.GetInvoiceSnapshot().TotalRenders)
}

func TestRenderInvoice_EncodingFailureCounted(t *testing.T) {
	c := cache.New[*domain.Invoice](time.Minute)
	defer c.Close()
	m := observability.NewMetrics()
	svc := service.NewInvoiceService(&mockFinder{invoice: sampleInvoice()}, failingRenderer{}, c,
		resilience.NewBulkhead(1), m, zap.NewNop())

	_, err := svc.RenderInvoice(context.Background(), 42, "html")

	var encErr *domain.ErrEncoding
	assert.True(t, errors.As(err, &encErr))
	snap := m.GetInvoiceSnapshot()
	assert.Equal(t, int64(1), snap.FailedRenders)
	assert.Equal(t, 1.0, snap.ErrorRate)
}

func TestRenderInvoice_BulkheadTimeout(t *testing.T) {
	c := cache.New[*domain.Invoice](time.Minute)
	defer c.Close()
	bh := resilience.NewBulkhead(1)
	svc := service.NewInvoiceService(&mockFinder{invoice: sampleInvoice()}, render.New(), c, bh,
		observability.NewMetrics(), zap.NewNop())

	require.NoError(t, bh.Acquire(context.Background()))
	defer bh.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := svc.RenderInvoice(ctx, 42, "text")

	var timeout *domain.ErrTimeout
	assert.True(t, errors.As(err, &timeout), "got %v", err)
}

func TestRenderInvoice_SampleStore(t *testing.T) {
	store := memory.NewSampleStore()
	c := cache.New[*domain.Invoice](time.Minute)
	defer c.Close()
	svc := service.NewInvoiceService(store, render.New(), c, resilience.NewBulkhead(2),
		observability.NewMetrics(), zap.NewNop())

	doc, err := svc.RenderInvoice(context.Background(), memory.SampleOrderID, "text")
	require.NoError(t, err)

	assert.Contains(t, string(doc.Body), "Grand total: 139.48\n")
	assert.Equal(t, "invoice-42.txt", doc.Filename)
}

func TestCheckHealth(t *testing.T) {
	svc, _ := newService(t, &mockFinder{err: &domain.ErrNotFound{Resource: "invoice", ID: "0"}})

	h := svc.CheckHealth(context.Background())
	assert.Equal(t, service.StatusHealthy, h.Status)
	require.Len(t, h.Services, 1)
	assert.Equal(t, "orders", h.Services[0].Name)

	svc.AddProbe("cache", false, func(context.Context) error { return errors.New("down") })
	h = svc.CheckHealth(context.Background())
	assert.Equal(t, service.StatusDegraded, h.Status)
	assert.Equal(t, service.StatusUnhealthy, h.Services[1].Status)
}

func TestCheckHealth_BackendDown(t *testing.T) {
	svc, _ := newService(t, &mockFinder{err: &domain.ErrCircuitOpen{Service: "orders"}})

	h := svc.CheckHealth(context.Background())

	assert.Equal(t, service.StatusUnhealthy, h.Status)
}

func TestGetInvoice_CancelledCallerDoesNotFailOthers(t *testing.T) {
	finder := &mockFinder{invoice: sampleInvoice(), delay: 100 * time.Millisecond}
	svc, m := newService(t, finder)

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := svc.GetInvoice(ctx, 42)
		first <- err
	}()

	time.Sleep(10 * time.Millisecond)
	second := make(chan *domain.Invoice, 1)
	go func() {
		inv, err := svc.GetInvoice(context.Background(), 42)
		assert.NoError(t, err)
		second <- inv
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	assert.ErrorIs(t, <-first, context.Canceled)
	inv := <-second
	require.NotNil(t, inv)
	assert.Equal(t, "ACME Corp", inv.CustomerName)
	assert.Equal(t, int32(1), finder.calls.Load())
	assert.Zero(t, m.GetInvoiceSnapshot().ExternalErrors)

	_, err := svc.GetInvoice(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int32(1), finder.calls.Load(), "shared lookup result is cached")
}
