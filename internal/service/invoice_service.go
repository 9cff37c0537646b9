// Package service orchestrates invoice lookups and document rendering.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/danasys/invoice-bfa-go/internal/domain"
	"github.com/danasys/invoice-bfa-go/internal/infra/observability"
	"github.com/danasys/invoice-bfa-go/internal/infra/resilience"
	"github.com/danasys/invoice-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("service/invoice")

const invoiceCache = "invoice"

// lookupTimeout bounds a shared lookup once it is detached from the
// request that started it.
const lookupTimeout = 30 * time.Second

// InvoiceService looks up invoices through an InvoiceFinder and renders them
// through an InvoiceRenderer.
type InvoiceService struct {
	finder   port.InvoiceFinder
	renderer port.InvoiceRenderer
	cache    port.Cache[*domain.Invoice]
	bulkhead *resilience.Bulkhead
	metrics  *observability.Metrics
	logger   *zap.Logger

	group  singleflight.Group
	probes []probe
}

// NewInvoiceService creates the invoice service with all dependencies injected.
func NewInvoiceService(
	finder port.InvoiceFinder,
	renderer port.InvoiceRenderer,
	cache port.Cache[*domain.Invoice],
	bulkhead *resilience.Bulkhead,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *InvoiceService {
	return &InvoiceService{
		finder:   finder,
		renderer: renderer,
		cache:    cache,
		bulkhead: bulkhead,
		metrics:  metrics,
		logger:   logger,
	}
}

// GetInvoice returns the invoice of an order. Concurrent misses for the same
// order share one upstream lookup. The lookup runs detached from any single
// caller, so a caller that goes away only abandons its own wait.
func (s *InvoiceService) GetInvoice(ctx context.Context, orderID int64) (*domain.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "InvoiceService.GetInvoice")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", orderID))

	key := cacheKey(orderID)
	if inv, ok := s.cache.Get(key); ok && inv != nil {
		s.metrics.IncrCacheHit(invoiceCache)
		return inv, nil
	}
	s.metrics.IncrCacheMiss(invoiceCache)

	start := time.Now()
	ch := s.group.DoChan(key, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()
		inv, err := s.finder.FindInvoice(lookupCtx, orderID)
		if err == nil && inv != nil {
			s.cache.Set(key, inv)
		}
		return inv, err
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		span.RecordError(ctx.Err())
		s.logger.Debug("invoice lookup abandoned by caller",
			zap.Int64("order_id", orderID),
			zap.Error(ctx.Err()),
		)
		return nil, ctx.Err()
	}
	s.metrics.RecordDuration("lookup", time.Since(start))

	if err := res.Err; err != nil {
		span.RecordError(err)
		var notFound *domain.ErrNotFound
		if !errors.As(err, &notFound) && !errors.Is(err, context.Canceled) {
			s.metrics.IncrExternalError("orders")
			s.logger.Error("invoice lookup failed",
				zap.Int64("order_id", orderID),
				zap.Bool("shared", res.Shared),
				zap.Error(err),
			)
		}
		return nil, err
	}

	inv, _ := res.Val.(*domain.Invoice)
	if inv == nil {
		return nil, &domain.ErrNotFound{Resource: "invoice", ID: strconv.FormatInt(orderID, 10)}
	}
	return inv, nil
}

// RenderInvoice renders the invoice of an order in the requested format.
// The format is checked before any lookup happens.
func (s *InvoiceService) RenderInvoice(ctx context.Context, orderID int64, format string) (*domain.Document, error) {
	ctx, span := tracer.Start(ctx, "InvoiceService.RenderInvoice")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("order.id", orderID),
		attribute.String("invoice.format", format),
	)

	f, err := domain.ParseFormat(format)
	if err != nil {
		return nil, err
	}

	inv, err := s.GetInvoice(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.bulkhead.Acquire(ctx); err != nil {
		return nil, &domain.ErrTimeout{Operation: "render"}
	}
	defer s.bulkhead.Release()

	start := time.Now()
	doc, err := s.renderer.RenderDocument(inv, string(f))
	s.metrics.RecordDuration("render_"+string(f), time.Since(start))

	if err != nil {
		span.RecordError(err)
		s.metrics.RecordRender(f, observability.OutcomeError, 0)
		s.logger.Error("invoice render failed",
			zap.Int64("order_id", orderID),
			zap.String("format", string(f)),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.RecordRender(f, observability.OutcomeSuccess, len(doc.Body))
	s.logger.Debug("invoice rendered",
		zap.Int64("order_id", orderID),
		zap.String("format", string(f)),
		zap.Int("bytes", len(doc.Body)),
	)
	return doc, nil
}

// Invalidate drops the cached invoice of an order.
func (s *InvoiceService) Invalidate(orderID int64) {
	s.cache.Delete(cacheKey(orderID))
}

func cacheKey(orderID int64) string {
	return fmt.Sprintf("invoice:%d", orderID)
}
