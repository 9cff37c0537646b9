// Package client holds HTTP clients for upstream Danasys APIs.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/danasys/invoice-bfa-go/internal/domain"
	"github.com/danasys/invoice-bfa-go/internal/infra/resilience"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("client")

// maxInvoiceBody caps how much of an upstream response is decoded.
const maxInvoiceBody = 4 << 20

// OrderClient fetches invoices from the Order API.
type OrderClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	logger     *zap.Logger
}

// NewOrderClient creates a new OrderClient.
func NewOrderClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *OrderClient {
	return &OrderClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
		logger:     logger,
	}
}

// FindInvoice fetches the invoice of an order with retry, circuit breaker, and tracing.
// A 404 from the Order API is returned as *domain.ErrNotFound without retrying.
func (c *OrderClient) FindInvoice(ctx context.Context, orderID int64) (*domain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "OrderClient.FindInvoice")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", orderID))

	id := strconv.FormatInt(orderID, 10)

	result, err := c.cb.Execute(func() (any, error) {
		var inv *domain.Invoice
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			var err error
			inv, err = c.fetch(ctx, id)
			return err
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return inv, nil
	})

	if err != nil {
		span.RecordError(err)
		return nil, resilience.UpstreamError("orders", err)
	}

	return result.(*domain.Invoice), nil
}

func (c *OrderClient) fetch(ctx context.Context, id string) (*domain.Invoice, error) {
	url := fmt.Sprintf("%s/v1/orders/%s/invoice", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, c.badUpstream(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID(ctx))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, resilience.Permanent(&domain.ErrNotFound{Resource: "invoice", ID: id})
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("order API returned status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, c.badUpstream(fmt.Errorf("order API returned status %d", resp.StatusCode))
	}

	var inv domain.Invoice
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxInvoiceBody)).Decode(&inv); err != nil {
		c.logger.Warn("order API: undecodable invoice",
			zap.String("order_id", id),
			zap.Error(err),
		)
		return nil, c.badUpstream(fmt.Errorf("decode invoice %s: %w", id, err))
	}
	if err := inv.Validate(); err != nil {
		c.logger.Warn("order API: invalid invoice",
			zap.String("order_id", id),
			zap.Error(err),
		)
		return nil, c.badUpstream(err)
	}
	return &inv, nil
}

// badUpstream marks a failure that retrying cannot fix. It still surfaces
// as an external service error, never as a client error.
func (c *OrderClient) badUpstream(err error) error {
	return resilience.Permanent(&domain.ErrExternalService{Service: "orders", Err: err})
}

// requestID forwards the inbound request id, or mints one for calls made
// outside a request.
func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}
