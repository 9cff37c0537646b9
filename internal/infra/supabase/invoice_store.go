package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/danasys/invoice-bfa-go/internal/domain"
	"github.com/danasys/invoice-bfa-go/internal/infra/resilience"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// --- Orders (implements port.InvoiceFinder) ---

// supabaseOrder maps the orders table with its embedded order_items.
type supabaseOrder struct {
	ID           int64               `json:"id"`
	OrderDate    string              `json:"order_date"`
	CustomerName string              `json:"customer_name"`
	Items        []supabaseOrderItem `json:"order_items"`
}

type supabaseOrderItem struct {
	Position    int             `json:"position"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

const orderSelect = "id,order_date,customer_name,order_items(position,description,quantity,unit_price)"

// FindInvoice builds the invoice of an order from the orders and order_items tables.
// Items come back in their stored position order.
func (c *Client) FindInvoice(ctx context.Context, orderID int64) (*domain.Invoice, error) {
	ctx, span := tracer.Start(ctx, "Supabase.FindInvoice")
	defer span.End()
	span.SetAttributes(attribute.Int64("order.id", orderID))

	id := strconv.FormatInt(orderID, 10)
	var invoice *domain.Invoice

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("orders?id=eq.%s&select=%s&order_items.order=position.asc&limit=1", id, orderSelect)
			body, err := c.doRequest(ctx, http.MethodGet, path)
			if err != nil {
				return err
			}

			if body == nil || string(body) == "[]" {
				return resilience.Permanent(&domain.ErrNotFound{Resource: "invoice", ID: id})
			}

			var orders []supabaseOrder
			if err := json.Unmarshal(body, &orders); err != nil {
				return badRow(fmt.Errorf("failed to decode order: %w", err))
			}
			if len(orders) == 0 {
				return resilience.Permanent(&domain.ErrNotFound{Resource: "invoice", ID: id})
			}

			inv, err := orders[0].toInvoice()
			if err != nil {
				c.logger.Warn("supabase: invalid order row",
					zap.String("order_id", id),
					zap.Error(err),
				)
				return badRow(err)
			}
			invoice = inv
			return nil
		})
	})

	if err != nil {
		span.RecordError(err)
		return nil, resilience.UpstreamError("supabase/orders", err)
	}

	return invoice, nil
}

func (o supabaseOrder) toInvoice() (*domain.Invoice, error) {
	date, err := time.Parse(domain.DateLayout, o.OrderDate)
	if err != nil {
		// timestamptz columns come back as RFC3339
		date, err = time.Parse(time.RFC3339, o.OrderDate)
		if err != nil {
			return nil, &domain.ErrValidation{Field: "order_date", Message: fmt.Sprintf("unparseable date %q", o.OrderDate)}
		}
		date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	}

	items := make([]domain.InvoiceItem, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, domain.InvoiceItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}
	return domain.NewInvoice(o.ID, date, o.CustomerName, items)
}

func badRow(err error) error {
	return resilience.Permanent(&domain.ErrExternalService{Service: "supabase/orders", Err: err})
}
