package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Invoices
// ============================================================

// DateLayout is the ISO-8601 calendar date used on every invoice surface.
const DateLayout = "2006-01-02"

// InvoiceItem is one line of an invoice.
type InvoiceItem struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// Total is UnitPrice * Quantity at full precision.
func (it InvoiceItem) Total() decimal.Decimal {
	return it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// MarshalJSON writes the unit price as a plain decimal string so the scale
// survives a round trip (decimal.Decimal's own encoder trims trailing zeros).
func (it InvoiceItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Description string `json:"description"`
		Quantity    int    `json:"quantity"`
		UnitPrice   string `json:"unitPrice"`
	}{it.Description, it.Quantity, PlainString(it.UnitPrice)})
}

// Invoice is a billing record for one order. It is built per request by an
// InvoiceFinder and must not be mutated afterwards.
type Invoice struct {
	ID           int64
	Date         time.Time
	CustomerName string
	Items        []InvoiceItem
}

// NewInvoice builds and validates an invoice.
func NewInvoice(id int64, date time.Time, customerName string, items []InvoiceItem) (*Invoice, error) {
	inv := &Invoice{
		ID:           id,
		Date:         date,
		CustomerName: customerName,
		Items:        items,
	}
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	return inv, nil
}

// Validate checks the invariants upstream data must satisfy.
// An empty item list is allowed.
func (inv *Invoice) Validate() error {
	if strings.TrimSpace(inv.CustomerName) == "" {
		return &ErrValidation{Field: "customerName", Message: "must not be empty"}
	}
	if inv.Date.IsZero() {
		return &ErrValidation{Field: "date", Message: "must be set"}
	}
	for i, it := range inv.Items {
		if it.Quantity <= 0 {
			return &ErrValidation{Field: fmt.Sprintf("items[%d].quantity", i), Message: "must be positive"}
		}
		if it.UnitPrice.IsNegative() {
			return &ErrValidation{Field: fmt.Sprintf("items[%d].unitPrice", i), Message: "must not be negative"}
		}
	}
	return nil
}

// GrandTotal sums the item totals. Each total is exact, so the sum is too.
func (inv *Invoice) GrandTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range inv.Items {
		sum = sum.Add(it.Total())
	}
	return sum
}

// DateString formats the invoice date as YYYY-MM-DD.
func (inv *Invoice) DateString() string {
	return inv.Date.Format(DateLayout)
}

type invoiceJSON struct {
	ID           int64         `json:"id"`
	Date         string        `json:"date"`
	CustomerName string        `json:"customerName"`
	Items        []InvoiceItem `json:"items"`
}

// MarshalJSON encodes the invoice with a calendar date.
func (inv Invoice) MarshalJSON() ([]byte, error) {
	items := inv.Items
	if items == nil {
		items = []InvoiceItem{}
	}
	return json.Marshal(invoiceJSON{
		ID:           inv.ID,
		Date:         inv.DateString(),
		CustomerName: inv.CustomerName,
		Items:        items,
	})
}

// UnmarshalJSON accepts the order API payload. Unit prices may be JSON
// numbers or strings; either way the written scale is kept.
func (inv *Invoice) UnmarshalJSON(data []byte) error {
	var raw invoiceJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	date, err := time.Parse(DateLayout, raw.Date)
	if err != nil {
		return &ErrValidation{Field: "date", Message: fmt.Sprintf("expected %s, got %q", DateLayout, raw.Date)}
	}
	inv.ID = raw.ID
	inv.Date = date
	inv.CustomerName = raw.CustomerName
	inv.Items = raw.Items
	return nil
}

// ============================================================
// Invoice API view
// ============================================================

// InvoiceSummary is the flattened, display-ready form of an invoice.
// Amounts are plain decimal strings.
type InvoiceSummary struct {
	ID           int64         `json:"id"`
	Date         string        `json:"date"`
	CustomerName string        `json:"customerName"`
	Items        []InvoiceLine `json:"items"`
	GrandTotal   string        `json:"grandTotal"`
}

// InvoiceLine is one display row of an InvoiceSummary.
type InvoiceLine struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unitPrice"`
	Total       string `json:"total"`
}

// Summary flattens the invoice, keeping item order.
func (inv *Invoice) Summary() InvoiceSummary {
	lines := make([]InvoiceLine, 0, len(inv.Items))
	for _, it := range inv.Items {
		lines = append(lines, InvoiceLine{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   PlainString(it.UnitPrice),
			Total:       PlainString(it.Total()),
		})
	}
	return InvoiceSummary{
		ID:           inv.ID,
		Date:         inv.DateString(),
		CustomerName: inv.CustomerName,
		Items:        lines,
		GrandTotal:   PlainString(inv.GrandTotal()),
	}
}

// PlainString renders d without exponent notation and with exactly the
// scale it carries: 99.50 stays "99.50", an integral zero is "0".
func PlainString(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.StringFixed(0)
}
