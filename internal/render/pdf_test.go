package render

import (
	"testing"
	"time"

	"github.com/danasys/invoice-bfa-go/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPDFBodyLines(t *testing.T) {
	inv := &domain.Invoice{
		ID:           42,
		Date:         time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		CustomerName: "ACME Corp",
		Items: []domain.InvoiceItem{
			{Description: "Product A", Quantity: 2, UnitPrice: decimal.RequireFromString("19.99")},
			{Description: "Service B", Quantity: 1, UnitPrice: decimal.RequireFromString("99.50")},
		},
	}

	assert.Equal(t, []string{
		"Date: 2024-01-15",
		"Customer: ACME Corp",
		"",
		"Items:",
		"Product A  | Qty: 2  | Unit: 19.99  | Total: 39.98",
		"Service B  | Qty: 1  | Unit: 99.50  | Total: 99.50",
		"",
		"Grand Total: 139.48",
	}, pdfBodyLines(inv.Summary()))
}

func TestPDFBodyLines_NoItems(t *testing.T) {
	inv := &domain.Invoice{ID: 1, Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), CustomerName: "X"}

	assert.Equal(t, []string{"Date: 2024-01-15", "Customer: X", "", "Items:", "", "Grand Total: 0"},
		pdfBodyLines(inv.Summary()))
}

func TestPDFCreationDate(t *testing.T) {
	assert.Equal(t, pdfEpoch, pdfCreationDate(&domain.Invoice{}))

	d := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, d, pdfCreationDate(&domain.Invoice{Date: d}))
}

func TestRenderPDF_NonLatinNameDoesNotFail(t *testing.T) {
	inv := &domain.Invoice{ID: 9, Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), CustomerName: "Café Müller"}

	body, err := renderPDF(inv)

	assert.NoError(t, err)
	assert.NotEmpty(t, body)
}

func TestRenderPDF_PinsInfoDates(t *testing.T) {
	inv := &domain.Invoice{ID: 42, Date: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), CustomerName: "ACME Corp"}

	body, err := renderPDF(inv)

	assert.NoError(t, err)
	assert.Contains(t, string(body), "/CreationDate (D:20240115000000)")
	assert.Contains(t, string(body), "/ModDate (D:20240115000000)")
}
