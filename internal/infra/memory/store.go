// Package memory provides an in-process invoice store. It backs local
// development and tests, and serves sample invoices when no order API
// is configured.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/danasys/invoice-bfa-go/internal/domain"

	"github.com/shopspring/decimal"
)

// Store is a thread-safe map of order id to invoice.
type Store struct {
	mu       sync.RWMutex
	invoices map[int64]*domain.Invoice

	// mintSamples answers misses for positive ids with SampleInvoice.
	mintSamples bool
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{invoices: make(map[int64]*domain.Invoice)}
}

// NewSampleStore creates a store that serves the sample invoice for every
// positive order id it does not hold. Stored invoices take precedence.
func NewSampleStore() *Store {
	s := NewStore()
	s.mintSamples = true
	return s
}

// Put validates inv and stores a copy under its id, replacing any previous one.
func (s *Store) Put(inv *domain.Invoice) error {
	if err := inv.Validate(); err != nil {
		return err
	}

	cp := *inv
	cp.Items = append([]domain.InvoiceItem(nil), inv.Items...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices[inv.ID] = &cp
	return nil
}

// FindInvoice implements port.InvoiceFinder.
func (s *Store) FindInvoice(ctx context.Context, orderID int64) (*domain.Invoice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if inv, ok := s.invoices[orderID]; ok {
		return inv, nil
	}
	if s.mintSamples && orderID > 0 {
		return SampleInvoice(orderID), nil
	}
	return nil, &domain.ErrNotFound{Resource: "invoice", ID: strconv.FormatInt(orderID, 10)}
}

// SampleOrderID is the order the sample invoice is documented under.
const SampleOrderID = 42

// SampleInvoice returns the ACME Corp sample invoice stamped with orderID.
// Everything but the id is fixed, so renders of it are reproducible.
func SampleInvoice(orderID int64) *domain.Invoice {
	return &domain.Invoice{
		ID:           orderID,
		Date:         time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		CustomerName: "ACME Corp",
		Items: []domain.InvoiceItem{
			{Description: "Product A", Quantity: 2, UnitPrice: decimal.RequireFromString("19.99")},
			{Description: "Service B", Quantity: 1, UnitPrice: decimal.RequireFromString("99.50")},
		},
	}
}
