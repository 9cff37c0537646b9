// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/danasys/invoice-bfa-go/internal/domain"
)

// InvoiceFinder looks up the invoice of an order.
// It returns *domain.ErrNotFound when the order has no invoice.
type InvoiceFinder interface {
	FindInvoice(ctx context.Context, orderID int64) (*domain.Invoice, error)
}

// InvoiceRenderer turns an invoice into a document in the requested format.
type InvoiceRenderer interface {
	RenderDocument(inv *domain.Invoice, format string) (*domain.Document, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
