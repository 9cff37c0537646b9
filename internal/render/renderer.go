// Package render turns invoices into PDF, plain-text and HTML documents.
//
// Output depends only on the invoice and the format, so the same input always
// produces the same bytes. A Renderer holds no state and is safe for
// concurrent use.
package render

import (
	"github.com/danasys/invoice-bfa-go/internal/domain"
)

// Renderer renders invoices.
type Renderer struct{}

// New creates a Renderer.
func New() *Renderer {
	return &Renderer{}
}

// RenderDocument renders inv in the format named by token (pdf, text or
// html, any case). An unknown token yields *domain.ErrInvalidFormat and a
// failed encoding *domain.ErrEncoding; in both cases no document is returned.
func (r *Renderer) RenderDocument(inv *domain.Invoice, token string) (*domain.Document, error) {
	format, err := domain.ParseFormat(token)
	if err != nil {
		return nil, err
	}
	return r.Render(inv, format)
}

// Render renders inv in an already parsed format.
func (r *Renderer) Render(inv *domain.Invoice, format domain.Format) (*domain.Document, error) {
	var (
		body []byte
		err  error
	)
	switch format {
	case domain.FormatPDF:
		body, err = renderPDF(inv)
	case domain.FormatText:
		body = renderText(inv)
	case domain.FormatHTML:
		body, err = renderHTML(inv)
	default:
		return nil, &domain.ErrInvalidFormat{Format: string(format)}
	}
	if err != nil {
		return nil, &domain.ErrEncoding{Format: format, Err: err}
	}
	return domain.NewDocument(inv.ID, format, body), nil
}
