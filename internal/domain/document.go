package domain

import (
	"fmt"
	"strings"
)

// Format selects the output representation of a rendered invoice.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatText Format = "text"
	FormatHTML Format = "html"
)

// DefaultFormat is used when the caller does not ask for one.
const DefaultFormat = FormatPDF

// ParseFormat matches token case-insensitively against the known formats.
func ParseFormat(token string) (Format, error) {
	switch f := Format(strings.ToLower(token)); f {
	case FormatPDF, FormatText, FormatHTML:
		return f, nil
	}
	return "", &ErrInvalidFormat{Format: token}
}

// MIMEType is the Content-Type served for the format.
func (f Format) MIMEType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatText:
		return "text/plain; charset=utf-8"
	case FormatHTML:
		return "text/html; charset=utf-8"
	}
	return "application/octet-stream"
}

// Extension is the file extension used in suggested filenames.
func (f Format) Extension() string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

// Inline reports whether browsers should display the document instead of
// downloading it.
func (f Format) Inline() bool {
	return f == FormatHTML
}

// Document is a fully rendered invoice.
type Document struct {
	Format   Format
	Body     []byte
	MIMEType string
	Filename string
}

// NewDocument wraps body with the metadata for invoiceID in format f.
func NewDocument(invoiceID int64, f Format, body []byte) *Document {
	return &Document{
		Format:   f,
		Body:     body,
		MIMEType: f.MIMEType(),
		Filename: fmt.Sprintf("invoice-%d.%s", invoiceID, f.Extension()),
	}
}

// Disposition is "inline" or "attachment".
func (d *Document) Disposition() string {
	if d.Format.Inline() {
		return "inline"
	}
	return "attachment"
}
