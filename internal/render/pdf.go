package render

import (
	"bytes"
	"fmt"
	"time"

	"github.com/danasys/invoice-bfa-go/internal/domain"

	"github.com/jung-kurt/gofpdf"
)

// Page geometry in points on a US Letter page (612x792), measured from the
// top edge to each baseline.
const (
	pdfLeft       = 50.0
	pdfTitleY     = 52.0 // 740pt above the bottom edge
	pdfTitleGap   = 25.0
	pdfLeading    = 14.5
	pdfFont       = "Helvetica"
	pdfTitleSize  = 18.0
	pdfBodySize   = 12.0
	pdfItemFormat = "%s  | Qty: %d  | Unit: %s  | Total: %s"
)

// pdfEpoch stamps documents whose invoice carries no date. Any fixed value
// works; it only has to be the same on every call.
var pdfEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

func renderPDF(inv *domain.Invoice) ([]byte, error) {
	s := inv.Summary()

	pdf := gofpdf.New("P", "pt", "Letter", "")
	pdf.SetCompression(true)
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(pdfCreationDate(inv))
	pdf.SetModificationDate(pdfCreationDate(inv))
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(fmt.Sprintf("Invoice #%d", s.ID), true)
	pdf.AddPage()

	// Core fonts are cp1252; translate so accented names survive.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	y := pdfTitleY
	pdf.SetFont(pdfFont, "B", pdfTitleSize)
	pdf.Text(pdfLeft, y, tr(fmt.Sprintf("Invoice #%d", s.ID)))
	y += pdfTitleGap

	pdf.SetFont(pdfFont, "", pdfBodySize)
	for _, text := range pdfBodyLines(s) {
		y += pdfLeading
		if text != "" {
			pdf.Text(pdfLeft, y, tr(text))
		}
	}

	if err := pdf.Error(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// pdfBodyLines lists the lines under the title, one per leading step.
// Empty strings are blank lines.
func pdfBodyLines(s domain.InvoiceSummary) []string {
	lines := []string{
		"Date: " + s.Date,
		"Customer: " + s.CustomerName,
		"",
		"Items:",
	}
	for _, it := range s.Items {
		lines = append(lines, fmt.Sprintf(pdfItemFormat, it.Description, it.Quantity, it.UnitPrice, it.Total))
	}
	return append(lines, "", "Grand Total: "+s.GrandTotal)
}

func pdfCreationDate(inv *domain.Invoice) time.Time {
	if inv.Date.IsZero() {
		return pdfEpoch
	}
	return inv.Date.UTC()
}
