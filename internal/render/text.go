package render

import (
	"fmt"
	"strings"

	"github.com/danasys/invoice-bfa-go/internal/domain"
)

func renderText(inv *domain.Invoice) []byte {
	s := inv.Summary()

	var b strings.Builder
	fmt.Fprintf(&b, "Invoice #: %d\n", s.ID)
	fmt.Fprintf(&b, "Date: %s\n", s.Date)
	fmt.Fprintf(&b, "Customer: %s\n\n", s.CustomerName)
	b.WriteString("Items:\n")
	for _, it := range s.Items {
		fmt.Fprintf(&b, "%s | %d x %s = %s\n", it.Description, it.Quantity, it.UnitPrice, it.Total)
	}
	fmt.Fprintf(&b, "\nGrand total: %s\n", s.GrandTotal)

	return []byte(b.String())
}
