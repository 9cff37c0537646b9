package render

import (
	"bytes"
	"html/template"

	"github.com/danasys/invoice-bfa-go/internal/domain"
)

var invoiceHTML = template.Must(template.New("invoice").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Invoice #{{.ID}}</title>
</head>
<body>
<h1>Invoice #{{.ID}}</h1>
<p>Date: {{.Date}}</p>
<p>Customer: {{.CustomerName}}</p>
<h2>Items:</h2>
<table>
<thead><tr><th>Description</th><th>Qty</th><th>Unit</th><th>Total</th></tr></thead>
<tbody>
{{- range .Items}}
<tr><td>{{.Description}}</td><td>{{.Quantity}}</td><td>{{.UnitPrice}}</td><td>{{.Total}}</td></tr>
{{- end}}
</tbody>
</table>
<p>Grand total: {{.GrandTotal}}</p>
</body>
</html>
`))

func renderHTML(inv *domain.Invoice) ([]byte, error) {
	var buf bytes.Buffer
	if err := invoiceHTML.Execute(&buf, inv.Summary()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
