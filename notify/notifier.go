// Package notify delivers purchase bills to customers.
package notify

import (
	"bytes"
	"context"
	"html/template"
	"time"

	"github.com/shopspring/decimal"

	"storefront/models"
)

const Subject = "Your Shop Purchase Bill"

type Bill struct {
	To       string
	Items    []models.BillLine
	Total    decimal.Decimal
	Comment  string
	IssuedAt time.Time
}

type Notifier interface {
	SendBill(ctx context.Context, bill Bill) error
}

var billTemplate = template.Must(template.New("bill").Parse(`<h2>Thank you for your purchase!</h2>
<p>Here is your bill:</p>
<table border="1" cellpadding="8" cellspacing="0">
  <thead><tr><th>Product</th><th>Quantity</th><th>Unit Price</th><th>Subtotal</th></tr></thead>
  <tbody>
{{- range .Items}}
    <tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>₹{{.Price.StringFixed 2}}</td><td>₹{{.Subtotal.StringFixed 2}}</td></tr>
{{- end}}
  </tbody>
  <tfoot><tr><td colspan="3"><b>Total</b></td><td><b>₹{{.Total.StringFixed 2}}</b></td></tr></tfoot>
</table>
{{- if .Comment}}
<p><b>Note:</b> {{.Comment}}</p>
{{- end}}
<p>If you have any questions, reply to this email.</p>
`))

// RenderHTML renders the bill body. Product names and the comment are escaped.
func RenderHTML(bill Bill) (string, error) {
	var buf bytes.Buffer
	if err := billTemplate.Execute(&buf, bill); err != nil {
		return "", err
	}
	return buf.String(), nil
}
