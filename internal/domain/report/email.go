package report

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/okian/tenderdesk/internal/domain/types"
)

var emailTemplate = template.Must(template.New("email").Funcs(template.FuncMap{
	"money": types.Money,
}).Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; font-size: 14px;">
<h1>{{.Title}}</h1>
<p>
<strong>Region:</strong> {{.Region}}<br>
<strong>Deadline:</strong> {{.Deadline}}<br>
<strong>Status:</strong> {{.Status}}<br>
<strong>Responses:</strong> {{.ResponseCount}}
</p>
<h2>Requested items</h2>
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Item</th><th>Quantity</th></tr>
{{- range .Items}}
<tr><td>{{.Label}}</td><td>{{.Quantity}}</td></tr>
{{- end}}
</table>
<h2>Responses</h2>
{{- range .Vendors}}
<div class="vendor">
<h3>{{.Name}}</h3>
{{- if $.Contacts}}
<p><strong>Email:</strong> {{.Email}}<br><strong>Phone:</strong> {{.Phone}}</p>
{{- end}}
{{- if .Lines}}
<table border="1" cellpadding="4" cellspacing="0">
<tr><th>Item</th><th>Quantity</th><th>Unit price</th><th>Free units %</th><th>Line total</th><th>Delivery</th><th>Expiry</th></tr>
{{- range .Lines}}
<tr><td>{{.Item}}</td><td>{{.Quantity}}</td><td>{{money .UnitPrice}}</td><td>{{.FreeUnits}}</td><td>{{money .Total}}</td><td>{{.Delivery}}</td><td>{{.Expiry}}</td></tr>
{{- end}}
</table>
{{- else}}
<p>No priced lines.</p>
{{- end}}
<p><strong>Total:</strong> {{money .Total}}</p>
</div>
{{- else}}
<p>No vendor has responded yet.</p>
{{- end}}
{{- if .Lowest}}
<p><strong>Lowest total:</strong> {{.Lowest}}</p>
{{- end}}
{{- if .Link}}
<p><a href="{{.Link}}">Open request</a></p>
{{- end}}
</body>
</html>
`))

// Email is a rendered summary message.
type Email struct {
	Subject string
	Body    string
	// Placeholders counts fields that could not be resolved.
	Placeholders int
}

// RenderEmail renders the summary message for a request. Vendor email and
// phone are embedded only when includeContactDetails is set.
func RenderEmail(in Input, includeContactDetails bool) (Email, error) {
	v := buildView(in)
	v.Contacts = includeContactDetails
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, v); err != nil {
		return Email{}, fmt.Errorf("render email: %w", err)
	}
	return Email{
		Subject:      "Bid summary: " + v.Title,
		Body:         buf.String(),
		Placeholders: v.placeholders,
	}, nil
}

// RenderEmailBody renders only the HTML body of the summary message.
func RenderEmailBody(in Input, includeContactDetails bool) (string, error) {
	e, err := RenderEmail(in, includeContactDetails)
	if err != nil {
		return "", err
	}
	return e.Body, nil
}
