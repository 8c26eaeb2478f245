package cod

import (
	"bytes"
	"context"
	"html/template"
)

// Mailer envoie un e-mail HTML.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Notifier envoie la confirmation de commande au client.
type Notifier struct {
	mailer Mailer
}

func NewNotifier(m Mailer) *Notifier {
	return &Notifier{mailer: m}
}

var confirmationTmpl = template.Must(template.New("cod-confirmation").Parse(`<!DOCTYPE html>
<html lang="fr">
<head><meta charset="UTF-8"><title>Confirmation de commande</title></head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Merci {{.Form.Name}} !</h2>
		<p>Votre commande <strong>{{.Sub.OrderID}}</strong> est confirmée. Vous paierez à la livraison.</p>
		<table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
			<tr><td>Produit</td><td>{{if .Form.ProductTitle}}{{.Form.ProductTitle}}{{else}}-{{end}}</td></tr>
			<tr><td>Quantité</td><td>{{.Sub.Quantity}}</td></tr>
			{{if .Sub.Total}}<tr><td>Total à payer</td><td>₹{{printf "%.2f" .Sub.Total}}</td></tr>{{end}}
		</table>
		<h3>Adresse de livraison</h3>
		<p>{{.Form.Address}}<br>{{.Form.City}}, {{.Form.State}} {{.Form.Pincode}}<br>📞 {{.Form.Phone}}</p>
	</div>
</body>
</html>`))

func renderConfirmation(form OrderForm, sub Submission) (string, error) {
	var buf bytes.Buffer
	err := confirmationTmpl.Execute(&buf, struct {
		Form OrderForm
		Sub  Submission
	}{form, sub})
	return buf.String(), err
}

func (n *Notifier) Confirm(ctx context.Context, form OrderForm, sub Submission) error {
	body, err := renderConfirmation(form, sub)
	if err != nil {
		return err
	}
	return n.mailer.Send(ctx, form.Email, "✅ Commande "+sub.OrderID+" confirmée", body)
}
