package services

import (
	"context"
	"log"

	"github.com/wneessen/go-mail"
)

// MailSender envoie des e-mails HTML via SMTP.
type MailSender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewMailSender(host string, port int, username, password, from string) *MailSender {
	return &MailSender{host: host, port: port, username: username, password: password, from: from}
}

func (m *MailSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()

	if err := msg.From(m.from); err != nil {
		return err
	}
	if err := msg.To(to); err != nil {
		return err
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	client, err := mail.NewClient(m.host,
		mail.WithPort(m.port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(m.username),
		mail.WithPassword(m.password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}

	log.Println("📤 Envoi de l'e-mail à", to)
	return client.DialAndSendWithContext(ctx, msg)
}
