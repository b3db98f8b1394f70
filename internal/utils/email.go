package utils

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"dryfruit_back_end/internal/config"

	"github.com/wneessen/go-mail"
)

type Attachment struct {
	Name string
	Data []byte
}

// Mailer sends HTML mail over SMTP. Without SMTP_HOST it only logs.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewMailer(cfg *config.Config) *Mailer {
	from := cfg.SMTPFrom
	if from == "" {
		from = cfg.SMTPUsername
	}
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     from,
	}
}

func (m *Mailer) Enabled() bool { return m != nil && m.host != "" }

func (m *Mailer) Send(ctx context.Context, to, subject, html string, attachments ...Attachment) error {
	if !m.Enabled() {
		log.Printf("📧 SMTP not configured, skipping %q to %s", subject, to)
		return nil
	}

	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return fmt.Errorf("from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, html)
	for _, a := range attachments {
		if err := msg.AttachReader(a.Name, bytes.NewReader(a.Data)); err != nil {
			return fmt.Errorf("attach %s: %w", a.Name, err)
		}
	}

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

	log.Println("📤 Sending email to", to)
	return client.DialAndSendWithContext(ctx, msg)
}
