// Package smtp sends emails over SMTP using go-mail.
package smtp

import (
	"context"
	"crypto/tls"
	"fmt"

	mail "github.com/go-mail/mail"

	"github.com/pm13/formation-backend/internal/email"
)

// Sender sends emails through the SMTP server described by a MailConfig.
// A Sender is cheap to construct, the dialer only connects on Send.
type Sender struct {
	cfg email.MailConfig
}

// NewSender creates a Sender for the provided configuration.
func NewSender(cfg email.MailConfig) *Sender {
	return &Sender{cfg: cfg}
}

// Send delivers a single plain-text email. The context deadline, if any,
// does not interrupt an in-flight SMTP exchange; it is checked before
// dialing.
func (s *Sender) Send(ctx context.Context, from, recipient email.Address, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := mail.NewMessage()
	m.SetHeader("From", string(from))
	m.SetHeader("To", string(recipient))
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := mail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.User, s.cfg.Pass)
	d.TLSConfig = &tls.Config{ServerName: s.cfg.Host}
	if s.cfg.Secure {
		// Implicit TLS. Without it go-mail negotiates STARTTLS when the
		// server offers it.
		d.SSL = true
	}

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send to %s:%d failed: %w", s.cfg.Host, s.cfg.Port, err)
	}

	return nil
}
