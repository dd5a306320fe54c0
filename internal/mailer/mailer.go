// Package mailer sends workflow notification mail through the configured
// SMTP relay.
package mailer

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/CrackedOnTiti/AREA/internal/config"
)

// Sender delivers mail via SMTP. The zero value is unusable; construct
// with New.
type Sender struct {
	cfg config.SMTP
}

func New(cfg config.SMTP) *Sender {
	return &Sender{cfg: cfg}
}

// Send delivers one message. Transport and authentication failures come
// back as errors; callers surface them in execution results rather than
// propagating them.
func (s *Sender) Send(ctx context.Context, to, subject, body string, html bool) error {
	if s.cfg.Username == "" || s.cfg.Password == "" {
		return fmt.Errorf("mailer: SMTP credentials not configured (missing SMTP_USERNAME or SMTP_PASSWORD)")
	}
	if to == "" {
		return fmt.Errorf("mailer: recipient email address is required")
	}

	msg := mail.NewMsg()
	from := s.cfg.FromEmail
	if from == "" {
		from = s.cfg.Username
	}
	if err := msg.From(from); err != nil {
		return fmt.Errorf("mailer: invalid from address %q: %w", from, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("mailer: invalid recipient %q: %w", to, err)
	}
	msg.Subject(subject)
	if html {
		msg.SetBodyString(mail.TypeTextHTML, body)
	} else {
		msg.SetBodyString(mail.TypeTextPlain, body)
	}

	tlsPolicy := mail.NoTLS
	if s.cfg.UseTLS {
		tlsPolicy = mail.TLSMandatory
	}
	client, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
		mail.WithTLSPortPolicy(tlsPolicy),
	)
	if err != nil {
		return fmt.Errorf("mailer: smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", to, err)
	}
	return nil
}
