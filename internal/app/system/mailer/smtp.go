// internal/app/system/mailer/smtp.go
package mailer

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/dalemusser/waffle/pantry/email"
)

// SMTPConfig configures SMTPSender. STARTTLS is mandatory unless UseSSL is
// set or Port is 465, in which case implicit TLS is used.
type SMTPConfig struct {
	Host    string
	Port    int
	User    string
	Pass    string
	UseSSL  bool
	Timeout time.Duration
}

// SMTPSender delivers through an SMTP relay (SES SMTP in production, a
// TLS-enabled Mailpit in development). Auth is only used when User is set.
type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send implements Sender. Malformed addresses and empty bodies are reported
// as ErrPermanent so the Mailer does not retry them.
func (s *SMTPSender) Send(ctx context.Context, e Email) error {
	from, err := mail.ParseAddress(e.From)
	if err != nil {
		return fmt.Errorf("%w: from %q: %v", ErrPermanent, e.From, err)
	}
	to, err := parseAddress(e.To)
	if err != nil {
		return fmt.Errorf("%w: to %q: %v", ErrPermanent, e.To, err)
	}
	if e.TextBody == "" && e.HTMLBody == "" {
		return fmt.Errorf("%w: empty body", ErrPermanent)
	}
	return s.sender(from).SendHTML(ctx, to, e.Subject, e.TextBody, e.HTMLBody)
}

// sender binds the relay settings to the envelope sender of one message.
func (s *SMTPSender) sender(from *mail.Address) *email.Sender {
	return email.NewSender(email.Config{
		Host:        s.cfg.Host,
		Port:        s.cfg.Port,
		Username:    s.cfg.User,
		Password:    s.cfg.Pass,
		FromAddress: from.Address,
		FromName:    from.Name,
		UseSSL:      s.cfg.UseSSL,
		Timeout:     s.cfg.Timeout,
	})
}
