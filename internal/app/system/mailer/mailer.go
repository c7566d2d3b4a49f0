// internal/app/system/mailer/mailer.go

// Package mailer delivers outbound email. Delivery is best-effort: callers
// that must not fail on mail use SendAsync, which only logs.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/metrics"
	"github.com/Ritesh0912-coder/SYNAPSEAI/internal/app/system/timeouts"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Email is one outbound message. From is filled by the Mailer.
type Email struct {
	From     string
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender performs a single delivery attempt.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// ErrPermanent marks a failure that retrying will not fix.
var ErrPermanent = errors.New("permanent delivery failure")

// Mailer wraps a Sender with a from address, retries and logging.
type Mailer struct {
	sender     Sender
	from       string
	log        *zap.Logger
	maxRetries uint64
	initial    time.Duration
}

// New builds a Mailer. fromName may be empty.
func New(sender Sender, fromAddr, fromName string, logger *zap.Logger) *Mailer {
	from := fromAddr
	if fromName != "" {
		from = (&mail.Address{Name: fromName, Address: fromAddr}).String()
	}
	return &Mailer{
		sender:     sender,
		from:       from,
		log:        logger,
		maxRetries: 3,
		initial:    500 * time.Millisecond,
	}
}

// WithRetry overrides the retry policy.
func (m *Mailer) WithRetry(maxRetries uint64, initial time.Duration) *Mailer {
	m.maxRetries = maxRetries
	m.initial = initial
	return m
}

// Send delivers e, retrying transient failures with exponential backoff.
func (m *Mailer) Send(ctx context.Context, e Email) error {
	if e.To == "" {
		return fmt.Errorf("%w: empty recipient", ErrPermanent)
	}
	e.From = m.from

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.initial
	b.Multiplier = 2
	b.MaxInterval = 8 * time.Second

	attempt := 0
	op := func() error {
		attempt++
		err := m.sender.Send(ctx, e)
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrPermanent) {
			return backoff.Permanent(err)
		}
		m.log.Warn("mail attempt failed",
			zap.String("to", e.To),
			zap.Int("attempt", attempt),
			zap.Error(err))
		return err
	}

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, m.maxRetries), ctx))
	if err != nil {
		metrics.MailDeliveries.WithLabelValues("failed").Inc()
		return err
	}
	metrics.MailDeliveries.WithLabelValues("sent").Inc()
	return nil
}

// SendAsync delivers e in the background under the delivery timeout.
// Failures are logged and never returned.
func (m *Mailer) SendAsync(e Email) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Delivery())
		defer cancel()
		if err := m.Send(ctx, e); err != nil {
			m.log.Error("mail delivery failed",
				zap.String("to", e.To),
				zap.String("subject", e.Subject),
				zap.Error(err))
		}
	}()
}
