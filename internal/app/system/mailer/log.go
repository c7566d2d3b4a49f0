// internal/app/system/mailer/log.go
package mailer

import (
	"context"

	"go.uber.org/zap"
)

// LogSender writes messages to the log instead of sending them. Used in
// development and when no provider is configured.
type LogSender struct {
	log *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{log: logger}
}

func (s *LogSender) Send(_ context.Context, e Email) error {
	s.log.Info("mail (log provider)",
		zap.String("from", e.From),
		zap.String("to", e.To),
		zap.String("subject", e.Subject),
		zap.String("text", e.TextBody))
	return nil
}
