// Package email delivers one-time codes to users.
package email

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/authgate/internal/auth/domain"
	"github.com/aussiebroadwan/authgate/pkg/slogx"
)

// Sender delivers a plain-text message to a single recipient.
type Sender interface {
	Send(ctx context.Context, to domain.Email, subject, body string) error
}

// LogSender writes messages to the log instead of delivering them. Use it in
// development only: at debug level the body, including any code, is logged.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(ctx context.Context, to domain.Email, subject, body string) error {
	l := s.Logger
	if l == nil {
		l = slogx.FromContext(ctx)
	}

	l.InfoContext(ctx, "email not delivered (log sender)",
		slog.String("email", to.String()),
		slog.String("subject", subject),
	)
	l.DebugContext(ctx, "email body", slog.String("email", to.String()), slog.String("body", body))
	return nil
}
