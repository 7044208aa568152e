// Package events delivers security events (reused remember-me tokens, login
// lockouts, second-factor changes) to a log or a Kafka topic.
package events

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/tabgate/internal/auth/domain"
	"github.com/aussiebroadwan/tabgate/pkg/slogx"
)

// Sink receives security events. Emit must not block for long; callers run
// it on the request path.
type Sink interface {
	Emit(ctx context.Context, ev domain.SecurityEvent) error
}

// LogSink writes every event as a warning through the request logger.
type LogSink struct {
	Logger *slog.Logger // optional; the context logger is used when nil
}

func (s LogSink) Emit(ctx context.Context, ev domain.SecurityEvent) error {
	logger := s.Logger
	if logger == nil {
		logger = slogx.FromContext(ctx)
	}

	attrs := []any{
		"event", ev.Type,
		"user_id", ev.UserID,
		"ip", ev.IP,
		"at", ev.At,
	}
	for k, v := range ev.Metadata {
		attrs = append(attrs, "meta."+k, v)
	}
	logger.WarnContext(ctx, "security event", attrs...)
	return nil
}

// Multi fans an event out to every sink and joins their errors.
type Multi []Sink

func (m Multi) Emit(ctx context.Context, ev domain.SecurityEvent) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops events.
type Discard struct{}

func (Discard) Emit(context.Context, domain.SecurityEvent) error { return nil }

var (
	_ Sink = LogSink{}
	_ Sink = Multi(nil)
	_ Sink = Discard{}
)
