// Package notify carries user-visible notices (login success, session
// expiry, background refresh failures) to whichever sinks are configured.
package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Level is the severity of a notice as presented to the user.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarn    Level = "warn"
	LevelError   Level = "error"
)

// Notice is a single non-blocking message for the user.
type Notice struct {
	Level      Level
	Message    string
	Source     string // component that raised the notice, e.g. "session" or "refresher"
	OccurredAt time.Time
}

// Sink consumes notices. Implementations must not block the caller for long.
type Sink interface {
	Notify(ctx context.Context, n Notice) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, n Notice) error

// Notify implements the Sink interface.
func (f SinkFunc) Notify(ctx context.Context, n Notice) error {
	if f == nil {
		return nil
	}
	return f(ctx, n)
}

// LogSink writes notices to a structured logger.
type LogSink struct {
	Logger *slog.Logger
}

// Notify implements the Sink interface.
func (s LogSink) Notify(ctx context.Context, n Notice) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	level := slog.LevelInfo
	switch n.Level {
	case LevelWarn:
		level = slog.LevelWarn
	case LevelError:
		level = slog.LevelError
	}
	logger.Log(ctx, level, n.Message, "notice_level", string(n.Level), "source", n.Source)
	return nil
}

// Fanout delivers every notice to all sinks and joins their errors.
type Fanout []Sink

// Notify implements the Sink interface.
func (f Fanout) Notify(ctx context.Context, n Notice) error {
	var errs []error
	for _, s := range f {
		if s == nil {
			continue
		}
		if err := s.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Send stamps and delivers a notice, logging sink failures instead of returning them.
// A nil sink is allowed.
func Send(ctx context.Context, sink Sink, logger *slog.Logger, level Level, source, message string) {
	if sink == nil {
		return
	}
	n := Notice{Level: level, Message: message, Source: source, OccurredAt: time.Now()}
	if err := sink.Notify(ctx, n); err != nil && logger != nil {
		logger.WarnContext(ctx, "notice delivery failed", "source", source, "error", err)
	}
}
