// Package logging configures the process-wide slog logger and carries request-scoped loggers.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

// ParseLevel maps a level name to a slog level. Unknown names fall back to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger creates a logger writing to w. Production mode logs JSON, other modes log text.
func NewLogger(w io.Writer, level, mode string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     ParseLevel(level),
		AddSource: mode != "prod" && ParseLevel(level) == slog.LevelDebug,
	}

	var handler slog.Handler
	if mode == "prod" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("service", "notescopilot")
}

// Setup installs the logger as slog's default and returns it.
func Setup(w io.Writer, level, mode string) *slog.Logger {
	logger := NewLogger(w, level, mode)
	slog.SetDefault(logger)
	return logger
}

type loggerKey struct{}

// FromContext extracts the logger from context, falling back to slog's default.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

// ToContext adds the logger to context.
func ToContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}
