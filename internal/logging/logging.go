package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/raoulx24/recpush/internal/config"
)

// Provides a simple logger interface for the application

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// New builds a slog-backed Logger honoring the configured level and format.
func New(cfg config.LoggingConfig, w io.Writer) Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// With returns l with args attached to every record, when l supports it.
func With(l Logger, args ...any) Logger {
	if s, ok := l.(*slog.Logger); ok {
		return s.With(args...)
	}
	return l
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

type nop struct{}

func (nop) Debug(string, ...any) {}
func (nop) Info(string, ...any)  {}
func (nop) Warn(string, ...any)  {}
func (nop) Error(string, ...any) {}

// Nop discards everything.
func Nop() Logger { return nop{} }
