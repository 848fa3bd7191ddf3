// Package logging builds the structured logger shared by every component.
// The logger is constructed once in main and passed down explicitly; library
// packages never reach for slog.Default.
package logging

import (
	"io"
	"log/slog"
	"strings"
)

// Options configures New.
type Options struct {
	// Level is the minimum level emitted. Records below it are dropped.
	Level slog.Level
	// Format selects the handler: "json" (default) or "text".
	Format string
}

// New returns a logger writing to w. Every record carries a timestamp and
// its level; attributes passed by callers are forwarded unchanged.
func New(w io.Writer, opts Options) *slog.Logger {
	ho := &slog.HandlerOptions{Level: opts.Level}
	if strings.EqualFold(opts.Format, "text") {
		return slog.New(slog.NewTextHandler(w, ho))
	}
	return slog.New(slog.NewJSONHandler(w, ho))
}

// Discard returns a logger that drops everything. Intended for tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// LevelForEnv picks the default threshold for an environment name:
// permissive (debug) for local development, restrictive (warn) everywhere else.
func LevelForEnv(env string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "development", "dev", "local", "localhost":
		return slog.LevelDebug
	default:
		return slog.LevelWarn
	}
}

// ParseLevel parses debug/info/warn/error (case-insensitive).
// Empty or unknown values return fallback.
func ParseLevel(s string, fallback slog.Level) slog.Level {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return fallback
	}
	return lvl
}
