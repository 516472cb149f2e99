// Package logging provides the structured logger shared by the alertrag
// commands and server, built on [log/slog]. The root command builds one
// logger via [New] and hands it down explicitly or through the request
// context with [WithLogger] / [FromContext].
//
// Environment variables:
//
//	LOG_LEVEL  = debug | info | warn | error  (default: info)
//	LOG_FORMAT = json | text                  (default: json)
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// ServiceName is attached to every record as the "service" attribute.
const ServiceName = "alertrag"

type contextKey struct{}

// Options configures a logger built by [NewWithOptions].
type Options struct {
	// Level is one of debug, info, warn, error. Unknown values mean info.
	Level string
	// Format is json or text. Anything else means json.
	Format string
	// Version, when set, is attached as the "version" attribute.
	Version string
}

// New builds a logger writing to stderr, configured from LOG_LEVEL and
// LOG_FORMAT.
func New(version string) *slog.Logger {
	return NewWithOptions(os.Stderr, Options{
		Level:   os.Getenv("LOG_LEVEL"),
		Format:  os.Getenv("LOG_FORMAT"),
		Version: version,
	})
}

// NewWithOptions builds a logger writing to w.
func NewWithOptions(w io.Writer, o Options) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(o.Level)}

	var handler slog.Handler
	if strings.EqualFold(strings.TrimSpace(o.Format), "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}

	attrs := []any{slog.String("service", ServiceName)}
	if o.Version != "" {
		attrs = append(attrs, slog.String("version", o.Version))
	}
	return slog.New(handler).With(attrs...)
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger stored in ctx, or [slog.Default] when none
// is present.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}

// ParseLevel converts a level name to a [slog.Level], defaulting to Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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
