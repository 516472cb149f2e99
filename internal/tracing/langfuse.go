// Package tracing wires eino callback handlers that export model calls to
// Langfuse. Every chat, router and vision completion becomes a trace span.
package tracing

import (
	"log/slog"
	"os"

	"github.com/cloudwego/eino-ext/callbacks/langfuse"
	"github.com/cloudwego/eino/callbacks"
)

// DefaultHost is used when LANGFUSE_HOST is unset.
const DefaultHost = "http://localhost:3000"

// Settings holds the Langfuse credentials.
type Settings struct {
	Host      string
	PublicKey string
	SecretKey string
}

// SettingsFromEnv reads LANGFUSE_HOST, LANGFUSE_PUBLIC_KEY and LANGFUSE_SECRET_KEY.
func SettingsFromEnv() Settings {
	host := os.Getenv("LANGFUSE_HOST")
	if host == "" {
		host = DefaultHost
	}
	return Settings{
		Host:      host,
		PublicKey: os.Getenv("LANGFUSE_PUBLIC_KEY"),
		SecretKey: os.Getenv("LANGFUSE_SECRET_KEY"),
	}
}

// Enabled reports whether both keys are present.
func (s Settings) Enabled() bool {
	return s.PublicKey != "" && s.SecretKey != ""
}

// Setup initialises the Langfuse callback handler when s is enabled.
// It returns the handler and a flush function that must be called before
// process exit. When tracing is disabled both are nil and ok is false.
func Setup(s Settings, log *slog.Logger) (handler callbacks.Handler, flush func(), ok bool) {
	if !s.Enabled() {
		log.Debug("tracing: langfuse disabled")
		return nil, nil, false
	}

	handler, flush = langfuse.NewLangfuseHandler(&langfuse.Config{
		Host:      s.Host,
		PublicKey: s.PublicKey,
		SecretKey: s.SecretKey,
	})
	log.Info("tracing: langfuse enabled", slog.String("host", s.Host))

	return handler, flush, true
}
