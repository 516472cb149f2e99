// Package audit provides a structured audit logger for CLI command invocations.
// It logs command name, resolved configuration, and sanitised environment state
// so operators can trace what happened without exposing secret values.
//
// Secrets are logged as presence/absence only. Connection strings are logged
// with their credentials stripped.
package audit

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"strings"
)

// secretEnvKeys lists environment variable names whose values must never be
// logged. Only presence ("set") or absence ("unset") is recorded.
var secretEnvKeys = map[string]bool{
	"OPENAI_API_KEY":       true,
	"AZURE_OPENAI_API_KEY": true,
	"ARK_API_KEY":          true,
	"GOOGLE_API_KEY":       true,
	"EMBEDDING_API_KEY":    true,
	"QDRANT_API_KEY":       true,
	"ALERTRAG_API_KEY":     true,
	"LANGFUSE_PUBLIC_KEY":  true,
	"LANGFUSE_SECRET_KEY":  true,
}

// uriEnvKeys lists environment variables holding connection strings that may
// embed a username and password.
var uriEnvKeys = map[string]bool{
	"MONGODB_URI": true,
}

// LogCommandStart emits a structured audit log entry when a CLI command begins.
// It records the command name, config file source, and sanitised environment.
func LogCommandStart(log *slog.Logger, command string, configPath string) {
	attrs := []slog.Attr{
		slog.String("command", command),
		slog.String("config_file", sanitiseConfigPath(configPath)),
	}

	for _, key := range auditKeys {
		attrs = append(attrs, slog.String(key, SanitiseKey(key, os.Getenv(key))))
	}

	log.LogAttrs(context.TODO(), slog.LevelInfo, "audit: command start", attrs...)
}

// auditKeys is the ordered list of env vars included in every audit log entry.
var auditKeys = []string{
	"MODEL_PROVIDER",
	"OPENAI_API_KEY",
	"OPENAI_MODEL",
	"ROUTER_MODEL",
	"VISION_MODEL",
	"AZURE_OPENAI_API_KEY",
	"AZURE_OPENAI_ENDPOINT",
	"AZURE_OPENAI_DEPLOYMENT",
	"OLLAMA_HOST",
	"OLLAMA_MODEL",
	"ARK_API_KEY",
	"GOOGLE_API_KEY",
	"GEMINI_MODEL",
	"EMBEDDING_PROVIDER",
	"EMBEDDING_MODEL",
	"EMBEDDING_API_KEY",
	"MONGODB_URI",
	"MONGODB_DB",
	"MONGODB_COLLECTION",
	"MONGODB_ALERTS_COLLECTION",
	"MONGODB_VECTOR_INDEX",
	"MONGODB_VECTOR_FIELD",
	"VECTOR_BACKEND",
	"QDRANT_HOST",
	"QDRANT_COLLECTION",
	"QDRANT_API_KEY",
	"RAG_CONTEXT_CHUNKS_LIMIT",
	"ALERTRAG_API_KEY",
	"ALERTRAG_HISTORY_DB",
	"LOG_LEVEL",
	"LOG_FORMAT",
	"LANGFUSE_PUBLIC_KEY",
	"LANGFUSE_SECRET_KEY",
}

// SanitiseKey returns "set" or "unset" for known secret keys, a
// credential-free form for connection strings, or the actual value for
// everything else. This is safe to use in log messages.
func SanitiseKey(key, value string) string {
	switch {
	case secretEnvKeys[key]:
		return presence(value)
	case uriEnvKeys[key]:
		return redactURI(value)
	default:
		return valOrUnset(value)
	}
}

// presence returns "set" if the value is non-empty, "unset" otherwise.
func presence(v string) string {
	if v != "" {
		return "set"
	}
	return "unset"
}

// valOrUnset returns the value if non-empty, "unset" otherwise.
func valOrUnset(v string) string {
	if v != "" {
		return v
	}
	return "unset"
}

// redactURI drops the userinfo and query of a connection string.
// Values that do not parse are reduced to presence only.
func redactURI(v string) string {
	if v == "" {
		return "unset"
	}
	u, err := url.Parse(v)
	if err != nil || u.Host == "" {
		return "set"
	}
	u.User = nil
	u.RawQuery = ""
	return u.String()
}

// sanitiseConfigPath returns the config path or "none" if empty.
func sanitiseConfigPath(p string) string {
	if p == "" {
		return "none"
	}
	// Redact home directory for privacy in logs.
	home, err := os.UserHomeDir()
	if err == nil && strings.HasPrefix(p, home) {
		return "~" + p[len(home):]
	}
	return p
}
