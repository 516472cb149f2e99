package server

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/54b3r/alertrag-go/internal/logging"
)

// authMiddleware enforces Bearer token authentication. With an empty apiKey
// it is a no-op; New logs the disabled state once at startup.
//
// Protected routes must supply:
//
//	Authorization: Bearer <apiKey>
//
// Failures receive 401 with a WWW-Authenticate challenge and a JSON error
// body. The presented token is never logged.
func authMiddleware(apiKey string, next http.Handler) http.Handler {
	if apiKey == "" {
		return next
	}
	want := []byte(apiKey)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context())

		token := bearerToken(r)
		switch {
		case token == "":
			log.Warn("auth: missing Authorization header", slog.String("path", r.URL.Path))
			w.Header().Set("WWW-Authenticate", `Bearer realm="alertrag"`)
			writeError(w, http.StatusUnauthorized, "authorization required")
			return
		case subtle.ConstantTimeCompare([]byte(token), want) != 1:
			log.Warn("auth: invalid token", slog.String("path", r.URL.Path), slog.Bool("token_present", true))
			w.Header().Set("WWW-Authenticate", `Bearer realm="alertrag" error="invalid_token"`)
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Returns an empty string if the header is absent or malformed.
func bearerToken(r *http.Request) string {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
