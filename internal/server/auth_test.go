package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		apiKey    string
		header    string
		want      int
		challenge bool
	}{
		{name: "disabled passes everything", apiKey: "", header: "", want: http.StatusOK},
		{name: "missing header", apiKey: "secret", header: "", want: http.StatusUnauthorized, challenge: true},
		{name: "wrong token", apiKey: "secret", header: "Bearer wrong-token", want: http.StatusUnauthorized, challenge: true},
		{name: "prefix of token", apiKey: "secret", header: "Bearer secre", want: http.StatusUnauthorized, challenge: true},
		{name: "correct token", apiKey: "secret", header: "Bearer secret", want: http.StatusOK},
		{name: "lowercase scheme", apiKey: "secret", header: "bearer secret", want: http.StatusOK},
		{name: "basic auth rejected", apiKey: "secret", header: "Basic dXNlcjpwYXNz", want: http.StatusUnauthorized, challenge: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := authMiddleware(tc.apiKey, okHandler)
			req := httptest.NewRequest(http.MethodPost, "/api/rag", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()

			h.ServeHTTP(w, req)

			if w.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, w.Code)
			}
			if tc.challenge {
				if w.Header().Get("WWW-Authenticate") == "" {
					t.Error("expected WWW-Authenticate header on 401")
				}
				var body errorResponse
				if err := json.NewDecoder(w.Body).Decode(&body); err != nil || body.Error == "" {
					t.Errorf("expected JSON error body, got %q (%v)", w.Body.String(), err)
				}
			}
		})
	}
}

// TestBearerToken verifies the bearerToken extraction helper.
func TestBearerToken(t *testing.T) {
	t.Parallel()

	cases := []struct {
		header string
		want   string
	}{
		{"Bearer mytoken", "mytoken"},
		{"bearer mytoken", "mytoken"},
		{"BEARER mytoken", "mytoken"},
		{"Bearer  spaced ", "spaced"},
		{"Basic dXNlcjpwYXNz", ""},
		{"", ""},
		{"Bearer", ""},
		{"token only", ""},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		if got := bearerToken(req); got != tc.want {
			t.Errorf("header=%q: expected %q, got %q", tc.header, tc.want, got)
		}
	}
}
