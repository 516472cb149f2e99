package embedder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOllamaEmbedder_CreateEmbedding(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req ollamaEmbedRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Model != "nomic-embed-text" || len(req.Input) != 1 {
			t.Errorf("unexpected request: %+v", req)
		}
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embeddings: [][]float32{{0.4, 0.5}}})
	}))
	defer srv.Close()

	emb := NewOllamaEmbedder(&OllamaConfig{Host: srv.URL, Model: "nomic-embed-text"})
	vec, err := emb.CreateEmbedding(context.Background(), "port congestion")
	if err != nil {
		t.Fatalf("CreateEmbedding: %v", err)
	}
	if len(vec) != 2 || vec[0] != 0.4 {
		t.Errorf("vec = %v", vec)
	}
}

func TestOllamaEmbedder_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   ollamaEmbedResponse
	}{
		{"server error", http.StatusInternalServerError, ollamaEmbedResponse{Error: "model not found"}},
		{"wrong count", http.StatusOK, ollamaEmbedResponse{Embeddings: [][]float32{{1}, {2}}}},
		{"no embeddings", http.StatusOK, ollamaEmbedResponse{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				json.NewEncoder(w).Encode(tt.body)
			}))
			defer srv.Close()

			emb := NewOllamaEmbedder(&OllamaConfig{Host: srv.URL, Model: "m"})
			if _, err := emb.CreateEmbedding(context.Background(), "x"); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
