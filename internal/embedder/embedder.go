// Package embedder converts text into dense vector embeddings. The OpenAI
// and Azure OpenAI backends use the go-openai SDK; the Ollama backend talks
// to a local server over plain HTTP.
package embedder

import (
	"context"
	"net/http"
	"time"
)

// DefaultTimeout bounds every embeddings request.
const DefaultTimeout = 10 * time.Second

// Embedder turns one string into one vector. The vector length is fixed by
// the configured model. Empty input is passed through to the backend as-is.
type Embedder interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// HealthChecker is implemented by embedders that can cheaply verify that
// their upstream is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}
