package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/54b3r/alertrag-go/internal/rag"
	"github.com/54b3r/alertrag-go/internal/router"
	"github.com/54b3r/alertrag-go/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response. It must
	// exceed RouteTimeout.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// RAGTimeout bounds one POST /api/rag request (default: 60s).
	RAGTimeout time.Duration
	// RouteTimeout bounds one POST /api/rag/route request, which may issue a
	// classification call before the answer (default: 100s).
	RouteTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, slog.Default is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on rate-limited
	// endpoints (requests/second). Defaults to 10 if zero.
	RateLimit float64
	// RateBurst is the maximum instantaneous burst per IP. Defaults to 20 if zero.
	RateBurst int
	// APIKey is the Bearer token required on all protected /api/* routes.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// HistoryLimit is the number of turns GET /api/history returns (default: 50).
	HistoryLimit int
	// MetricsRegistry receives the server's collectors. Defaults to
	// prometheus.DefaultRegisterer.
	MetricsRegistry prometheus.Registerer
	// MetricsGatherer backs GET /metrics. Defaults to prometheus.DefaultGatherer.
	MetricsGatherer prometheus.Gatherer
}

// answerer is what POST /api/rag calls. *rag.Orchestrator satisfies it;
// tests inject a fake.
type answerer interface {
	RunInference(ctx context.Context, input, scopeID string) (*rag.Response, error)
	RunInferenceWithImage(ctx context.Context, input, scopeID, imageURL string) (*rag.Response, error)
}

// routedAnswerer is what POST /api/rag/route calls. *router.Assistant
// satisfies it.
type routedAnswerer interface {
	HandleWithRoute(ctx context.Context, question, imageURL string) (*rag.Response, router.Intent, error)
}

// transcript records answered turns. *store.SQLiteStore satisfies it.
type transcript interface {
	Append(ctx context.Context, turn store.Turn) error
	Recent(ctx context.Context, sessionID string, n int) ([]store.Turn, error)
}

// Deps are the long-lived collaborators the server calls into. RAG is
// required; Router and History are optional and their routes are only
// registered when set.
type Deps struct {
	RAG     answerer
	Router  routedAnswerer
	History transcript
}

// Server is the HTTP boundary of the assistant.
type Server struct {
	rag     answerer
	router  routedAnswerer
	history transcript
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// ragRequest is the JSON body for POST /api/rag and POST /api/rag/route.
type ragRequest struct {
	Question string `json:"question"`
	// ImageURL is an optional screenshot the question refers to.
	ImageURL string `json:"imageUrl,omitempty"`
	// SessionID groups turns in the transcript. Empty disables recording.
	SessionID string `json:"sessionId,omitempty"`
	// ScopeID is passed through to retrieval but not used for filtering.
	ScopeID string `json:"scopeId,omitempty"`
}

// errorResponse is the JSON body of every non-2xx API response.
type errorResponse struct {
	Error string `json:"error"`
}

// historyResponse is the JSON body for GET /api/history/{session}.
type historyResponse struct {
	SessionID string       `json:"sessionId"`
	Turns     []store.Turn `json:"turns"`
}
