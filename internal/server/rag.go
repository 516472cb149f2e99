package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/54b3r/alertrag-go/internal/llm"
	"github.com/54b3r/alertrag-go/internal/logging"
	"github.com/54b3r/alertrag-go/internal/rag"
	"github.com/54b3r/alertrag-go/internal/router"
	"github.com/54b3r/alertrag-go/internal/store"
)

const (
	// maxBodyBytes caps request bodies; questions and image URLs are short.
	maxBodyBytes = 64 << 10
	// historyWriteTimeout bounds the transcript write after an answer.
	historyWriteTimeout = 2 * time.Second
)

// Outcome label values for the rag request metrics.
const (
	outcomeOK            = "ok"
	outcomeBadRequest    = "bad_request"
	outcomeTimeout       = "timeout"
	outcomeUpstreamError = "upstream_error"
	outcomeNoResponse    = "no_response"
	outcomeParseError    = "parse_error"
	outcomeError         = "error"
)

// answerFunc runs one flow and reports the intent it served.
type answerFunc func(ctx context.Context, req ragRequest) (*rag.Response, router.Intent, error)

// handleRAG handles POST /api/rag. A request with an image is answered from
// the screenshot; every other request is a knowledge-base question.
func (s *Server) handleRAG(w http.ResponseWriter, r *http.Request) {
	s.serveAnswer(w, r, "rag", s.cfg.RAGTimeout, func(ctx context.Context, req ragRequest) (*rag.Response, router.Intent, error) {
		if req.ImageURL != "" {
			resp, err := s.rag.RunInferenceWithImage(ctx, req.Question, req.ScopeID, req.ImageURL)
			return resp, router.ImageAnalysis, err
		}
		resp, err := s.rag.RunInference(ctx, req.Question, req.ScopeID)
		return resp, router.QAndA, err
	})
}

// handleRoute handles POST /api/rag/route, letting the intent router pick
// the flow.
func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	s.serveAnswer(w, r, "rag_route", s.cfg.RouteTimeout, func(ctx context.Context, req ragRequest) (*rag.Response, router.Intent, error) {
		resp, intent, err := s.router.HandleWithRoute(ctx, req.Question, req.ImageURL)
		s.metrics.routeIntentsTotal.WithLabelValues(intent.String()).Inc()
		return resp, intent, err
	})
}

func (s *Server) serveAnswer(w http.ResponseWriter, r *http.Request, handler string, timeout time.Duration, fn answerFunc) {
	log := logging.FromContext(r.Context())

	var req ragRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		s.metrics.ragRequestsTotal.WithLabelValues(handler, outcomeBadRequest).Inc()
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		s.metrics.ragRequestsTotal.WithLabelValues(handler, outcomeBadRequest).Inc()
		writeError(w, http.StatusBadRequest, "question is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	s.metrics.ragInFlight.Inc()
	start := time.Now()
	resp, intent, err := fn(ctx, req)
	elapsed := time.Since(start)
	s.metrics.ragInFlight.Dec()

	outcome := classify(err)
	s.metrics.ragRequestsTotal.WithLabelValues(handler, outcome).Inc()
	s.metrics.ragDurationSeconds.WithLabelValues(handler, outcome).Observe(elapsed.Seconds())

	if err != nil {
		log.Error("rag: request failed",
			slog.String("intent", intent.String()),
			slog.String("outcome", outcome),
			slog.Duration("duration", elapsed),
			slog.Any("error", err),
		)
		status, msg := errorStatus(outcome)
		writeError(w, status, msg)
		return
	}

	log.Info("rag: answered",
		slog.String("intent", intent.String()),
		slog.Int("references", len(resp.References)),
		slog.Duration("duration", elapsed),
	)
	s.record(r.Context(), log, req, resp, intent)
	writeJSON(w, http.StatusOK, resp)
}

// record appends the turn to the transcript. Failures are logged only.
func (s *Server) record(ctx context.Context, log *slog.Logger, req ragRequest, resp *rag.Response, intent router.Intent) {
	if s.history == nil || req.SessionID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyWriteTimeout)
	defer cancel()

	err := s.history.Append(ctx, store.Turn{
		SessionID:  req.SessionID,
		Question:   req.Question,
		Answer:     resp.Output,
		Intent:     intent.String(),
		References: resp.References,
	})
	if err != nil {
		log.Warn("rag: transcript write failed", slog.String("session", req.SessionID), slog.Any("error", err))
	}
}

// classify maps a flow error onto a metrics outcome.
func classify(err error) string {
	switch {
	case err == nil:
		return outcomeOK
	case errors.Is(err, context.DeadlineExceeded):
		return outcomeTimeout
	case errors.Is(err, llm.ErrParseResponse):
		return outcomeParseError
	case errors.Is(err, llm.ErrNoResponse):
		return outcomeNoResponse
	case errors.Is(err, llm.ErrUpstream):
		return outcomeUpstreamError
	default:
		return outcomeError
	}
}

// errorStatus returns the status and client-facing message for an outcome.
// Upstream details stay in the server log.
func errorStatus(outcome string) (int, string) {
	switch outcome {
	case outcomeTimeout:
		return http.StatusGatewayTimeout, "request timed out"
	case outcomeParseError:
		return http.StatusInternalServerError, llm.ErrParseResponse.Error()
	case outcomeNoResponse:
		return http.StatusInternalServerError, llm.ErrNoResponse.Error()
	case outcomeUpstreamError:
		return http.StatusInternalServerError, "language model request failed"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// handleHistory handles GET /api/history/{session}.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	session := r.PathValue("session")
	if session == "" {
		writeError(w, http.StatusBadRequest, "session is required")
		return
	}

	turns, err := s.history.Recent(r.Context(), session, s.cfg.HistoryLimit)
	if err != nil {
		log.Error("history: read failed", slog.String("session", session), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{SessionID: session, Turns: turns})
}
