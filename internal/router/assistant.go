package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/54b3r/alertrag-go/internal/docstore"
	"github.com/54b3r/alertrag-go/internal/llm"
	"github.com/54b3r/alertrag-go/internal/rag"
)

const (
	extractionRoleContext = "You are an expert at extracting content into JSON"
	missedAlertSourceName = "Missed alert form"
)

// Answerer answers knowledge-base questions. *rag.Orchestrator satisfies it.
type Answerer interface {
	RunInference(ctx context.Context, input, scopeID string) (*rag.Response, error)
	RunInferenceWithImage(ctx context.Context, input, scopeID, imageURL string) (*rag.Response, error)
}

// ObjectCompleter is the JSON half of the language-model client.
type ObjectCompleter interface {
	ChatCompletionAsObject(ctx context.Context, content string, v any, opts ...llm.Option) error
}

// Config wires an Assistant.
type Config struct {
	RAG        Answerer
	Classifier Classifier
	// LLM answers the alert flows. Usually the same client the
	// orchestrator uses.
	LLM    ObjectCompleter
	Alerts docstore.AlertLister
	Logger *slog.Logger
}

// Assistant dispatches a question to the flow its intent selects.
type Assistant struct {
	rag        Answerer
	classifier Classifier
	llm        ObjectCompleter
	alerts     docstore.AlertLister
	log        *slog.Logger
}

// NewAssistant validates cfg.
func NewAssistant(cfg Config) (*Assistant, error) {
	switch {
	case cfg.RAG == nil:
		return nil, errors.New("router: rag answerer must not be nil")
	case cfg.Classifier == nil:
		return nil, errors.New("router: classifier must not be nil")
	case cfg.LLM == nil:
		return nil, errors.New("router: llm must not be nil")
	case cfg.Alerts == nil:
		return nil, errors.New("router: alerts collection must not be nil")
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Assistant{
		rag:        cfg.RAG,
		classifier: cfg.Classifier,
		llm:        cfg.LLM,
		alerts:     cfg.Alerts,
		log:        log,
	}, nil
}

// HandleWithRoute answers question through the flow chosen for it. An
// attached image always selects ImageAnalysis; otherwise the classifier
// decides. The chosen intent is returned even when the flow fails.
func (a *Assistant) HandleWithRoute(ctx context.Context, question, imageURL string) (*rag.Response, Intent, error) {
	intent := ImageAnalysis
	if imageURL == "" {
		var err error
		intent, err = a.classifier.Classify(ctx, question)
		if err != nil {
			return nil, QAndA, err
		}
	}
	a.log.Info("router: dispatching", slog.String("intent", intent.String()))

	var (
		resp *rag.Response
		err  error
	)
	switch intent {
	case ImageAnalysis:
		resp, err = a.rag.RunInferenceWithImage(ctx, question, "", imageURL)
	case MissedAlert:
		resp, err = a.SubmitMissedAlert(ctx, question)
	case ExplainAlerts:
		resp, err = a.ExplainAlerts(ctx, question)
	default:
		resp, err = a.rag.RunInference(ctx, question, "")
	}
	return resp, intent, err
}

// ExplainAlerts answers question from every stored alert. Each cited
// "title, url" string becomes a reference.
func (a *Assistant) ExplainAlerts(ctx context.Context, question string) (*rag.Response, error) {
	alerts, err := a.alerts.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("router: list alerts: %w", err)
	}

	var out rag.ContextBasedResponse
	prompt := AlertPromptV1(AlertPromptParams{Question: question, Alerts: alerts})
	if err := a.llm.ChatCompletionAsObject(ctx, prompt, &out); err != nil {
		return nil, fmt.Errorf("router: explain alerts: %w", err)
	}

	refs := make([]docstore.Document, 0, len(out.ContextIDs))
	for _, cited := range out.ContextIDs {
		refs = append(refs, alertReference(cited))
	}
	return &rag.Response{Input: question, Output: out.Answer, References: refs}, nil
}

// SubmitMissedAlert extracts a missed alert from question. A successful
// extraction cites the submission link, a failed one cites nothing and the
// answer explains what was missing.
func (a *Assistant) SubmitMissedAlert(ctx context.Context, question string) (*rag.Response, error) {
	var out rag.ContextBasedResponse
	err := a.llm.ChatCompletionAsObject(ctx, MissedAlertPromptV1(question), &out,
		llm.WithRoleContext(extractionRoleContext),
	)
	if err != nil {
		return nil, fmt.Errorf("router: missed alert: %w", err)
	}

	refs := make([]docstore.Document, 0, len(out.ContextIDs))
	for _, u := range out.ContextIDs {
		refs = append(refs, docstore.Document{ID: u, SourceName: missedAlertSourceName, URL: u})
	}
	return &rag.Response{Input: question, Output: out.Answer, References: refs}, nil
}

// alertReference splits a cited "title, url" string on its last ", ". A
// citation without the separator is treated as a bare URL.
func alertReference(cited string) docstore.Document {
	title, url := "", cited
	if i := strings.LastIndex(cited, ", "); i >= 0 {
		title, url = cited[:i], cited[i+2:]
	}
	return docstore.Document{ID: cited, SourceName: title, URL: url}
}
