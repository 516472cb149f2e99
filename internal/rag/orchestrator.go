package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/54b3r/alertrag-go/internal/budget"
	"github.com/54b3r/alertrag-go/internal/docstore"
	"github.com/54b3r/alertrag-go/internal/llm"
)

// DefaultContextChunksLimit caps the number of retrieved documents placed in
// a prompt when no override is configured.
const DefaultContextChunksLimit = 15

const (
	contextLimitEnv       = "RAG_CONTEXT_CHUNKS_LIMIT"
	legacyContextLimitEnv = "RAG_CONTEXT_CHUCKS_LIMIT"
	maxContextTokensEnv   = "RAG_MAX_CONTEXT_TOKENS"
)

// Searcher retrieves documents nearest to a query.
type Searcher interface {
	SemanticVectorSearch(ctx context.Context, query, scopeID string) ([]docstore.Document, error)
}

// Completer is the part of the language-model client the orchestrator uses.
// *llm.Client satisfies it.
type Completer interface {
	ChatCompletionAsObject(ctx context.Context, content string, v any, opts ...llm.Option) error
	ImageToText(ctx context.Context, imageURL, instruction string) (string, error)
}

// Config wires an Orchestrator.
type Config struct {
	Store Searcher
	LLM   Completer
	// MakeContext renders a document for the prompt. Defaults to the raw content.
	MakeContext docstore.ContentExtractor
	// ContextChunksLimit defaults to DefaultContextChunksLimit when <= 0.
	ContextChunksLimit int
	// MaxContextTokens trims the tail of the context when > 0.
	MaxContextTokens int
	Logger           *slog.Logger
}

// Orchestrator answers questions from retrieved documents. It holds no
// per-request state and is safe for concurrent use.
type Orchestrator struct {
	store            Searcher
	llm              Completer
	makeContext      docstore.ContentExtractor
	limit            int
	maxContextTokens int
	log              *slog.Logger
}

// New validates cfg and returns an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Store == nil {
		return nil, errors.New("rag: store must not be nil")
	}
	if cfg.LLM == nil {
		return nil, errors.New("rag: llm must not be nil")
	}
	o := &Orchestrator{
		store:            cfg.Store,
		llm:              cfg.LLM,
		makeContext:      cfg.MakeContext,
		limit:            cfg.ContextChunksLimit,
		maxContextTokens: cfg.MaxContextTokens,
		log:              cfg.Logger,
	}
	if o.makeContext == nil {
		o.makeContext = docstore.RawContent
	}
	if o.limit <= 0 {
		o.limit = DefaultContextChunksLimit
	}
	if o.log == nil {
		o.log = slog.Default()
	}
	return o, nil
}

// ContextChunksLimitFromEnv reads RAG_CONTEXT_CHUNKS_LIMIT, falling back to
// the misspelled RAG_CONTEXT_CHUCKS_LIMIT and then to the default.
func ContextChunksLimitFromEnv(log *slog.Logger) int {
	for _, key := range []string{contextLimitEnv, legacyContextLimitEnv} {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			log.Warn("rag: ignoring invalid context chunk limit", slog.String("key", key), slog.String("value", v))
			continue
		}
		return n
	}
	log.Debug("rag: no context chunk limit configured, using default", slog.Int("limit", DefaultContextChunksLimit))
	return DefaultContextChunksLimit
}

// MaxContextTokensFromEnv reads RAG_MAX_CONTEXT_TOKENS. Unset or invalid
// means unlimited.
func MaxContextTokensFromEnv() int {
	n, err := strconv.Atoi(os.Getenv(maxContextTokensEnv))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// RunInference answers input from the documents retrieved for it.
func (o *Orchestrator) RunInference(ctx context.Context, input, scopeID string) (*Response, error) {
	docs, err := o.retrieve(ctx, input, scopeID)
	if err != nil {
		return nil, err
	}
	docs = o.fit(docs, func(chunks []ContextChunk) string {
		return QAPromptV1(QAPromptParams{Question: input, Contexts: chunks})
	})

	prompt := QAPromptV1(QAPromptParams{Question: input, Contexts: o.chunks(docs)})
	return o.answer(ctx, input, prompt, docs)
}

// RunInferenceWithImage answers a question about a screenshot. The
// screenshot is described by the vision model, the description is used as a
// first search, and the question plus the first hits drive a second search
// that supplies the prompt context.
func (o *Orchestrator) RunInferenceWithImage(ctx context.Context, input, scopeID, imageURL string) (*Response, error) {
	description, err := o.llm.ImageToText(ctx, imageURL, ImageDescriptionInstruction)
	if err != nil {
		return nil, fmt.Errorf("rag: describe image: %w", err)
	}

	imageDocs, err := o.retrieve(ctx, ImageDescriptionMarker+description, scopeID)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(imageDocs))
	for i, d := range imageDocs {
		texts[i] = TruncateAfterImageDescription(d.Content)
	}

	docs, err := o.retrieve(ctx, input+". "+strings.Join(texts, ". "), scopeID)
	if err != nil {
		return nil, err
	}
	docs = o.fit(docs, func(chunks []ContextChunk) string {
		return ImagePromptV1(ImagePromptParams{Question: input, Contexts: chunks, ImageDescription: description})
	})

	prompt := ImagePromptV1(ImagePromptParams{
		Question:         input,
		Contexts:         o.chunks(docs),
		ImageDescription: description,
	})
	return o.answer(ctx, input, prompt, docs)
}

func (o *Orchestrator) retrieve(ctx context.Context, query, scopeID string) ([]docstore.Document, error) {
	docs, err := o.store.SemanticVectorSearch(ctx, query, scopeID)
	if err != nil {
		return nil, fmt.Errorf("rag: search: %w", err)
	}
	if len(docs) > o.limit {
		docs = docs[:o.limit]
	}
	return docs, nil
}

// fit drops tail documents until the rendered context fits the token budget.
// render builds the full prompt for a set of chunks so the fixed part of the
// template is measured with an empty context.
func (o *Orchestrator) fit(docs []docstore.Document, render func([]ContextChunk) string) []docstore.Document {
	if o.maxContextTokens <= 0 {
		return docs
	}
	fixed := budget.Estimate(render(nil))
	kept := budget.FitTail(docs, func(d docstore.Document) string {
		return renderChunk(ContextChunk{ID: d.ID, Text: o.makeContext(d)})
	}, fixed, o.maxContextTokens)
	if len(kept) < len(docs) {
		o.log.Info("rag: context trimmed to token budget",
			slog.Int("retrieved", len(docs)),
			slog.Int("kept", len(kept)),
			slog.Int("max_tokens", o.maxContextTokens),
		)
	}
	return kept
}

func (o *Orchestrator) chunks(docs []docstore.Document) []ContextChunk {
	out := make([]ContextChunk, len(docs))
	for i, d := range docs {
		out[i] = ContextChunk{ID: d.ID, Text: o.makeContext(d)}
	}
	return out
}

func (o *Orchestrator) answer(ctx context.Context, input, prompt string, docs []docstore.Document) (*Response, error) {
	var resp ContextBasedResponse
	if err := o.llm.ChatCompletionAsObject(ctx, prompt, &resp); err != nil {
		return nil, fmt.Errorf("rag: completion: %w", err)
	}
	refs := FilterCited(docs, resp.ContextIDs)
	o.log.Debug("rag: answered",
		slog.Int("retrieved", len(docs)),
		slog.Int("cited", len(resp.ContextIDs)),
		slog.Int("references", len(refs)),
	)
	return &Response{Input: input, Output: resp.Answer, References: refs}, nil
}

// FilterCited returns the documents whose ID appears in ids, in the order
// they were retrieved. IDs that match no document are ignored. The result is
// never nil.
func FilterCited(docs []docstore.Document, ids []string) []docstore.Document {
	cited := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		cited[id] = struct{}{}
	}
	out := make([]docstore.Document, 0, len(ids))
	for _, d := range docs {
		if _, ok := cited[d.ID]; ok {
			out = append(out, d)
		}
	}
	return out
}
