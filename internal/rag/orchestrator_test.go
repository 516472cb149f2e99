package rag

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/54b3r/alertrag-go/internal/docstore"
	"github.com/54b3r/alertrag-go/internal/llm"
)

// fakeSearcher returns canned results per query and records every query.
type fakeSearcher struct {
	results  map[string][]docstore.Document
	fallback []docstore.Document
	err      error
	queries  []string
}

func (f *fakeSearcher) SemanticVectorSearch(_ context.Context, query, _ string) ([]docstore.Document, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	if docs, ok := f.results[query]; ok {
		return docs, nil
	}
	return f.fallback, nil
}

// fakeModel replies with text and records the prompts it received.
type fakeModel struct {
	text    string
	err     error
	prompts []string
}

func (f *fakeModel) Generate(_ context.Context, msgs []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	for _, m := range msgs {
		if m.Content != "" {
			f.prompts = append(f.prompts, m.Content)
		}
		for _, part := range m.MultiContent {
			if part.Type == schema.ChatMessagePartTypeText {
				f.prompts = append(f.prompts, part.Text)
			}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return schema.AssistantMessage(f.text, nil), nil
}

type fakeImages struct{}

func (fakeImages) FetchBase64(context.Context, string) (string, error) { return "aGVsbG8=", nil }

func docs(ids ...string) []docstore.Document {
	out := make([]docstore.Document, len(ids))
	for i, id := range ids {
		out[i] = docstore.Document{ID: id, SourceName: "kb", Content: "content of " + id}
	}
	return out
}

func newOrchestrator(t *testing.T, store Searcher, chat, vision *fakeModel, logs *bytes.Buffer, limit, maxTokens int) *Orchestrator {
	t.Helper()
	log := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	client, err := llm.New(llm.Config{Model: chat, Vision: vision, Images: fakeImages{}, Logger: log})
	if err != nil {
		t.Fatalf("llm.New: %v", err)
	}
	o, err := New(Config{Store: store, LLM: client, ContextChunksLimit: limit, MaxContextTokens: maxTokens, Logger: log})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

func TestNew_RequiresDependencies(t *testing.T) {
	t.Parallel()
	if _, err := New(Config{LLM: &llm.Client{}}); err == nil {
		t.Error("expected error for nil store")
	}
	if _, err := New(Config{Store: &fakeSearcher{}}); err == nil {
		t.Error("expected error for nil llm")
	}
}

func TestRunInference(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		retrieved []docstore.Document
		reply     string
		limit     int
		wantRefs  []string
		wantOut   string
	}{
		{
			name:      "cited documents in retrieval order",
			retrieved: docs("a", "b", "c"),
			reply:     `{"answer":"LKSG is a law.","contextIds":["c","a"]}`,
			wantRefs:  []string{"a", "c"},
			wantOut:   "LKSG is a law.",
		},
		{
			name:      "hallucinated ids are dropped",
			retrieved: docs("a", "b"),
			reply:     `{"answer":"x","contextIds":["zzz","b"]}`,
			wantRefs:  []string{"b"},
			wantOut:   "x",
		},
		{
			name:      "empty citation list yields empty references",
			retrieved: docs("a"),
			reply:     `{"answer":"I don't know","contextIds":[]}`,
			wantRefs:  []string{},
			wantOut:   "I don't know",
		},
		{
			name:      "null citation list yields empty references",
			retrieved: docs("a"),
			reply:     `{"answer":"I don't know","contextIds":null}`,
			wantRefs:  []string{},
			wantOut:   "I don't know",
		},
		{
			name:      "ids beyond the chunk limit are never referenced",
			retrieved: docs("a", "b", "c", "d"),
			limit:     2,
			reply:     `{"answer":"y","contextIds":["a","d"]}`,
			wantRefs:  []string{"a"},
			wantOut:   "y",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			chat := &fakeModel{text: tc.reply}
			var logs bytes.Buffer
			o := newOrchestrator(t, &fakeSearcher{fallback: tc.retrieved}, chat, nil, &logs, tc.limit, 0)

			resp, err := o.RunInference(context.Background(), "What is LKSG?", "scope-1")
			if err != nil {
				t.Fatalf("RunInference: %v", err)
			}
			if resp.Input != "What is LKSG?" {
				t.Errorf("Input = %q", resp.Input)
			}
			if resp.Output != tc.wantOut {
				t.Errorf("Output = %q, want %q", resp.Output, tc.wantOut)
			}
			if resp.References == nil {
				t.Fatal("References is nil, want non-nil slice")
			}
			got := make([]string, len(resp.References))
			for i, d := range resp.References {
				got[i] = d.ID
			}
			if strings.Join(got, ",") != strings.Join(tc.wantRefs, ",") {
				t.Errorf("References = %v, want %v", got, tc.wantRefs)
			}
		})
	}
}

func TestRunInference_EmptyStoreStillPrompts(t *testing.T) {
	t.Parallel()
	chat := &fakeModel{text: `{"answer":"I don't know","contextIds":[]}`}
	var logs bytes.Buffer
	o := newOrchestrator(t, &fakeSearcher{}, chat, nil, &logs, 0, 0)

	resp, err := o.RunInference(context.Background(), "What is LKSG?", "")
	if err != nil {
		t.Fatalf("RunInference: %v", err)
	}
	if len(chat.prompts) != 1 {
		t.Fatalf("model called with %d prompts, want 1", len(chat.prompts))
	}
	if !strings.Contains(chat.prompts[0], "Context:\n\"\"\"\n\n\"\"\"") {
		t.Errorf("prompt does not carry an empty context block:\n%s", chat.prompts[0])
	}
	if resp.References == nil || len(resp.References) != 0 {
		t.Errorf("References = %#v, want empty slice", resp.References)
	}
}

func TestRunInference_PromptCarriesContext(t *testing.T) {
	t.Parallel()
	chat := &fakeModel{text: `{"answer":"ok","contextIds":[]}`}
	var logs bytes.Buffer
	o := newOrchestrator(t, &fakeSearcher{fallback: docs("a", "b")}, chat, nil, &logs, 0, 0)

	if _, err := o.RunInference(context.Background(), "q?", ""); err != nil {
		t.Fatalf("RunInference: %v", err)
	}
	want := "CTX-ID: a -> CONTEXT: content of a || CTX-ID: b -> CONTEXT: content of b"
	if !strings.Contains(chat.prompts[0], want) {
		t.Errorf("prompt missing rendered context %q", want)
	}
	if !strings.Contains(chat.prompts[0], "Question: q?") {
		t.Error("prompt missing question")
	}
}

func TestRunInference_Errors(t *testing.T) {
	t.Parallel()

	searchErr := errors.New("atlas down")
	tests := []struct {
		name    string
		store   *fakeSearcher
		chat    *fakeModel
		wantErr error
		wantLog string
	}{
		{
			name:    "invalid JSON is a parse failure",
			store:   &fakeSearcher{fallback: docs("a")},
			chat:    &fakeModel{text: "Sure! The answer is 42."},
			wantErr: llm.ErrParseResponse,
			wantLog: "The answer is 42",
		},
		{
			name:    "missing answer is a parse failure",
			store:   &fakeSearcher{fallback: docs("a")},
			chat:    &fakeModel{text: `{"contextIds":["a"]}`},
			wantErr: llm.ErrParseResponse,
			wantLog: "contextIds",
		},
		{
			name:    "upstream failure is distinct",
			store:   &fakeSearcher{fallback: docs("a")},
			chat:    &fakeModel{err: errors.New("429 too many requests")},
			wantErr: llm.ErrUpstream,
		},
		{
			name:    "search failure propagates",
			store:   &fakeSearcher{err: searchErr},
			chat:    &fakeModel{},
			wantErr: searchErr,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var logs bytes.Buffer
			o := newOrchestrator(t, tc.store, tc.chat, nil, &logs, 0, 0)

			_, err := o.RunInference(context.Background(), "q", "")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
			if errors.Is(tc.wantErr, llm.ErrParseResponse) && errors.Is(err, llm.ErrUpstream) {
				t.Error("parse failure must not look like an upstream failure")
			}
			if tc.wantLog != "" && !strings.Contains(logs.String(), tc.wantLog) {
				t.Errorf("raw response not logged; logs:\n%s", logs.String())
			}
		})
	}
}

func TestRunInference_TokenBudgetDropsTail(t *testing.T) {
	t.Parallel()
	chat := &fakeModel{text: `{"answer":"ok","contextIds":["a","b","c"]}`}
	var logs bytes.Buffer

	fixed := len(QAPromptV1(QAPromptParams{Question: "q"})) / 4
	// Room for the first chunk only.
	o := newOrchestrator(t, &fakeSearcher{fallback: docs("a", "b", "c")}, chat, nil, &logs, 0, fixed+12)

	resp, err := o.RunInference(context.Background(), "q", "")
	if err != nil {
		t.Fatalf("RunInference: %v", err)
	}
	if len(resp.References) != 1 || resp.References[0].ID != "a" {
		t.Errorf("References = %+v, want only a", resp.References)
	}
	if strings.Contains(chat.prompts[0], "CTX-ID: b") {
		t.Error("trimmed chunk b still in prompt")
	}
}

func TestRunInferenceWithImage(t *testing.T) {
	t.Parallel()

	const description = "A dashboard listing supplier alerts."
	imageQuery := ImageDescriptionMarker + description
	first := []docstore.Document{
		{ID: "s1", Content: "Alerts page. Image description: an older generated caption"},
		{ID: "s2", Content: "Settings page"},
	}
	secondQuery := "Where do I filter? . Alerts page. Image description: . Settings page"
	second := docs("x", "y")

	store := &fakeSearcher{results: map[string][]docstore.Document{
		imageQuery:  first,
		secondQuery: second,
	}}
	chat := &fakeModel{text: `{"answer":"Use the filter bar.","contextIds":["y"]}`}
	vision := &fakeModel{text: description}
	var logs bytes.Buffer
	o := newOrchestrator(t, store, chat, vision, &logs, 0, 0)

	resp, err := o.RunInferenceWithImage(context.Background(), "Where do I filter? ", "", "https://img.example/s.png")
	if err != nil {
		t.Fatalf("RunInferenceWithImage: %v", err)
	}

	if len(store.queries) != 2 {
		t.Fatalf("searches = %d, want 2", len(store.queries))
	}
	if store.queries[0] != imageQuery {
		t.Errorf("first query = %q, want %q", store.queries[0], imageQuery)
	}
	if store.queries[1] != secondQuery {
		t.Errorf("second query = %q, want %q", store.queries[1], secondQuery)
	}
	if len(vision.prompts) != 1 || vision.prompts[0] != ImageDescriptionInstruction {
		t.Errorf("vision prompts = %q", vision.prompts)
	}
	if !strings.Contains(chat.prompts[0], `UI Screenshot Description: """`+description+`"""`) {
		t.Error("image prompt missing screenshot description")
	}
	if !strings.Contains(chat.prompts[0], "CTX-ID: x") {
		t.Error("image prompt missing second-stage context")
	}
	if len(resp.References) != 1 || resp.References[0].ID != "y" {
		t.Errorf("References = %+v, want y", resp.References)
	}
}

func TestFilterCited(t *testing.T) {
	t.Parallel()
	got := FilterCited(docs("a", "b", "c"), []string{"c", "a", "a", "q"})
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "c" {
		t.Errorf("FilterCited = %+v", got)
	}
	if got := FilterCited(nil, nil); got == nil {
		t.Error("FilterCited(nil, nil) = nil, want empty slice")
	}
}

func TestContextChunksLimitFromEnv(t *testing.T) {
	log := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	tests := []struct {
		name    string
		current string
		legacy  string
		want    int
	}{
		{"default", "", "", DefaultContextChunksLimit},
		{"current spelling", "3", "", 3},
		{"legacy spelling", "", "7", 7},
		{"current wins", "4", "9", 4},
		{"invalid falls through", "abc", "5", 5},
		{"zero is ignored", "0", "", DefaultContextChunksLimit},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(contextLimitEnv, tc.current)
			t.Setenv(legacyContextLimitEnv, tc.legacy)
			if got := ContextChunksLimitFromEnv(log); got != tc.want {
				t.Errorf("ContextChunksLimitFromEnv() = %d, want %d", got, tc.want)
			}
		})
	}
}
