package rag

import (
	"strings"
	"testing"
)

func TestRenderContext(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		chunks []ContextChunk
		want   string
	}{
		{"empty", nil, ""},
		{"single", []ContextChunk{{ID: "1", Text: "one"}}, "CTX-ID: 1 -> CONTEXT: one"},
		{
			"joined",
			[]ContextChunk{{ID: "1", Text: "one"}, {ID: "2", Text: "two"}},
			"CTX-ID: 1 -> CONTEXT: one || CTX-ID: 2 -> CONTEXT: two",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := RenderContext(tc.chunks); got != tc.want {
				t.Errorf("RenderContext() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestPromptTemplates(t *testing.T) {
	t.Parallel()
	chunks := []ContextChunk{{ID: "doc-1", Text: "LKSG is the German supply chain act."}}

	tests := []struct {
		name   string
		prompt string
		want   []string
	}{
		{
			name:   "qa",
			prompt: QAPromptV1(QAPromptParams{Question: "What is LKSG?", Contexts: chunks}),
			want: []string{
				responseContract,
				"CTX-ID: doc-1 -> CONTEXT: LKSG is the German supply chain act.",
				"Question: What is LKSG?",
				"no more than four sentences",
			},
		},
		{
			name: "image",
			prompt: ImagePromptV1(ImagePromptParams{
				Question:         "What does this page show?",
				Contexts:         chunks,
				ImageDescription: "A table of alerts.",
			}),
			want: []string{
				responseContract,
				"CTX-ID: doc-1 -> CONTEXT:",
				"Question: What does this page show?",
				`UI Screenshot Description: """A table of alerts."""`,
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			for _, w := range tc.want {
				if !strings.Contains(tc.prompt, w) {
					t.Errorf("prompt missing %q", w)
				}
			}
		})
	}
}

func TestTruncateAfterImageDescription(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in, want string
	}{
		{"plain text", "plain text"},
		{"Page. Image description: a caption", "Page. Image description: "},
		{"Image description: one Image description: two", "Image description: "},
	}
	for _, tc := range tests {
		if got := TruncateAfterImageDescription(tc.in); got != tc.want {
			t.Errorf("TruncateAfterImageDescription(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
