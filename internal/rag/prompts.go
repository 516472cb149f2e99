package rag

import (
	"fmt"
	"strings"
)

// PromptVersion identifies the current template generation. Bump it when a
// template changes in a way that affects answers.
const PromptVersion = "v1"

const (
	contextIDKey     = "CTX-ID"
	contextKey       = "CONTEXT"
	contextSeparator = " || "

	// ImageDescriptionMarker prefixes generated screenshot descriptions in
	// stored content. Text after it is dropped before reuse as search text.
	ImageDescriptionMarker = "Image description: "

	// ImageDescriptionInstruction is sent to the vision model with the screenshot.
	ImageDescriptionInstruction = "Given the following screenshot of a web interface. " +
		"Generate a very description that I can use in a documentation. Maximum 2 sentences."

	// responseContract is the JSON shape the model must return.
	responseContract = `{ "answer": "your answer to question", "contextIds": ["id1", "id2"] }`
)

// ContextChunk is one retrieved document as it appears in a prompt.
type ContextChunk struct {
	ID   string
	Text string
}

// QAPromptParams parameterises the question-answering template.
type QAPromptParams struct {
	Question string
	Contexts []ContextChunk
}

// ImagePromptParams parameterises the screenshot-grounded template.
type ImagePromptParams struct {
	Question         string
	Contexts         []ContextChunk
	ImageDescription string
}

// RenderContext formats chunks as "CTX-ID: <id> -> CONTEXT: <text>" joined
// by " || ". No chunks render as the empty string.
func RenderContext(chunks []ContextChunk) string {
	parts := make([]string, len(chunks))
	for i, c := range chunks {
		parts[i] = renderChunk(c)
	}
	return strings.Join(parts, contextSeparator)
}

func renderChunk(c ContextChunk) string {
	return fmt.Sprintf("%s: %s -> %s: %s", contextIDKey, c.ID, contextKey, c.Text)
}

// QAPromptV1 renders the knowledge-base question prompt.
func QAPromptV1(p QAPromptParams) string {
	return fmt.Sprintf(`You are confident PrewaveBot who helps users to navigate the Prewave knowledge base. Help users to answer questions about Prewave knowledge.
Aim for responses that are clear, concise, and personalized, using no more than four sentences. Your goal is to make users feel supported and understood.

I will give you needed context you must use to answer the question. The information you use to answer the question can only be drawn from the provided
context pieces, and not from your own trained memory. If you do not have the context to give a good answer, say you do not know the
answer instead of making something up. I will provide context in the format "%[1]s -> %[2]s || %[1]s -> %[2]s".

Your response should contain your answer, together with an array of the IDs for the contexts you used to answer the question. If you were not able to give a successful answer,
keep the array of the IDs for the contexts empty. Your response should be in the following
JSON format: %[3]s.

Context:
"""
%[4]s
"""

Question: %[5]s

Answer:`, contextIDKey, contextKey, responseContract, RenderContext(p.Contexts), p.Question)
}

// ImagePromptV1 renders the prompt for a question about an attached
// screenshot of the web interface.
func ImagePromptV1(p ImagePromptParams) string {
	return fmt.Sprintf(`You are confident PrewaveBot who helps users to navigate and understand Prewave's web interface.
Use the following pieces of context to answer the user's question based on the text of the question and a description of an attached web interface image.
If you don't know the answer, just say that you don't know, don't try to make up an answer. Be confident in your answers, and don't use words like like and I think.
Your goal is to make users feel supported and understood, ensuring they can navigate the platform's features with confidence. Highlight key functionalities,
offer tips for optimal usage, and guide them toward discovering valuable insights on their own.
Aim for responses that are clear, concise, and personalized, using no more than four sentences.

I provide the context in the format "%[1]s -> %[2]s || %[1]s -> %[2]s".
Your response should contain your answer, together with an array of the IDs for the contexts you used to answer the question. Your response should be in the following
JSON format: %[3]s.

Context:
"""
%[4]s
"""

Question: %[5]s
UI Screenshot Description: """%[6]s"""
Answer:`, contextIDKey, contextKey, responseContract, RenderContext(p.Contexts), p.Question, p.ImageDescription)
}

// TruncateAfterImageDescription cuts s right after the first
// ImageDescriptionMarker, keeping the marker. Text without the marker is
// returned unchanged.
func TruncateAfterImageDescription(s string) string {
	if i := strings.Index(s, ImageDescriptionMarker); i >= 0 {
		return s[:i+len(ImageDescriptionMarker)]
	}
	return s
}
