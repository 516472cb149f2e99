// Package rag answers questions from retrieved documents: it searches the
// vector store, renders a grounding prompt, asks the model for a JSON
// answer with cited context IDs and keeps only the cited documents.
package rag

import (
	"encoding/json"
	"errors"

	"github.com/54b3r/alertrag-go/internal/docstore"
)

// ContextBasedResponse is the JSON object every grounding prompt demands
// from the model.
type ContextBasedResponse struct {
	Answer     string   `json:"answer"`
	ContextIDs []string `json:"contextIds"`
}

// errMissingAnswer rejects model output without an "answer" field.
var errMissingAnswer = errors.New(`rag: response has no "answer" field`)

// UnmarshalJSON requires "answer" and normalises a missing or null
// "contextIds" to an empty slice.
func (r *ContextBasedResponse) UnmarshalJSON(b []byte) error {
	var raw struct {
		Answer     *string  `json:"answer"`
		ContextIDs []string `json:"contextIds"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if raw.Answer == nil {
		return errMissingAnswer
	}
	r.Answer = *raw.Answer
	r.ContextIDs = raw.ContextIDs
	if r.ContextIDs == nil {
		r.ContextIDs = []string{}
	}
	return nil
}

// Response is the answer returned to callers.
type Response struct {
	Input  string `json:"input"`
	Output string `json:"output"`
	// References are the retrieved documents the model cited, in retrieval
	// order. Never nil.
	References []docstore.Document `json:"references"`
}
