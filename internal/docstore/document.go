// Package docstore persists retrievable documents together with their
// embeddings and answers nearest-neighbour queries. MongoDB Atlas
// $vectorSearch is the primary backend; Qdrant is an alternative.
package docstore

import (
	"context"
	"errors"
)

// Document is one retrievable unit of knowledge.
//
// Embedding is computed from the store's content extractor, never set by
// callers, and stripped from every search result.
type Document struct {
	// ID is caller-assigned and not checked for uniqueness.
	ID string `bson:"id" json:"id"`
	// ScopeID is the intended tenant partition. Search does not filter on it.
	ScopeID    string  `bson:"scopeId,omitempty" json:"scopeId,omitempty"`
	SourceName string  `bson:"sourceName" json:"sourceName"`
	Content    string  `bson:"content" json:"content"`
	URL        string  `bson:"url,omitempty" json:"url,omitempty"`
	Score      float64 `bson:"score,omitempty" json:"score,omitempty"`

	// Embedding is written under the store's configured vector field.
	Embedding []float32 `bson:"-" json:"-"`
}

// Alert is one entry of the alerts collection.
type Alert struct {
	Title string `bson:"title" json:"title"`
	Text  string `bson:"text" json:"text"`
	URL   string `bson:"url" json:"url"`
}

// ErrInsert is returned for every failed write. The driver error is logged
// by the store and intentionally not wrapped.
var ErrInsert = errors.New("docstore: unable to insert document")

// ErrInsertMany is the bulk-write counterpart of ErrInsert.
var ErrInsertMany = errors.New("docstore: unable to insert documents")

// Embedder turns text into a vector.
type Embedder interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// VectorStore is implemented by every vector backend.
// Implementations must be safe to call from multiple goroutines.
type VectorStore interface {
	// InsertAndEmbed embeds doc and stores it, returning the stored
	// document with its embedding.
	InsertAndEmbed(ctx context.Context, doc Document, additionalContext string) (Document, error)
	// InsertAndEmbedMany embeds all docs concurrently and stores them in one
	// bulk write. Any embedding failure aborts the whole batch.
	InsertAndEmbedMany(ctx context.Context, docs []Document, additionalContext string) ([]Document, error)
	// SemanticVectorSearch returns the documents nearest to query, by
	// descending score, without their embeddings. scopeID is accepted but
	// not applied.
	SemanticVectorSearch(ctx context.Context, query, scopeID string) ([]Document, error)
}

// AlertLister lists every stored alert.
type AlertLister interface {
	FindAll(ctx context.Context) ([]Alert, error)
}
