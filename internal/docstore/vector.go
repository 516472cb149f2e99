package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

// Search defaults applied when VectorOptions leaves them zero.
const (
	DefaultNumCandidates = 10
	DefaultLimit         = 10
)

// VectorOptions configures the $vectorSearch stage.
type VectorOptions struct {
	// Index is the Atlas vector search index name.
	Index string
	// Field is the document path holding the embedding.
	Field string
	// NumCandidates is the nearest-neighbour candidate pool size.
	NumCandidates int
	// Limit caps the number of results.
	Limit int
	// Extract derives the embedded text from a document. Defaults to RawContent.
	Extract ContentExtractor
}

// MongoVectorStore is a VectorStore backed by an Atlas collection with a
// vector search index.
type MongoVectorStore struct {
	docs     *Collection[Document]
	embedder Embedder
	opts     VectorOptions
	log      *slog.Logger
}

// NewMongoVectorStore wraps coll. Index and Field are required.
func NewMongoVectorStore(coll *mongo.Collection, embedder Embedder, opts VectorOptions, log *slog.Logger) (*MongoVectorStore, error) {
	return newMongoVectorStore(coll, coll.Name(), embedder, opts, log)
}

func newMongoVectorStore(coll collection, name string, embedder Embedder, opts VectorOptions, log *slog.Logger) (*MongoVectorStore, error) {
	if embedder == nil {
		return nil, errors.New("docstore: embedder must not be nil")
	}
	if opts.Index == "" || opts.Field == "" {
		return nil, errors.New("docstore: vector index and field are required")
	}
	if opts.NumCandidates <= 0 {
		opts.NumCandidates = DefaultNumCandidates
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.Extract == nil {
		opts.Extract = RawContent
	}
	if log == nil {
		log = slog.Default()
	}
	return &MongoVectorStore{
		docs:     newCollection[Document](coll, name, log),
		embedder: embedder,
		opts:     opts,
		log:      log,
	}, nil
}

// InsertAndEmbed embeds doc and inserts it.
func (s *MongoVectorStore) InsertAndEmbed(ctx context.Context, doc Document, additionalContext string) (Document, error) {
	doc, err := s.addEmbedding(ctx, doc, additionalContext)
	if err != nil {
		return Document{}, err
	}
	s.log.Debug("docstore: created embedding, inserting to DB", slog.String("id", doc.ID))
	if err := s.docs.Insert(ctx, s.toBSON(doc)); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// InsertAndEmbedMany embeds every doc concurrently, then inserts them all
// in one bulk write. Nothing is written if any embedding fails.
func (s *MongoVectorStore) InsertAndEmbedMany(ctx context.Context, docs []Document, additionalContext string) ([]Document, error) {
	embedded, err := embedAll(ctx, docs, func(ctx context.Context, d Document) (Document, error) {
		return s.addEmbedding(ctx, d, additionalContext)
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("docstore: created embeddings, inserting to DB", slog.Int("count", len(embedded)))

	rows := make([]any, len(embedded))
	for i, d := range embedded {
		rows[i] = s.toBSON(d)
	}
	if err := s.docs.InsertMany(ctx, rows); err != nil {
		return nil, err
	}
	return embedded, nil
}

// SemanticVectorSearch embeds query and runs the $vectorSearch pipeline.
// scopeID is not applied as a filter.
func (s *MongoVectorStore) SemanticVectorSearch(ctx context.Context, query, scopeID string) ([]Document, error) {
	vec, err := s.embedder.CreateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("docstore: embed query: %w", err)
	}
	pipeline := SearchPipeline(s.opts.Index, s.opts.Field, vec, s.opts.NumCandidates, s.opts.Limit)
	s.log.Debug("docstore: vector search",
		slog.String("index", s.opts.Index),
		slog.String("scope_id", scopeID),
		slog.Int("num_candidates", s.opts.NumCandidates),
		slog.Int("limit", s.opts.Limit),
	)
	return s.docs.Aggregate(ctx, pipeline)
}

// SearchPipeline builds the aggregation that finds the limit nearest
// documents to vector and projects away _id and the vector field while
// attaching the similarity score.
func SearchPipeline(index, field string, vector []float32, numCandidates, limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: index},
			{Key: "path", Value: field},
			{Key: "queryVector", Value: vector},
			{Key: "numCandidates", Value: numCandidates},
			{Key: "limit", Value: limit},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: field, Value: 0},
			{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}},
		}}},
	}
}

func (s *MongoVectorStore) addEmbedding(ctx context.Context, doc Document, additionalContext string) (Document, error) {
	vec, err := s.embedder.CreateEmbedding(ctx, vectorContent(s.opts.Extract, doc, additionalContext))
	if err != nil {
		return Document{}, fmt.Errorf("docstore: embed document %q: %w", doc.ID, err)
	}
	doc.Embedding = vec
	return doc, nil
}

// toBSON renders doc with its embedding under the configured vector field.
func (s *MongoVectorStore) toBSON(doc Document) bson.D {
	d := bson.D{
		{Key: "id", Value: doc.ID},
		{Key: "scopeId", Value: doc.ScopeID},
		{Key: "sourceName", Value: doc.SourceName},
		{Key: "content", Value: doc.Content},
	}
	if doc.URL != "" {
		d = append(d, bson.E{Key: "url", Value: doc.URL})
	}
	return append(d, bson.E{Key: s.opts.Field, Value: doc.Embedding})
}

// embedAll runs fn for every doc concurrently and preserves input order.
// The first error cancels the remaining calls.
func embedAll(ctx context.Context, docs []Document, fn func(context.Context, Document) (Document, error)) ([]Document, error) {
	out := make([]Document, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	for i, d := range docs {
		g.Go(func() error {
			embedded, err := fn(gctx, d)
			if err != nil {
				return err
			}
			out[i] = embedded
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
