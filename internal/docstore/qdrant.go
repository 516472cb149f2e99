package docstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// QdrantConfig holds connection parameters for a Qdrant vector store instance.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string
	// Port is the Qdrant gRPC port (default: 6334).
	Port int
	// Collection is the Qdrant collection name to use.
	Collection string
	// VectorSize is the dimensionality of the stored embeddings.
	VectorSize uint64
	APIKey     string
	UseTLS     bool
	// NumCandidates maps onto the HNSW ef search parameter.
	NumCandidates int
	Limit         int
	// Extract derives the embedded text from a document. Defaults to RawContent.
	Extract ContentExtractor
}

// qdrantPoints is the client surface QdrantStore uses.
type qdrantPoints interface {
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
}

// QdrantStore implements VectorStore backed by a Qdrant collection.
// Every stored document becomes a new point with a random UUID, so
// duplicate document IDs are kept side by side as in the Mongo backend. The
// document ID travels in the payload.
type QdrantStore struct {
	client   *qdrant.Client
	points   qdrantPoints
	embedder Embedder
	cfg      QdrantConfig
	log      *slog.Logger
}

// Payload keys.
const (
	payloadID         = "id"
	payloadScopeID    = "scopeId"
	payloadSourceName = "sourceName"
	payloadContent    = "content"
	payloadURL        = "url"
)

// NewQdrantStore connects to Qdrant, ensuring the target collection exists.
func NewQdrantStore(ctx context.Context, cfg QdrantConfig, embedder Embedder, log *slog.Logger) (*QdrantStore, error) {
	if embedder == nil {
		return nil, errors.New("qdrant: embedder must not be nil")
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}

	s := newQdrantStore(client, cfg, embedder, log)
	s.client = client
	if err := s.ensureCollection(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return s, nil
}

func newQdrantStore(points qdrantPoints, cfg QdrantConfig, embedder Embedder, log *slog.Logger) *QdrantStore {
	if cfg.NumCandidates <= 0 {
		cfg.NumCandidates = DefaultNumCandidates
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Extract == nil {
		cfg.Extract = RawContent
	}
	if log == nil {
		log = slog.Default()
	}
	return &QdrantStore{points: points, embedder: embedder, cfg: cfg, log: log}
}

// ensureCollection creates the Qdrant collection if it does not already exist.
func (s *QdrantStore) ensureCollection(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant: failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     s.cfg.VectorSize,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: failed to create collection %q: %w", s.cfg.Collection, err)
	}
	s.log.Info("qdrant: created collection", slog.String("collection", s.cfg.Collection))
	return nil
}

// InsertAndEmbed embeds doc and upserts it.
func (s *QdrantStore) InsertAndEmbed(ctx context.Context, doc Document, additionalContext string) (Document, error) {
	docs, err := s.InsertAndEmbedMany(ctx, []Document{doc}, additionalContext)
	if err != nil {
		if errors.Is(err, ErrInsertMany) {
			return Document{}, ErrInsert
		}
		return Document{}, err
	}
	return docs[0], nil
}

// InsertAndEmbedMany embeds every doc concurrently, then upserts them in one call.
func (s *QdrantStore) InsertAndEmbedMany(ctx context.Context, docs []Document, additionalContext string) ([]Document, error) {
	embedded, err := embedAll(ctx, docs, func(ctx context.Context, d Document) (Document, error) {
		vec, err := s.embedder.CreateEmbedding(ctx, vectorContent(s.cfg.Extract, d, additionalContext))
		if err != nil {
			return Document{}, fmt.Errorf("qdrant: embed document %q: %w", d.ID, err)
		}
		d.Embedding = vec
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	if len(embedded) == 0 {
		return embedded, nil
	}

	points := make([]*qdrant.PointStruct, 0, len(embedded))
	for _, d := range embedded {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(uuid.NewString()),
			Vectors: qdrant.NewVectors(d.Embedding...),
			Payload: qdrant.NewValueMap(map[string]any{
				payloadID:         d.ID,
				payloadScopeID:    d.ScopeID,
				payloadSourceName: d.SourceName,
				payloadContent:    d.Content,
				payloadURL:        d.URL,
			}),
		})
	}

	wait := true
	if _, err := s.points.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.cfg.Collection,
		Wait:           &wait,
		Points:         points,
	}); err != nil {
		s.log.Error("qdrant: error on upsert",
			slog.String("collection", s.cfg.Collection),
			slog.Int("count", len(points)),
			slog.String("error", err.Error()),
		)
		return nil, ErrInsertMany
	}
	return embedded, nil
}

// SemanticVectorSearch embeds query and returns the nearest documents.
// scopeID is not applied as a filter.
func (s *QdrantStore) SemanticVectorSearch(ctx context.Context, query, scopeID string) ([]Document, error) {
	vec, err := s.embedder.CreateEmbedding(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("qdrant: embed query: %w", err)
	}

	limit := uint64(s.cfg.Limit)
	ef := uint64(s.cfg.NumCandidates)
	results, err := s.points.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.cfg.Collection,
		Query:          qdrant.NewQuery(vec...),
		Limit:          &limit,
		Params:         &qdrant.SearchParams{HnswEf: &ef},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: search failed: %w", err)
	}

	docs := make([]Document, 0, len(results))
	for _, r := range results {
		p := r.GetPayload()
		docs = append(docs, Document{
			ID:         p[payloadID].GetStringValue(),
			ScopeID:    p[payloadScopeID].GetStringValue(),
			SourceName: p[payloadSourceName].GetStringValue(),
			Content:    p[payloadContent].GetStringValue(),
			URL:        p[payloadURL].GetStringValue(),
			Score:      float64(r.GetScore()),
		})
	}
	return docs, nil
}

// Ping checks the Qdrant server health endpoint.
func (s *QdrantStore) Ping(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant: health check: %w", err)
	}
	return nil
}

// Close closes the underlying Qdrant gRPC connection.
func (s *QdrantStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}
