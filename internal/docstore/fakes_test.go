package docstore

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/qdrant/go-client/qdrant"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"
)

// fakeEmbedder returns a one-element vector equal to the input length and
// records every text it was asked to embed.
type fakeEmbedder struct {
	mu     sync.Mutex
	texts  []string
	failOn string
}

func (f *fakeEmbedder) CreateEmbedding(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, errors.New("embeddings API: 429 rate limited")
	}
	return []float32{float32(len(text))}, nil
}

// fakeCollection records writes and serves canned aggregate/find results.
type fakeCollection struct {
	inserted  []any
	many      [][]any
	insertErr error

	pipeline any
	results  []any
	findOpts []*mongoopts.FindOptions
}

func (f *fakeCollection) InsertOne(_ context.Context, doc interface{}, _ ...*mongoopts.InsertOneOptions) (*mongo.InsertOneResult, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.inserted = append(f.inserted, doc)
	return &mongo.InsertOneResult{}, nil
}

func (f *fakeCollection) InsertMany(_ context.Context, docs []interface{}, _ ...*mongoopts.InsertManyOptions) (*mongo.InsertManyResult, error) {
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.many = append(f.many, docs)
	return &mongo.InsertManyResult{}, nil
}

func (f *fakeCollection) Aggregate(_ context.Context, pipeline interface{}, _ ...*mongoopts.AggregateOptions) (*mongo.Cursor, error) {
	f.pipeline = pipeline
	return mongo.NewCursorFromDocuments(f.results, nil, nil)
}

func (f *fakeCollection) Find(_ context.Context, _ interface{}, opts ...*mongoopts.FindOptions) (*mongo.Cursor, error) {
	f.findOpts = opts
	return mongo.NewCursorFromDocuments(f.results, nil, nil)
}

func row(id string, score float64) bson.D {
	return bson.D{
		{Key: "id", Value: id},
		{Key: "sourceName", Value: "Help Center"},
		{Key: "content", Value: "content of " + id},
		{Key: "score", Value: score},
	}
}

// fakeQdrant records upserts and serves canned query results.
type fakeQdrant struct {
	upserts   []*qdrant.UpsertPoints
	query     *qdrant.QueryPoints
	results   []*qdrant.ScoredPoint
	upsertErr error
}

func (f *fakeQdrant) Upsert(_ context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error) {
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	f.upserts = append(f.upserts, req)
	return &qdrant.UpdateResult{}, nil
}

func (f *fakeQdrant) Query(_ context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error) {
	f.query = req
	return f.results, nil
}
