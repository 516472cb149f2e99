package docstore

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"
)

// collection is the driver surface the stores use. *mongo.Collection
// satisfies it; tests substitute a fake.
type collection interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*mongoopts.InsertOneOptions) (*mongo.InsertOneResult, error)
	InsertMany(ctx context.Context, documents []interface{}, opts ...*mongoopts.InsertManyOptions) (*mongo.InsertManyResult, error)
	Aggregate(ctx context.Context, pipeline interface{}, opts ...*mongoopts.AggregateOptions) (*mongo.Cursor, error)
	Find(ctx context.Context, filter interface{}, opts ...*mongoopts.FindOptions) (*mongo.Cursor, error)
}

// defaultProjection hides the driver's internal identifier from reads.
var defaultProjection = bson.D{{Key: "_id", Value: 0}}

// Collection is a typed view over one MongoDB collection.
type Collection[T any] struct {
	coll collection
	name string
	log  *slog.Logger
}

// NewCollection wraps coll. log receives write-failure diagnostics.
func NewCollection[T any](coll *mongo.Collection, log *slog.Logger) *Collection[T] {
	return newCollection[T](coll, coll.Name(), log)
}

func newCollection[T any](coll collection, name string, log *slog.Logger) *Collection[T] {
	if log == nil {
		log = slog.Default()
	}
	return &Collection[T]{coll: coll, name: name, log: log}
}

// Insert stores one document. The driver error is logged and replaced by
// ErrInsert.
func (c *Collection[T]) Insert(ctx context.Context, doc any) error {
	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		c.log.Error("docstore: error on DB insert",
			slog.String("collection", c.name),
			slog.String("error", err.Error()),
		)
		return ErrInsert
	}
	return nil
}

// InsertMany stores docs in one bulk write. The driver error is logged and
// replaced by ErrInsertMany.
func (c *Collection[T]) InsertMany(ctx context.Context, docs []any) error {
	if len(docs) == 0 {
		return nil
	}
	if _, err := c.coll.InsertMany(ctx, docs); err != nil {
		c.log.Error("docstore: error on DB insert",
			slog.String("collection", c.name),
			slog.Int("count", len(docs)),
			slog.String("error", err.Error()),
		)
		return ErrInsertMany
	}
	return nil
}

// FindAll returns every document, without _id.
func (c *Collection[T]) FindAll(ctx context.Context) ([]T, error) {
	cur, err := c.coll.Find(ctx, bson.D{}, mongoopts.Find().SetProjection(defaultProjection))
	if err != nil {
		return nil, fmt.Errorf("docstore: find in %s: %w", c.name, err)
	}
	return decodeAll[T](ctx, cur)
}

// Aggregate runs pipeline and decodes every result.
func (c *Collection[T]) Aggregate(ctx context.Context, pipeline mongo.Pipeline) ([]T, error) {
	cur, err := c.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("docstore: aggregate on %s: %w", c.name, err)
	}
	return decodeAll[T](ctx, cur)
}

func decodeAll[T any](ctx context.Context, cur *mongo.Cursor) ([]T, error) {
	defer cur.Close(ctx)
	out := make([]T, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("docstore: decode results: %w", err)
	}
	return out, nil
}
