package docstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"
)

// MongoOptions holds the connection settings for a MongoDB deployment.
type MongoOptions struct {
	// URI is the connection string (mongodb:// or mongodb+srv://).
	URI string
	// Database is the database holding every collection.
	Database string
	// AppName is reported to the server for diagnostics.
	AppName string
	// ConnectTimeout bounds connection establishment and the initial ping.
	ConnectTimeout time.Duration
}

// MongoOptionsFromEnv reads MONGODB_URI and MONGODB_DB. Both are required.
func MongoOptionsFromEnv() (*MongoOptions, error) {
	opts := &MongoOptions{
		URI:            os.Getenv("MONGODB_URI"),
		Database:       os.Getenv("MONGODB_DB"),
		AppName:        "alertrag",
		ConnectTimeout: 10 * time.Second,
	}
	if opts.URI == "" {
		return nil, errors.New("docstore: MONGODB_URI is required")
	}
	if opts.Database == "" {
		return nil, errors.New("docstore: MONGODB_DB is required")
	}
	return opts, nil
}

// Mongo is a long-lived MongoDB connection shared by every collection.
type Mongo struct {
	client   *mongo.Client
	database *mongo.Database
}

// ConnectMongo dials the deployment and verifies it with a ping.
func ConnectMongo(ctx context.Context, opts *MongoOptions) (*Mongo, error) {
	if opts == nil {
		return nil, errors.New("docstore: mongo options cannot be nil")
	}

	clientOpts := mongoopts.Client().
		ApplyURI(opts.URI).
		SetRetryWrites(true).
		SetAppName(opts.AppName)
	if opts.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(opts.ConnectTimeout)
		clientOpts.SetServerSelectionTimeout(opts.ConnectTimeout)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("docstore: failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("docstore: failed to ping mongodb: %w", err)
	}

	return &Mongo{client: client, database: client.Database(opts.Database)}, nil
}

// Collection returns the named collection of the configured database.
func (m *Mongo) Collection(name string) *mongo.Collection {
	return m.database.Collection(name)
}

// Ping checks that the deployment is reachable.
func (m *Mongo) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

// Close disconnects from the deployment. Safe to call on a nil receiver.
func (m *Mongo) Close() error {
	if m == nil || m.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
