package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/54b3r/alertrag-go/internal/docstore"
	"github.com/54b3r/alertrag-go/internal/embedder"
	"github.com/54b3r/alertrag-go/internal/images"
	"github.com/54b3r/alertrag-go/internal/llm"
	"github.com/54b3r/alertrag-go/internal/provider"
	"github.com/54b3r/alertrag-go/internal/rag"
	"github.com/54b3r/alertrag-go/internal/router"
	"github.com/54b3r/alertrag-go/internal/server"
)

// Defaults for the collections and the vector index.
const (
	defaultCollection       = "publications"
	defaultAlertsCollection = "alerts"
	defaultVectorIndex      = "publications-vector-index"
	defaultVectorField      = "embedding_vector"

	backendMongo  = "mongo"
	backendQdrant = "qdrant"
)

// needs selects which parts of the app a command builds.
type needs struct {
	// models builds the chat, JSON and vision clients and the orchestrator.
	models bool
	// router builds the intent router and the alerts collection.
	router bool
}

// app holds every long-lived client. It is built once per process and
// closed on exit.
type app struct {
	log      *slog.Logger
	embedder embedder.Embedder
	mongo    *docstore.Mongo
	qdrant   *docstore.QdrantStore
	store    docstore.VectorStore

	rag       *rag.Orchestrator
	assistant *router.Assistant

	closers []func() error
}

// newApp constructs the clients selected by n. On error everything built so
// far is closed.
func newApp(ctx context.Context, log *slog.Logger, n needs) (_ *app, err error) {
	a := &app{log: log}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if err := embedder.Validate(log); err != nil {
		return nil, err
	}
	a.embedder, err = embedder.NewFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}
	log.Info("embedder initialised", slog.String("backend", embedder.Backend()))

	backend := getEnvOrDefault("VECTOR_BACKEND", backendMongo)
	if backend == backendMongo || n.router {
		if err := a.connectMongo(ctx); err != nil {
			return nil, err
		}
	}
	if err := a.openVectorStore(ctx, backend); err != nil {
		return nil, err
	}

	if !n.models {
		return a, nil
	}

	pcfg := provider.ConfigFromEnv()
	client, err := newAnswerClient(ctx, pcfg, log)
	if err != nil {
		return nil, err
	}
	log.Info("provider initialised", slog.String("provider", string(pcfg.Backend)))

	a.rag, err = rag.New(rag.Config{
		Store:              a.store,
		LLM:                client,
		ContextChunksLimit: rag.ContextChunksLimitFromEnv(log),
		MaxContextTokens:   rag.MaxContextTokensFromEnv(),
		Logger:             log,
	})
	if err != nil {
		return nil, err
	}

	if !n.router {
		return a, nil
	}

	routerModel, err := provider.New(ctx, pcfg, provider.RoleRouter)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise router model: %w", err)
	}
	routerClient, err := llm.New(llm.Config{Model: routerModel, Logger: log})
	if err != nil {
		return nil, err
	}
	alerts := docstore.NewCollection[docstore.Alert](
		a.mongo.Collection(getEnvOrDefault("MONGODB_ALERTS_COLLECTION", defaultAlertsCollection)), log)

	a.assistant, err = router.NewAssistant(router.Config{
		RAG:        a.rag,
		Classifier: router.NewLLMClassifier(routerClient),
		LLM:        client,
		Alerts:     alerts,
		Logger:     log,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) connectMongo(ctx context.Context) error {
	opts, err := docstore.MongoOptionsFromEnv()
	if err != nil {
		return err
	}
	a.mongo, err = docstore.ConnectMongo(ctx, opts)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, a.mongo.Close)
	a.log.Info("mongodb connected", slog.String("database", opts.Database))
	return nil
}

func (a *app) openVectorStore(ctx context.Context, backend string) error {
	numCandidates := getEnvInt("VECTOR_NUM_CANDIDATES", docstore.DefaultNumCandidates)
	limit := getEnvInt("VECTOR_LIMIT", docstore.DefaultLimit)

	switch backend {
	case backendMongo:
		coll := getEnvOrDefault("MONGODB_COLLECTION", defaultCollection)
		s, err := docstore.NewMongoVectorStore(a.mongo.Collection(coll), a.embedder, docstore.VectorOptions{
			Index:         getEnvOrDefault("MONGODB_VECTOR_INDEX", defaultVectorIndex),
			Field:         getEnvOrDefault("MONGODB_VECTOR_FIELD", defaultVectorField),
			NumCandidates: numCandidates,
			Limit:         limit,
			Extract:       docstore.MarkdownContent,
		}, a.log)
		if err != nil {
			return err
		}
		a.store = s
		a.log.Info("vector store ready", slog.String("backend", backend), slog.String("collection", coll))

	case backendQdrant:
		cfg := docstore.QdrantConfig{
			Host:          getEnvOrDefault("QDRANT_HOST", "localhost"),
			Port:          getEnvInt("QDRANT_PORT", 6334),
			Collection:    getEnvOrDefault("QDRANT_COLLECTION", defaultCollection),
			VectorSize:    uint64(embedder.DefaultDimensions(embedder.Backend())), //nolint:gosec // dimensions are bounded
			APIKey:        os.Getenv("QDRANT_API_KEY"),
			UseTLS:        os.Getenv("QDRANT_TLS") == "true",
			NumCandidates: numCandidates,
			Limit:         limit,
			Extract:       docstore.MarkdownContent,
		}
		s, err := docstore.NewQdrantStore(ctx, cfg, a.embedder, a.log)
		if err != nil {
			return fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", cfg.Host, cfg.Port, err)
		}
		a.qdrant, a.store = s, s
		a.closers = append(a.closers, s.Close)
		a.log.Info("vector store ready", slog.String("backend", backend), slog.String("collection", cfg.Collection))

	default:
		return fmt.Errorf("unknown VECTOR_BACKEND %q, valid values: mongo, qdrant", backend)
	}
	return nil
}

// newAnswerClient builds the client behind grounded answers and screenshot
// descriptions.
func newAnswerClient(ctx context.Context, pcfg *provider.Config, log *slog.Logger) (*llm.Client, error) {
	chat, err := provider.New(ctx, pcfg, provider.RoleChat)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise chat model: %w", err)
	}
	jsonModel, err := provider.New(ctx, pcfg, provider.RoleChat, provider.WithJSONOutput())
	if err != nil {
		return nil, fmt.Errorf("failed to initialise JSON chat model: %w", err)
	}
	vision, err := provider.New(ctx, pcfg, provider.RoleVision)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise vision model: %w", err)
	}
	return llm.New(llm.Config{
		Model:     chat,
		JSONModel: jsonModel,
		Vision:    vision,
		Images:    images.NewFetcher(nil),
		Logger:    log,
	})
}

// pingers returns a readiness check for every backend the app reaches.
func (a *app) pingers() []server.Pinger {
	var out []server.Pinger
	if a.mongo != nil {
		out = append(out, server.NewPinger("mongodb", a.mongo))
	}
	if a.qdrant != nil {
		out = append(out, server.NewPinger("qdrant", a.qdrant))
	}
	if hc, ok := a.embedder.(embedder.HealthChecker); ok {
		out = append(out, server.NewHealthCheckPinger("embedder", hc))
	}
	return out
}

// Close releases every client in reverse construction order.
func (a *app) Close() {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		a.log.Warn("shutdown: close failed", slog.Any("error", err))
	}
}
