package commands

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cloudwego/eino/callbacks"
	"github.com/spf13/cobra"

	"github.com/54b3r/alertrag-go/internal/logging"
	"github.com/54b3r/alertrag-go/internal/server"
	"github.com/54b3r/alertrag-go/internal/store"
	"github.com/54b3r/alertrag-go/internal/tracing"
)

// historyDisabled turns the transcript off when set as ALERTRAG_HISTORY_DB.
const historyDisabled = "disabled"

// NewServeCmd constructs the `alertrag serve` command, which starts the HTTP
// API.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the alertrag HTTP API",
		Long: `Start the alertrag HTTP API.

Endpoints:
  POST /api/rag               grounded answer (optional imageUrl)
  POST /api/rag/route         intent-routed answer
  GET  /api/history/{session} recent turns of a session
  GET  /api/health            liveness
  GET  /api/ready             dependency checks
  GET  /metrics               Prometheus metrics

Every client is created once at startup and closed on shutdown.

Examples:
  alertrag serve
  alertrag serve --port 9090
  VECTOR_BACKEND=qdrant alertrag serve`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := slog.Default()
			ctx = logging.WithLogger(ctx, log)

			// Flags win over env; env is read here, after .env and YAML are applied.
			if !cmd.Flags().Changed("host") {
				host = getEnvOrDefault("ALERTRAG_HOST", host)
			}
			if !cmd.Flags().Changed("port") {
				port = getEnvInt("ALERTRAG_PORT", port)
			}

			log.Info("serve starting", slog.String("provider", os.Getenv("MODEL_PROVIDER")))

			// Langfuse tracing is opt-in; Setup is a no-op without keys.
			if handler, flush, ok := tracing.Setup(tracing.SettingsFromEnv(), log); ok {
				callbacks.AppendGlobalHandlers(handler)
				defer flush()
			}

			a, err := newApp(ctx, log, needs{models: true, router: true})
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer a.Close()

			deps := server.Deps{RAG: a.rag, Router: a.assistant}
			pingers := a.pingers()

			if hs := openHistory(log); hs != nil {
				defer func() { _ = hs.Close() }()
				deps.History = hs
				pingers = append(pingers, server.NewPinger("history", hs))
			}

			srv, err := server.New(deps, &server.Config{
				Host:    host,
				Port:    port,
				Logger:  log,
				Pingers: pingers,
				APIKey:  os.Getenv("ALERTRAG_API_KEY"),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Host address to bind to (env ALERTRAG_HOST)")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on (env ALERTRAG_PORT)")

	return cmd
}

// openHistory opens the transcript store named by ALERTRAG_HISTORY_DB, or
// the default path. Failures disable the transcript instead of aborting.
func openHistory(log *slog.Logger) *store.SQLiteStore {
	dbPath := os.Getenv("ALERTRAG_HISTORY_DB")
	if dbPath == historyDisabled {
		log.Info("history: disabled via ALERTRAG_HISTORY_DB=disabled")
		return nil
	}
	if dbPath == "" {
		var err error
		if dbPath, err = store.DefaultDBPath(); err != nil {
			log.Warn("history: could not resolve default DB path, disabling", slog.Any("error", err))
			return nil
		}
	}
	hs, err := store.Open(dbPath)
	if err != nil {
		log.Warn("history: failed to open store, disabling", slog.Any("error", err))
		return nil
	}
	log.Info("history: store opened", slog.String("path", dbPath))
	return hs
}
