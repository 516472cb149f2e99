// Package commands defines all Cobra CLI commands for the alertrag binary.
package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/54b3r/alertrag-go/internal/audit"
	"github.com/54b3r/alertrag-go/internal/config"
	"github.com/54b3r/alertrag-go/internal/logging"
	"github.com/54b3r/alertrag-go/internal/version"
)

// configPath holds the --config flag value for YAML config file override.
var configPath string

// envFile holds the --env-file flag value.
var envFile string

// loadedConfigPath stores the resolved config file path for audit logging.
var loadedConfigPath string

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "alertrag",
		Short: "alertrag answers supply-chain alert questions from your knowledge base",
		Long: `alertrag is a retrieval-augmented assistant for supply-chain risk alerts.

It embeds questions, retrieves the closest knowledge-base documents from
MongoDB Atlas (or Qdrant), and asks a language model for a grounded answer
that cites its sources. Screenshots can be attached and are described by a
vision model before retrieval.

The model provider is selected via MODEL_PROVIDER or a YAML config file
(~/.alertrag/config.yaml). See 'alertrag --help' for available commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(envFile); err != nil {
				return err
			}

			log := logging.New(version.Version)
			slog.SetDefault(log)

			// Load YAML config (env vars always override YAML values).
			path, err := config.Load(configPath, log)
			if err != nil {
				return err
			}
			loadedConfigPath = path

			audit.LogCommandStart(log, cmd.Name(), loadedConfigPath)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: ~/.alertrag/config.yaml)")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a dotenv file loaded before the config file")

	root.AddCommand(
		NewAskCmd(),
		NewServeCmd(),
		NewIngestCmd(),
		NewVersionCmd(),
	)

	return root
}
