package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/54b3r/alertrag-go/internal/ingestion"
	"github.com/54b3r/alertrag-go/internal/logging"
)

// NewIngestCmd constructs the `alertrag ingest` command, which splits
// markdown sources and stores their chunks in the vector store.
func NewIngestCmd() *cobra.Command {
	var urls []string
	var additionalContext string
	var sourceName string
	var scopeID string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "ingest [path or glob]...",
		Short: "Ingest markdown documents into the knowledge base",
		Long: `Read markdown files or pages, split them at their first two heading levels,
embed every chunk and bulk-insert the chunks into the configured vector store.

Paths accept doublestar globs ("docs/**/*.md"). Document IDs are derived from
the source and chunk position, so re-ingesting a source yields the same IDs.

--context is appended to every chunk's vector content (not to the stored
content) to bias retrieval towards a product area.

Examples:
  alertrag ingest docs/**/*.md
  alertrag ingest --url https://example.com/help/alerts.md --name "Alert help"
  alertrag ingest --context "Prewave platform" kb/*.md`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := slog.Default()
			ctx := logging.WithLogger(cmd.Context(), log)

			if len(args) == 0 && len(urls) == 0 {
				return fmt.Errorf("ingest: at least one path or --url is required")
			}

			paths, err := ingestion.ExpandPaths(args)
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}

			sources := make([]ingestion.Source, 0, len(paths)+len(urls))
			for _, p := range paths {
				sources = append(sources, ingestion.Source{Path: p, SourceName: sourceName, ScopeID: scopeID})
			}
			for _, u := range urls {
				sources = append(sources, ingestion.Source{URL: u, SourceName: sourceName, ScopeID: scopeID})
			}

			a, err := newApp(ctx, log, needs{})
			if err != nil {
				return fmt.Errorf("ingest: %w", err)
			}
			defer a.Close()

			pipeline, err := ingestion.NewPipeline(a.store, ingestion.Config{AdditionalContext: additionalContext}, log)
			if err != nil {
				return fmt.Errorf("ingest: failed to create pipeline: %w", err)
			}

			out := cmd.ErrOrStderr()
			if quiet {
				out = io.Discard
			}
			bar := newIngestBar(out, len(sources))

			log.Info("starting ingestion", slog.Int("sources", len(sources)))
			res, err := pipeline.Ingest(ctx, sources, func(p ingestion.Progress) {
				bar.Describe(fmt.Sprintf("[cyan]Ingesting[reset] %s", p.Source))
				_ = bar.Set(p.Done)
			})
			if err != nil {
				return fmt.Errorf("ingest: pipeline failed: %w", err)
			}
			_ = bar.Finish()

			log.Info("ingestion complete",
				slog.Int("sources", res.Sources),
				slog.Int("documents", res.Documents),
				slog.Int("skipped", res.Skipped),
			)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&urls, "url", "u", nil, "Markdown URL to ingest (repeatable)")
	cmd.Flags().StringVarP(&additionalContext, "context", "c", "", "Text appended to every chunk's vector content")
	cmd.Flags().StringVarP(&sourceName, "name", "n", "", "Source name shown with answers (default: inferred per source)")
	cmd.Flags().StringVar(&scopeID, "scope", "", "Scope ID stored with every chunk")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Hide the progress bar")

	return cmd
}

func newIngestBar(w io.Writer, total int) *progressbar.ProgressBar {
	if w == nil {
		w = os.Stderr
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Ingesting[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
}
