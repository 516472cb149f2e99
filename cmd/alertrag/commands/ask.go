package commands

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/54b3r/alertrag-go/internal/logging"
	"github.com/54b3r/alertrag-go/internal/rag"
)

// askOutput is the JSON printed by `alertrag ask`.
type askOutput struct {
	*rag.Response
	Intent string `json:"intent,omitempty"`
}

// NewAskCmd constructs the `alertrag ask` command, which answers a single
// question and prints the JSON response to stdout.
func NewAskCmd() *cobra.Command {
	var imageURL string
	var scopeID string
	var route bool

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask the knowledge base a question",
		Long: `Answer one question from the knowledge base and print the response as JSON.

With --image the screenshot is described by the vision model and the
description steers retrieval. With --route the intent router picks the
flow (knowledge-base answer, alert explanation or missed-alert form).

Examples:
  alertrag ask "What does the LKSG risk category cover?"
  alertrag ask --image https://example.com/screen.png "What am I looking at?"
  alertrag ask --route "Why did I get these alerts?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := slog.Default()
			ctx := logging.WithLogger(cmd.Context(), log)

			a, err := newApp(ctx, log, needs{models: true, router: route})
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}
			defer a.Close()

			question := strings.Join(args, " ")
			out := askOutput{}

			switch {
			case route:
				resp, intent, err := a.assistant.HandleWithRoute(ctx, question, imageURL)
				if err != nil {
					return fmt.Errorf("ask: %s: %w", intent, err)
				}
				out.Response, out.Intent = resp, intent.String()
			case imageURL != "":
				out.Response, err = a.rag.RunInferenceWithImage(ctx, question, scopeID, imageURL)
			default:
				out.Response, err = a.rag.RunInference(ctx, question, scopeID)
			}
			if err != nil {
				return fmt.Errorf("ask: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVarP(&imageURL, "image", "i", "", "Screenshot URL to describe before retrieval")
	cmd.Flags().StringVarP(&scopeID, "scope", "s", "", "Scope ID passed through to the store")
	cmd.Flags().BoolVarP(&route, "route", "r", false, "Let the intent router choose the flow")

	return cmd
}
