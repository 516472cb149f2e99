package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/54b3r/alertrag-go/internal/version"
)

// NewVersionCmd constructs the `alertrag version` subcommand.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the alertrag version, git commit, and build date",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "alertrag %s\n", version.String())
		},
	}
}
