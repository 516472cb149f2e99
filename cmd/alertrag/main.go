// Command alertrag is the entry point for the supply-chain alert assistant.
// It answers questions from an indexed knowledge base through a CLI (Cobra)
// and an HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/54b3r/alertrag-go/cmd/alertrag/commands"
)

func main() {
	if err := commands.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
