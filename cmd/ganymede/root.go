package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ganymede",
	Short: "Ganymede - meeting transcript extraction service",
	Long: `Ganymede extracts structured briefs from raw meeting transcripts.

It runs as an HTTP service that streams extraction results over SSE or
WebSocket, providing:
  - Per-identity token-bucket admission with a usage ledger
  - Deterministic transcript compaction to a character budget
  - Streaming extraction through an upstream model gateway
  - Audit records for every extraction session

The compact, lint, and bench commands work offline without a gateway.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
