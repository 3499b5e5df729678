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
	Short: "OpenAI-compatible gateway for the Dangbei AI search backend",
	Long: `Ganymede is an OpenAI-compatible gateway that serves chat completions
from the Dangbei AI conversational search backend.

It flattens each conversation into a single upstream question and relays
the streamed answer back in OpenAI wire format, providing:
  - Streaming (SSE) and aggregated JSON response modes
  - Reasoning output delivered in <think> tags
  - Reference cards rendered as markdown source tables
  - An optional request journal with SQLite persistence
  - Prometheus metrics and structured request logging

For more information, visit: https://github.com/mercator-hq/ganymede`,
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
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
}
