package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "countconf",
		Short: "Confidence in counts produced by a counting scale",
		Long: `countconf estimates how confident you can be that a batch counted by
weight really contains at least a required number of items.

A counting scale calibrates the mean item weight from a small reference
sample, then divides the batch weight by it. Item weights vary, so the
displayed count is itself uncertain. countconf simulates that process many
times and reports the spread of the count estimate and the percentage of
simulations in which the true count meets the requirement.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.countconf/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug, or trace (overrides config)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newPlotCmd(),
		newServeCmd(),
		newConfigCmd(),
		newMCPServerCmd(),
	)

	return rootCmd
}
