package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "marketplace",
		Short: "Translation marketplace request lifecycle service",
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newCleanupJobsCmd(),
	)

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
