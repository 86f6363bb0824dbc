package main

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"market-digest/internal/trace"
)

var flagConfig string

var rootCmd = &cobra.Command{
	Use:          "digest",
	Short:        "Daily macro market digest",
	Long:         "digest collects market moves, headlines and today's releases, writes an advisor and a client narrative, and emails them.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeSystem()
	},
	RunE: runOnce,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "digest.yaml", "path to the YAML config file (optional)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(snapshotCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build and send one digest",
	RunE:  runOnce,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Send the digest on the configured cron schedule",
	RunE:  serve,
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Collect and print the fact bundle without generating or sending",
	RunE:  snapshot,
}

func main() {
	err := rootCmd.Execute()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	_ = trace.Shutdown(ctx)
	cancel()

	if err != nil {
		os.Exit(1)
	}
}
