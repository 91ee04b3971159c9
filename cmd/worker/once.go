package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Execute a single poll run and print its stats",
	Long: `Execute exactly one poll run with the configured mode and print the run
statistics as JSON. Useful for cron-driven deployments and for checking a
fresh configuration.

Exit codes:
  0 - the run completed (per-channel errors are reported in the stats)
  1 - the run aborted`,
	RunE: runOnce,
}

func init() {
	rootCmd.AddCommand(onceCmd)
}

func runOnce(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	p := e.newPoller()
	stats, runErr := p.Orchestrator.Run(ctx)

	if stats != nil {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(stats); err != nil {
			return fmt.Errorf("encode stats: %w", err)
		}
	}
	if runErr != nil {
		return fmt.Errorf("poll run: %w", runErr)
	}
	return nil
}
