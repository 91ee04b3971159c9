package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"channel-notifier/internal/config"
	"channel-notifier/internal/infra/youtube"
	"channel-notifier/internal/observability/logging"
	pkgconfig "channel-notifier/internal/pkg/config"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <handle>",
	Short: "Resolve a handle to its canonical channel id",
	Long: `Resolve a channel handle ("@name", a legacy username or a canonical
"UC..." id) against the provider without touching the database.

Each lookup spends provider quota; the units spent are printed.

Example:
  worker resolve @GoogleDevelopers`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	resolveCmd.Flags().Duration("timeout", 15*time.Second, "lookup timeout")
}

func runResolve(cmd *cobra.Command, args []string) error {
	logger := logging.NewLogger(logging.OptionsFromEnv("channel-notifier-worker"))

	apiKey := pkgconfig.LoadEnvString("YOUTUBE_API_KEY", "")
	if apiKey == "" {
		return config.ErrMissingAPIKey
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	client := youtube.New(apiKey, youtube.WithLogger(logger))
	info, err := client.Resolve(ctx, args[0])
	if errors.Is(err, youtube.ErrChannelNotFound) {
		return fmt.Errorf("no channel matches %q", args[0])
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "channel id:   %s\n", info.ExternalID)
	fmt.Fprintf(out, "display name: %s\n", info.DisplayName)
	fmt.Fprintf(out, "quota used:   %d\n", client.QuotaUsed())
	return nil
}
