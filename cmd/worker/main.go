// Package main is the headless poll worker.
//
// It runs the same poll loop as the API server without the REST surface,
// for deployments that register channels through a seed file.
//
// Usage:
//
//	worker run                  # poll until SIGINT/SIGTERM
//	worker once                 # one poll run, stats as JSON on stdout
//	worker resolve @handle      # resolve a handle to its channel id
//	worker seed -f seed.yaml    # apply a seed file and exit
//	worker migrate [--down]     # create or drop the schema
//	worker version
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"channel-notifier/internal/config"
	pgRepo "channel-notifier/internal/infra/adapter/persistence/postgres"
	"channel-notifier/internal/infra/db"
	"channel-notifier/internal/infra/worker"
	"channel-notifier/internal/observability/logging"
	pkgconfig "channel-notifier/internal/pkg/config"
)

// Version information - set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
)

var rootCmd = &cobra.Command{
	Use:   "worker",
	Short: "Poll registered channels and notify their webhooks",
	Long: `worker polls every registered channel for new items and posts one
message per item to the channel's webhook destination.

Configuration is read from the environment:
  YOUTUBE_API_KEY   provider API key (required)
  DATABASE_URL      PostgreSQL DSN (required)
  CHECK_INTERVAL    seconds between runs (default 1800)
  POLL_MODE         batch or single (default batch)
  ITEM_SOURCE       api or feed (default api)`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "worker %s (commit %s)\n", version, commit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		// cobra already printed the error
		os.Exit(1)
	}
}

// env is what every subcommand needs: a logger, the loaded configuration and
// an open, migrated database.
type env struct {
	logger  *slog.Logger
	app     *config.AppConfig
	poll    *worker.PollerConfig
	db      *sql.DB
	stores  worker.Stores
	metrics *worker.PollerMetrics
}

func (e *env) Close() {
	if err := e.db.Close(); err != nil {
		e.logger.Error("failed to close database", slog.Any("error", err))
	}
}

func setup(ctx context.Context) (*env, error) {
	logger := logging.NewLogger(logging.OptionsFromEnv("channel-notifier-worker"))
	slog.SetDefault(logger)

	appCfg, err := config.LoadAppConfig(logger, pkgconfig.NewConfigMetrics("worker"))
	if err != nil {
		return nil, err
	}
	m := worker.Metrics()
	pollCfg := worker.LoadConfigFromEnv(logger, m)

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	database, err := db.Open(openCtx, appCfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.MigrateUp(database); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &env{
		logger:  logger,
		app:     appCfg,
		poll:    pollCfg,
		db:      database,
		metrics: m,
		stores: worker.Stores{
			Destinations: pgRepo.NewDestinationRepo(database),
			Channels:     pgRepo.NewChannelRepo(database),
		},
	}, nil
}

func (e *env) newPoller() *worker.Poller {
	return worker.NewPoller(e.poll, e.app.YouTubeAPIKey, e.stores, e.logger)
}
