package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"channel-notifier/internal/config"
	"channel-notifier/internal/infra/db"
	envconfig "channel-notifier/pkg/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or drop the database schema",
	Long: `Apply the schema (idempotent) or, with --down, drop it.

--down deletes every registered destination and channel and must be
confirmed with --yes.

Example:
  worker migrate
  worker migrate --down --yes`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().Bool("down", false, "drop the schema instead of creating it")
	migrateCmd.Flags().Bool("yes", false, "confirm a destructive --down")
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	down, _ := cmd.Flags().GetBool("down")
	yes, _ := cmd.Flags().GetBool("yes")
	if down && !yes {
		return errors.New("--down drops all data; pass --yes to confirm")
	}

	dsn := envconfig.GetEnvString("DATABASE_URL", "")
	if dsn == "" {
		return config.ErrMissingDatabaseURL
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	database, err := db.Open(ctx, dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = database.Close() }()

	if down {
		if err := db.MigrateDown(database); err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema dropped")
		return nil
	}
	if err := db.MigrateUp(database); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
	return nil
}
