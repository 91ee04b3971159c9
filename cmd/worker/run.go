package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"channel-notifier/internal/infra/worker"
	"channel-notifier/internal/observability/tracing"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll until interrupted",
	Long: `Start the poll scheduler and the probe servers.

The first run starts immediately, later runs start CHECK_INTERVAL after the
previous one finished. SIGINT or SIGTERM cancels the in-flight run and exits.

Probe servers:
  :HEALTH_PORT   /health, /health/ready, /metrics
  :METRICS_PORT  /metrics, /health/destinations`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	e, err := setup(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	shutdownTracing := tracing.Init("channel-notifier-worker", version, 1.0)
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			e.logger.Error("tracer shutdown failed", slog.Any("error", err))
		}
	}()

	p := e.newPoller()

	if e.app.SeedFile != "" {
		if _, err := applySeedFile(ctx, e, p, e.app.SeedFile); err != nil {
			return err
		}
	}

	quotaReset, err := worker.StartQuotaReset(e.poll, p.Provider, e.metrics, e.logger)
	if err != nil {
		return fmt.Errorf("schedule quota reset: %w", err)
	}

	startMetricsServer(ctx, e.logger, e.poll.MetricsPort, p.Notify)

	health := worker.NewHealthServer(fmt.Sprintf(":%d", e.poll.HealthPort), p.Scheduler, e.logger)
	go func() {
		if err := health.Start(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error("health server failed", slog.Any("error", err))
		}
	}()

	p.Scheduler.Start()
	health.SetReady(true)
	e.logger.Info("worker started",
		slog.Int("health_port", e.poll.HealthPort),
		slog.Int("metrics_port", e.poll.MetricsPort))

	<-ctx.Done()
	e.logger.Info("shutting down worker...")

	health.SetReady(false)
	p.Scheduler.Stop()
	if quotaReset != nil {
		<-quotaReset.Stop().Done()
	}
	e.logger.Info("worker stopped")
	return nil
}
