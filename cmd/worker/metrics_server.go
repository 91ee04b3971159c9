package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"channel-notifier/internal/usecase/notify"
)

// BreakerReporter lists the per-destination webhook breakers.
type BreakerReporter interface {
	BreakerStates() []notify.BreakerStatus
}

// DestinationHealthResponse is the body of GET /health/destinations.
type DestinationHealthResponse struct {
	Healthy      bool                   `json:"healthy"`
	Destinations []notify.BreakerStatus `json:"destinations"`
}

// startMetricsServer serves Prometheus metrics and the destination breaker
// report on port until ctx is canceled.
//
// Endpoints:
//   - GET /metrics               Prometheus
//   - GET /health/destinations   200 when no breaker is open, else 503
func startMetricsServer(ctx context.Context, logger *slog.Logger, port int, breakers BreakerReporter) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /health/destinations", destinationHealthHandler(breakers))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("metrics server starting", slog.Int("port", port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", slog.Any("error", err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", slog.Any("error", err))
		} else {
			logger.Info("metrics server stopped")
		}
	}()

	return server
}

// destinationHealthHandler reports 503 while any destination breaker is open.
// Half-open breakers are probing and count as healthy.
func destinationHealthHandler(breakers BreakerReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		states := breakers.BreakerStates()

		healthy := true
		for _, s := range states {
			if s.State == "open" {
				healthy = false
				break
			}
		}

		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(DestinationHealthResponse{
			Healthy:      healthy,
			Destinations: states,
		})
	}
}
