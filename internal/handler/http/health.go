// Package http provides the HTTP server plumbing shared by the API routes:
// health endpoints, request logging, panic recovery, body limits and metrics.
package http

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"channel-notifier/internal/observability/metrics"
	"channel-notifier/internal/usecase/notify"
)

// HealthResponse represents the JSON response for health check endpoints.
type HealthResponse struct {
	Status    string                 `json:"status"`    // "healthy" or "unhealthy"
	Timestamp string                 `json:"timestamp"` // ISO 8601 format
	Checks    map[string]CheckStatus `json:"checks"`    // Status of each check item
	Version   string                 `json:"version"`   // Application version
}

// CheckStatus represents the status of a single health check.
type CheckStatus struct {
	Status  string         `json:"status"`            // "healthy", "degraded" or "unhealthy"
	Message string         `json:"message,omitempty"` // Optional status message
	Details map[string]any `json:"details,omitempty"` // Optional additional details
}

// BreakerReporter exposes the per-destination webhook circuit breakers.
type BreakerReporter interface {
	BreakerStates() []notify.BreakerStatus
}

// PollerReporter exposes the background poll loop.
type PollerReporter interface {
	IsRunning() bool
	LastError() string
}

// SLOReporter exposes the rolling poll run and delivery success ratios.
type SLOReporter interface {
	Ratios() (run, delivery float64)
	Healthy() bool
}

// HealthHandler handles health check endpoint requests.
// Only the database decides the HTTP status; poller, SLO and webhook breaker
// states are reported for operators but never fail the check.
type HealthHandler struct {
	DB      *sql.DB
	Version string

	Breakers BreakerReporter // optional
	Poller   PollerReporter  // optional
	SLO      SLOReporter     // optional
}

// ServeHTTP performs health checks and returns the application health status.
// Returns 200 OK if healthy, or 503 Service Unavailable if the database check fails.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]CheckStatus)
	allHealthy := true

	// データベース接続チェック
	if h.DB != nil {
		dbCheck := h.checkDatabase(ctx)
		checks["database"] = dbCheck
		if dbCheck.Status == "unhealthy" {
			allHealthy = false
		}
	} else {
		checks["database"] = CheckStatus{
			Status:  "unhealthy",
			Message: "not configured",
		}
		allHealthy = false
	}

	if h.Poller != nil {
		checks["poller"] = h.checkPoller()
	}
	if h.Breakers != nil {
		checks["webhooks"] = h.checkBreakers()
	}
	if h.SLO != nil {
		checks["slo"] = h.checkSLO()
	}

	status := "healthy"
	statusCode := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		log.Printf("health: failed to encode response: %v", err)
	}
}

// checkDatabase checks database connectivity and returns connection pool statistics.
func (h *HealthHandler) checkDatabase(ctx context.Context) CheckStatus {
	if err := h.DB.PingContext(ctx); err != nil {
		return CheckStatus{
			Status:  "unhealthy",
			Message: err.Error(),
		}
	}

	stats := h.DB.Stats()
	metrics.UpdateDBConnectionStats(stats.InUse, stats.Idle)
	details := map[string]any{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}

	// MaxOpenConnections == 0 は無制限
	if stats.MaxOpenConnections == 0 {
		return CheckStatus{
			Status:  "degraded",
			Message: "connection pool max connections not configured",
			Details: details,
		}
	}

	utilizationPercent := float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
	details["utilization_percent"] = utilizationPercent

	if utilizationPercent >= 80.0 {
		return CheckStatus{
			Status:  "degraded",
			Message: "connection pool utilization above 80%",
			Details: details,
		}
	}

	return CheckStatus{
		Status:  "healthy",
		Details: details,
	}
}

// checkPoller reports whether the background loop runs. A stopped loop is
// "degraded": the API still serves, but nothing is notified.
func (h *HealthHandler) checkPoller() CheckStatus {
	details := map[string]any{"running": h.Poller.IsRunning()}
	if msg := h.Poller.LastError(); msg != "" {
		details["last_error"] = msg
	}
	if !h.Poller.IsRunning() {
		return CheckStatus{Status: "degraded", Message: "background polling stopped", Details: details}
	}
	return CheckStatus{Status: "healthy", Details: details}
}

// checkBreakers lists destinations whose webhook breaker is not closed.
func (h *HealthHandler) checkBreakers() CheckStatus {
	states := h.Breakers.BreakerStates()
	open := make([]int64, 0)
	for _, b := range states {
		if b.State != "closed" {
			open = append(open, b.DestinationID)
		}
	}
	details := map[string]any{
		"tracked":          len(states),
		"open_or_half_open": open,
	}
	if len(open) > 0 {
		return CheckStatus{Status: "degraded", Message: "some webhook circuit breakers are open", Details: details}
	}
	return CheckStatus{Status: "healthy", Details: details}
}

func (h *HealthHandler) checkSLO() CheckStatus {
	run, delivery := h.SLO.Ratios()
	details := map[string]any{
		"run_success_ratio":      run,
		"delivery_success_ratio": delivery,
	}
	if !h.SLO.Healthy() {
		return CheckStatus{Status: "degraded", Message: "success ratio below objective", Details: details}
	}
	return CheckStatus{Status: "healthy", Details: details}
}

// ReadyHandler handles Kubernetes readiness probe requests.
// It checks if the database connection is established and ready to accept traffic.
type ReadyHandler struct {
	DB *sql.DB
}

// ServeHTTP performs readiness checks and returns 200 OK if ready,
// or 503 Service Unavailable if the database is not ready.
func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.DB == nil {
		http.Error(w, "database not configured", http.StatusServiceUnavailable)
		return
	}

	if err := h.DB.PingContext(ctx); err != nil {
		http.Error(w, "database not ready: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ready")); err != nil {
		log.Printf("ready: failed to write response: %v", err)
	}
}

// LiveHandler handles Kubernetes liveness probe requests.
// It performs a lightweight check to verify the application is responsive.
type LiveHandler struct{}

// ServeHTTP performs a simple liveness check and always returns 200 OK
// if the application is running and able to respond.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("alive")); err != nil {
		log.Printf("alive: failed to write response: %v", err)
	}
}
