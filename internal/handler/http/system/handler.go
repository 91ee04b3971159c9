// Package system exposes process status and background poller control.
package system

import (
	"net/http"
	"time"

	"channel-notifier/internal/handler/http/respond"
	"channel-notifier/internal/usecase/poll"
)

// Scheduler is the background poll loop.
type Scheduler interface {
	Start() bool
	Stop() bool
	IsRunning() bool
	Interval() time.Duration
	LastRun() *poll.RunStats
	LastError() string
}

// QuotaCounter exposes the provider's cumulative quota usage.
type QuotaCounter interface {
	QuotaUsed() int64
}

// StatusResponse is returned by the status endpoints.
type StatusResponse struct {
	Status                string         `json:"status"`
	BackgroundTaskRunning bool           `json:"background_task_running"`
	ProviderQuotaUsed     int64          `json:"provider_quota_used"`
	IntervalSeconds       int64          `json:"interval_seconds"`
	LastRun               *poll.RunStats `json:"last_run,omitempty"`
	LastError             string         `json:"last_error,omitempty"`
}

// ControlResponse is returned by the start and stop endpoints.
type ControlResponse struct {
	Status string `json:"status"`
}

// Register registers status and control routes. Each route is reachable at
// its bare path and under /api/v1/system.
func Register(mux *http.ServeMux, sched Scheduler, quota QuotaCounter) {
	status := StatusHandler{Scheduler: sched, Quota: quota}
	start := StartHandler{Scheduler: sched}
	stop := StopHandler{Scheduler: sched}

	mux.Handle("GET    /status", status)
	mux.Handle("GET    /api/v1/system/status", status)
	mux.Handle("POST   /background/start", start)
	mux.Handle("POST   /api/v1/system/background/start", start)
	mux.Handle("POST   /background/stop", stop)
	mux.Handle("POST   /api/v1/system/background/stop", stop)
}

type StatusHandler struct {
	Scheduler Scheduler
	Quota     QuotaCounter
}

func (h StatusHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, StatusResponse{
		Status:                "running",
		BackgroundTaskRunning: h.Scheduler.IsRunning(),
		ProviderQuotaUsed:     h.Quota.QuotaUsed(),
		IntervalSeconds:       int64(h.Scheduler.Interval() / time.Second),
		LastRun:               h.Scheduler.LastRun(),
		LastError:             h.Scheduler.LastError(),
	})
}

// StartHandler starts the poll loop. Starting a running loop is a no-op.
type StartHandler struct{ Scheduler Scheduler }

func (h StartHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.Scheduler.Start()
	respond.JSON(w, http.StatusOK, ControlResponse{Status: "started"})
}

// StopHandler stops the poll loop and waits for it to exit.
type StopHandler struct{ Scheduler Scheduler }

func (h StopHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.Scheduler.Stop()
	respond.JSON(w, http.StatusOK, ControlResponse{Status: "stopped"})
}
