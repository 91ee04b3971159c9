// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track HTTP request patterns and performance
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestSize measures HTTP request body size in bytes
	HTTPRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_size_bytes",
			Help:    "HTTP request size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// HTTPResponseSize measures HTTP response body size in bytes
	HTTPResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_response_size_bytes",
			Help:    "HTTP response size in bytes",
			Buckets: prometheus.ExponentialBuckets(100, 10, 8),
		},
		[]string{"method", "path"},
	)

	// ActiveConnections tracks the number of active HTTP connections
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)
)

// Poll metrics track the polling-and-notification cycle
var (
	// PollRunsTotal counts poll runs by outcome
	PollRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poll_runs_total",
			Help: "Total number of poll runs",
		},
		[]string{"status"}, // status: success|aborted|empty
	)

	// PollRunDuration measures the wall time of one poll run
	PollRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "poll_run_duration_seconds",
			Help:    "Time taken by one poll run",
			Buckets: []float64{0.5, 1, 5, 15, 30, 60, 300, 600},
		},
	)

	// PollNewItemsTotal counts items that were newer than their channel watermark
	PollNewItemsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "poll_new_items_total",
			Help: "Total number of new items found by the poller",
		},
	)

	// PollNotificationsTotal counts delivery outcomes seen by the poller
	PollNotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poll_notifications_total",
			Help: "Total number of notifications attempted by the poller",
		},
		[]string{"result"}, // result: delivered|failed
	)

	// PollChannelErrorsTotal counts isolated per-channel failures
	PollChannelErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poll_channel_errors_total",
			Help: "Total number of per-channel errors during poll runs",
		},
		[]string{"stage"}, // stage: provider|watermark
	)

	// PollLastSuccessTimestamp records when a run last completed
	PollLastSuccessTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "poll_last_success_timestamp",
			Help: "Unix timestamp of the last completed poll run",
		},
	)

	// SchedulerRunning is 1 while the background poll loop is active
	SchedulerRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "poll_scheduler_running",
			Help: "Whether the background poll loop is running (1) or stopped (0)",
		},
	)
)

// Provider metrics track the content provider API
var (
	// ProviderQuotaUsed mirrors the client's cumulative quota counter
	ProviderQuotaUsed = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "provider_quota_used",
			Help: "Provider API quota units used since process start or last reset",
		},
	)

	// ProviderQuotaUnitsTotal counts quota units charged by call kind
	ProviderQuotaUnitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_quota_units_total",
			Help: "Total provider API quota units charged",
		},
		[]string{"cost"}, // cost: list|search
	)
)

// Database metrics track database performance
var (
	// DBQueryDuration measures database query duration
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	// DBConnectionsActive tracks active database connections
	DBConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
	)

	// DBConnectionsIdle tracks idle database connections
	DBConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_idle",
			Help: "Number of idle database connections",
		},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration, requestSize, responseSize int) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())

	if requestSize > 0 {
		HTTPRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	}
	if responseSize > 0 {
		HTTPResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
	}
}
