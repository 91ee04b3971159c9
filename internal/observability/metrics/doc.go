// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all application metrics including:
//   - HTTP request metrics (duration, count, size)
//   - Poll cycle metrics (runs, new items, notifications, per-channel errors)
//   - Provider quota metrics
//   - Database query metrics
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "channel-notifier/internal/observability/metrics"
//
//	start := time.Now()
//	stats, err := orchestrator.Run(ctx)
//	if err != nil {
//	    metrics.RecordPollRun("aborted", time.Since(start))
//	}
package metrics
