// Package observability provides production-grade observability infrastructure
// including structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// This package centralizes observability concerns to enable:
//   - Request tracing across service boundaries
//   - Structured logging with context propagation
//   - Prometheus metrics for monitoring
//
// Subpackages:
//   - logging: Structured logging utilities with slog
//   - metrics: Prometheus metrics registry and recorders
//   - tracing: OpenTelemetry tracing integration
//
// Example usage:
//
//	import (
//	    "channel-notifier/internal/observability/logging"
//	    "channel-notifier/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.NewLogger(logging.OptionsFromEnv("channel-notifier"))
//	    logger.Info("application started")
//
//	    metrics.SetQuotaUsed(client.QuotaUsed())
//	}
package observability
