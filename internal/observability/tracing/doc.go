// Package tracing provides OpenTelemetry tracing integration.
//
// The HTTP middleware opens a server span per request and returns the trace
// id in the X-Trace-Id header. The poller opens one span per run.
//
// Example usage:
//
//	import "channel-notifier/internal/observability/tracing"
//
//	handler := tracing.Middleware(mux)
//
//	func run(ctx context.Context) {
//	    ctx, span := tracing.GetTracer().Start(ctx, "poll.run")
//	    defer span.End()
//	}
package tracing
