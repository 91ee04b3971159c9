package tracing

import (
	"net/http"
	"strings"

	"channel-notifier/internal/handler/http/pathutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// TraceIDHeader carries the trace ID back to the caller.
const TraceIDHeader = "X-Trace-Id"

type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware traces requests with the package tracer.
func Middleware(next http.Handler) http.Handler {
	return WithTracer(tracer)(next)
}

// WithTracer returns tracing middleware using t.
//
// The span is named "METHOD /normalized/path" so that IDs do not leak into
// span names. When a ServeMux routed the request, the matched pattern is
// recorded as http.route. 5xx responses mark the span as an error.
func WithTracer(t trace.Tracer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			ctx, span := t.Start(ctx, r.Method+" "+pathutil.NormalizePath(r.URL.Path),
				trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()

			w.Header().Set(TraceIDHeader, span.SpanContext().TraceID().String())

			sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
			r = r.WithContext(ctx)
			next.ServeHTTP(sw, r)

			attrs := []attribute.KeyValue{
				attribute.Int("http.status_code", sw.statusCode),
				attribute.String("http.method", r.Method),
				attribute.String("http.path", r.URL.Path),
			}
			// ServeMux は r.Pattern を書き換える
			if r.Pattern != "" {
				attrs = append(attrs, attribute.String("http.route", strings.Join(strings.Fields(r.Pattern), " ")))
			}
			span.SetAttributes(attrs...)

			if sw.statusCode >= 500 {
				span.SetStatus(codes.Error, http.StatusText(sw.statusCode))
			}
		})
	}
}
