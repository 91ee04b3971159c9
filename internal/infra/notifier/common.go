package notifier

import (
	"context"
	"fmt"
	"time"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// WithRequestID attaches a delivery id that is logged with every attempt.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// RateLimitError represents a 429 rate limit error from a webhook service.
type RateLimitError struct {
	Wait    time.Duration
	Message string
}

func (e *RateLimitError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (retry after %v)", e.Message, e.Wait)
	}
	return fmt.Sprintf("rate limit exceeded (retry after %v)", e.Wait)
}

func (e *RateLimitError) Retryable() bool           { return true }
func (e *RateLimitError) RetryAfter() time.Duration { return e.Wait }

// ClientError represents a 4xx client error from a webhook service.
// A revoked or mistyped webhook lands here; it is never retried.
type ClientError struct {
	StatusCode int
	Message    string
}

func (e *ClientError) Error() string   { return e.Message }
func (e *ClientError) Retryable() bool { return false }

// ServerError represents a 5xx server error from a webhook service.
type ServerError struct {
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string   { return e.Message }
func (e *ServerError) Retryable() bool { return true }
