package youtube

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"channel-notifier/internal/resilience/retry"
)

// ErrChannelNotFound is returned by Resolve when no lookup step matched or a
// lookup failed.
var ErrChannelNotFound = errors.New("channel not found")

// APIError is a non-2xx answer from the Data API.
type APIError struct {
	StatusCode int
	Reason     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("youtube api: HTTP %d %s: %s", e.StatusCode, e.Reason, e.Message)
	}
	return fmt.Sprintf("youtube api: HTTP %d: %s", e.StatusCode, e.Message)
}

// Retryable marks 5xx, 429 and 408 as transient. A 403 quotaExceeded or
// rateLimitExceeded is not retried: the daily quota will not recover in seconds.
func (e *APIError) Retryable() bool {
	return retry.IsRetryableStatus(e.StatusCode)
}

// IsQuotaExceeded reports whether the provider rejected the call for quota.
func (e *APIError) IsQuotaExceeded() bool {
	return e.StatusCode == http.StatusForbidden &&
		(e.Reason == "quotaExceeded" || e.Reason == "dailyLimitExceeded")
}

// isClientError is used by the circuit breaker: bad input is not an outage.
func isClientError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == http.StatusNotFound
}

// redactKey removes the API key from an error string such as a *url.Error.
func redactKey(s, key string) string {
	if key == "" {
		return s
	}
	return strings.ReplaceAll(s, key, "***")
}
