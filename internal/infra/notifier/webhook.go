package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"channel-notifier/internal/resilience/retry"
)

// Config controls webhook delivery.
type Config struct {
	// Timeout is the HTTP request timeout per attempt
	Timeout time.Duration

	// RequestsPerSecond and Burst size the per-host token bucket
	RequestsPerSecond float64
	Burst             int

	// Retry is the backoff policy for 429, 5xx and network errors
	Retry retry.Config
}

// DefaultConfig returns 10s timeouts, 1 request per second per host and
// two attempts five seconds apart.
func DefaultConfig() Config {
	return Config{
		Timeout:           10 * time.Second,
		RequestsPerSecond: 1,
		Burst:             1,
		Retry:             retry.WebhookConfig(),
	}
}

const maxErrorBodyBytes = 4 << 10

// webhookClient is the transport shared by the Slack and Discord senders.
type webhookClient struct {
	service    string
	httpClient *http.Client
	limiter    *HostRateLimiter
	retry      retry.Config
	accepted   func(status int) bool
}

func newWebhookClient(service string, cfg Config, hc *http.Client, limiter *HostRateLimiter, accepted func(int) bool) *webhookClient {
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	if limiter == nil {
		limiter = NewHostRateLimiter(cfg.RequestsPerSecond, cfg.Burst)
	}
	return &webhookClient{
		service:    service,
		httpClient: hc,
		limiter:    limiter,
		retry:      cfg.Retry,
		accepted:   accepted,
	}
}

// deliver waits for the host's rate limiter then posts payload with retries.
func (w *webhookClient) deliver(ctx context.Context, endpoint string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return &ClientError{Message: fmt.Sprintf("invalid endpoint url: %v", redactURLError(err))}
	}

	requestID := requestIDFrom(ctx)
	if err := w.limiter.Wait(ctx, u.Host); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	attempt := 0
	err = retry.WithBackoff(ctx, w.retry, func() error {
		attempt++
		return w.post(ctx, endpoint, body)
	})
	if err != nil {
		slog.Error(w.service+" notification failed",
			slog.String("request_id", requestID),
			slog.String("host", u.Host),
			slog.Int("attempts", attempt),
			slog.Any("error", err))
		return err
	}

	slog.Info(w.service+" notification sent",
		slog.String("request_id", requestID),
		slog.String("host", u.Host),
		slog.Int("attempt", attempt))
	return nil
}

func (w *webhookClient) post(ctx context.Context, endpoint string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return &ClientError{Message: fmt.Sprintf("create http request: %v", redactURLError(err))}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute http request: %w", redactURLError(err))
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))

	switch {
	case w.accepted(resp.StatusCode):
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			Message: w.service + " rate limit exceeded",
			Wait:    extractRetryAfter(resp, respBody),
		}
	case resp.StatusCode >= 500:
		return &ServerError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s server error %d: %s", w.service, resp.StatusCode, respBody),
		}
	default:
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("%s client error %d: %s", w.service, resp.StatusCode, respBody),
		}
	}
}

// Webhook URL はパス自体が認証情報なので、ホストだけ残す
func redactEndpoint(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "****"
	}
	return u.Scheme + "://" + u.Host + "/****"
}

// redactURLError masks the endpoint carried by a *url.Error in place.
func redactURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = redactEndpoint(urlErr.URL)
	}
	return err
}

// rateLimitBody is the JSON shape Discord (and some proxies) use for 429s.
type rateLimitBody struct {
	RetryAfter float64 `json:"retry_after"` // seconds
}

// extractRetryAfter reads retry_after from a JSON body, then the Retry-After
// header, defaulting to 5 seconds.
func extractRetryAfter(resp *http.Response, body []byte) time.Duration {
	var rl rateLimitBody
	if err := json.Unmarshal(body, &rl); err == nil && rl.RetryAfter > 0 {
		return time.Duration(rl.RetryAfter * float64(time.Second))
	}

	if h := resp.Header.Get("Retry-After"); h != "" {
		if seconds, err := strconv.Atoi(h); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}

	return 5 * time.Second
}
