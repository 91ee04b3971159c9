// Package youtube is the content provider client. It resolves channel handles
// and lists recent uploads through the YouTube Data API v3, keeping a running
// tally of the quota units spent by this process.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync/atomic"
	"time"

	"channel-notifier/internal/resilience/circuitbreaker"
	"channel-notifier/internal/resilience/retry"

	"github.com/sony/gobreaker"
)

const (
	// DefaultBaseURL is the Data API v3 root.
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

	// DefaultRecentItems is how many recent uploads are listed per channel.
	DefaultRecentItems = 5

	// maxIDsPerRequest is the channels.list limit for the id parameter.
	maxIDsPerRequest = 50

	defaultConcurrency = 4
	maxResponseBytes   = 4 << 20
)

// Quota costs per call, in Data API units.
const (
	CostList   = 1
	CostSearch = 100
)

// Client talks to the Data API. Construct it once per process and share it:
// QuotaUsed is only meaningful for a single shared instance.
type Client struct {
	apiKey      string
	baseURL     string
	httpClient  *http.Client
	lister      ItemLister
	breaker     *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
	recentItems int
	concurrency int
	logger      *slog.Logger

	quota         atomic.Int64
	quotaObserver func(cost int)
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root, e.g. a test server.
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }

// WithItemLister replaces the playlistItems lister, e.g. with a FeedLister.
func WithItemLister(l ItemLister) Option { return func(c *Client) { c.lister = l } }

// WithRetryConfig overrides the retry policy for API calls.
func WithRetryConfig(cfg retry.Config) Option { return func(c *Client) { c.retryConfig = cfg } }

// WithCircuitBreaker overrides the breaker guarding API calls.
func WithCircuitBreaker(cb *circuitbreaker.CircuitBreaker) Option {
	return func(c *Client) { c.breaker = cb }
}

// WithRecentItems sets how many recent uploads are listed per channel.
func WithRecentItems(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.recentItems = n
		}
	}
}

// WithConcurrency bounds parallel per-channel listings in CheckNewBatch.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.logger = l } }

// WithQuotaObserver registers a callback run for every unit charge, used for metrics.
func WithQuotaObserver(fn func(cost int)) Option { return func(c *Client) { c.quotaObserver = fn } }

// New builds a client for apiKey.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:      apiKey,
		baseURL:     DefaultBaseURL,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
		retryConfig: retry.ProviderAPIConfig(),
		recentItems: DefaultRecentItems,
		concurrency: defaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.breaker == nil {
		cfg := circuitbreaker.ProviderAPIConfig()
		cfg.IsSuccessful = func(err error) bool { return err == nil || isClientError(err) }
		c.breaker = circuitbreaker.New(cfg)
	}
	if c.lister == nil {
		c.lister = &APILister{client: c}
	}
	return c
}

// QuotaUsed returns the units spent since process start or the last ResetQuota.
func (c *Client) QuotaUsed() int64 {
	return c.quota.Load()
}

// ResetQuota zeroes the counter and returns the value it had. Only an
// explicit reset schedule calls this; the counter never rolls over by itself.
func (c *Client) ResetQuota() int64 {
	return c.quota.Swap(0)
}

func (c *Client) charge(cost int) {
	c.quota.Add(int64(cost))
	if c.quotaObserver != nil {
		c.quotaObserver(cost)
	}
}

// get calls endpoint with params and decodes the JSON body into out.
// Every attempt that reaches the network is charged cost units.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, cost int, out any) error {
	params.Set("key", c.apiKey)
	reqURL := c.baseURL + "/" + endpoint + "?" + params.Encode()

	start := time.Now()
	err := retry.WithBackoff(ctx, c.retryConfig, func() error {
		_, err := c.breaker.Execute(func() (interface{}, error) {
			c.charge(cost)
			return nil, c.doGet(ctx, reqURL, out)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.logger.Warn("youtube api circuit breaker open, request rejected",
				slog.String("endpoint", endpoint),
				slog.String("state", c.breaker.State().String()))
		}
		return err
	})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.IsQuotaExceeded() {
			c.logger.Warn("youtube api daily quota exhausted",
				slog.String("endpoint", endpoint),
				slog.Int64("quota_used", c.QuotaUsed()))
		}
		c.logger.Error("youtube api call failed",
			slog.String("endpoint", endpoint),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", redactKey(err.Error(), c.apiKey)))
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	c.logger.Debug("youtube api call",
		slog.String("endpoint", endpoint),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (c *Client) doGet(ctx context.Context, reqURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			// url.Error embeds the request URL, which carries the key.
			urlErr.URL = redactKey(urlErr.URL, c.apiKey)
		}
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var er errorResponse
		if json.Unmarshal(body, &er) == nil && er.Error.Message != "" {
			apiErr.Message = er.Error.Message
			if len(er.Error.Errors) > 0 {
				apiErr.Reason = er.Error.Errors[0].Reason
			}
		}
		return apiErr
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
