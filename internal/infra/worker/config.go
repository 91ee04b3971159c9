package worker

import (
	"fmt"
	"log/slog"
	"time"

	"channel-notifier/internal/pkg/config"
	"channel-notifier/internal/usecase/poll"
)

// Item sources.
const (
	SourceAPI  = "api"
	SourceFeed = "feed"
)

// Bounds of CHECK_INTERVAL.
const (
	MinCheckInterval = 10 * time.Second
	MaxCheckInterval = 24 * time.Hour
)

// PollerConfig holds the background poller settings shared by the API
// process and the headless worker.
type PollerConfig struct {
	// CheckInterval is the sleep between the end of one run and the start of
	// the next. Read from CHECK_INTERVAL in seconds.
	CheckInterval time.Duration

	Mode       poll.Mode
	Lookback   time.Duration
	RunTimeout time.Duration

	// AutoStart starts the scheduler with the process.
	AutoStart bool

	// ItemSource is "api" (playlistItems, costs quota) or "feed" (Atom, free).
	ItemSource string

	// QuotaResetSchedule is a cron expression evaluated in Timezone.
	// Empty disables resets; the counter is then cumulative.
	QuotaResetSchedule string
	Timezone           string

	HealthPort  int
	MetricsPort int

	NotifyDryRun        bool
	NotifyRatePerSecond float64
}

// DefaultConfig returns the poller defaults: a 30 minute interval in batch
// mode over the playlist API, auto-started, without quota resets.
func DefaultConfig() PollerConfig {
	return PollerConfig{
		CheckInterval:       1800 * time.Second,
		Mode:                poll.ModeBatch,
		Lookback:            time.Hour,
		RunTimeout:          10 * time.Minute,
		AutoStart:           true,
		ItemSource:          SourceAPI,
		Timezone:            "UTC",
		HealthPort:          9091,
		MetricsPort:         9090,
		NotifyRatePerSecond: 1,
	}
}

// PollConfig returns the orchestrator settings.
func (c *PollerConfig) PollConfig() poll.Config {
	return poll.Config{Mode: c.Mode, Lookback: c.Lookback, RunTimeout: c.RunTimeout}
}

// Validate collects every invalid field into one error.
func (c *PollerConfig) Validate() error {
	var errs []error

	if err := config.ValidateDuration(c.CheckInterval, MinCheckInterval, MaxCheckInterval); err != nil {
		errs = append(errs, fmt.Errorf("check interval: %w", err))
	}
	if err := config.OneOf(string(poll.ModeBatch), string(poll.ModeSingle))(string(c.Mode)); err != nil {
		errs = append(errs, fmt.Errorf("poll mode: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.Lookback); err != nil {
		errs = append(errs, fmt.Errorf("lookback: %w", err))
	}
	if err := config.ValidatePositiveDuration(c.RunTimeout); err != nil {
		errs = append(errs, fmt.Errorf("run timeout: %w", err))
	}
	if err := config.OneOf(SourceAPI, SourceFeed)(c.ItemSource); err != nil {
		errs = append(errs, fmt.Errorf("item source: %w", err))
	}
	if c.QuotaResetSchedule != "" {
		if err := config.ValidateCronSchedule(c.QuotaResetSchedule); err != nil {
			errs = append(errs, fmt.Errorf("quota reset schedule: %w", err))
		}
	}
	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("timezone: %w", err))
	}
	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := config.ValidateIntRange(c.MetricsPort, 1024, 65535); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}
	if err := config.ValidatePositiveFloat(c.NotifyRatePerSecond); err != nil {
		errs = append(errs, fmt.Errorf("notify rate: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}
	return nil
}

// LoadConfigFromEnv reads the poller settings. Invalid values fall back to
// their defaults with a warning and a config_load_fallbacks_total increment;
// the returned config is always valid.
//
//	CHECK_INTERVAL          seconds, 10..86400 (1800)
//	POLL_MODE               batch | single (batch)
//	POLL_LOOKBACK           duration (1h)
//	POLL_RUN_TIMEOUT        duration (10m)
//	POLL_AUTOSTART          bool (true)
//	ITEM_SOURCE             api | feed (api)
//	QUOTA_RESET_SCHEDULE    cron, empty = never
//	WORKER_TIMEZONE         IANA name (UTC)
//	HEALTH_PORT             1024..65535 (9091)
//	METRICS_PORT            1024..65535 (9090)
//	NOTIFY_DRY_RUN          bool (false)
//	NOTIFY_RATE_PER_SECOND  > 0 (1)
func LoadConfigFromEnv(logger *slog.Logger, metrics *PollerMetrics) *PollerConfig {
	cfg := DefaultConfig()

	var cm *config.ConfigMetrics
	if metrics != nil {
		cm = metrics.ConfigMetrics
	}
	tr := config.NewTracker(cm, logger)

	cfg.CheckInterval = config.Track(tr, "check_interval",
		config.LoadEnvSeconds("CHECK_INTERVAL", cfg.CheckInterval, func(d time.Duration) error {
			return config.ValidateDuration(d, MinCheckInterval, MaxCheckInterval)
		}))
	cfg.Mode = poll.Mode(config.Track(tr, "poll_mode",
		config.LoadEnvWithFallback("POLL_MODE", string(cfg.Mode), config.OneOf(string(poll.ModeBatch), string(poll.ModeSingle)))))
	cfg.Lookback = config.Track(tr, "poll_lookback",
		config.LoadEnvDuration("POLL_LOOKBACK", cfg.Lookback, config.ValidatePositiveDuration))
	cfg.RunTimeout = config.Track(tr, "poll_run_timeout",
		config.LoadEnvDuration("POLL_RUN_TIMEOUT", cfg.RunTimeout, func(d time.Duration) error {
			return config.ValidateDuration(d, time.Second, 4*time.Hour)
		}))
	cfg.AutoStart = config.Track(tr, "poll_autostart", config.LoadEnvBool("POLL_AUTOSTART", cfg.AutoStart))
	cfg.ItemSource = config.Track(tr, "item_source",
		config.LoadEnvWithFallback("ITEM_SOURCE", cfg.ItemSource, config.OneOf(SourceAPI, SourceFeed)))
	cfg.QuotaResetSchedule = config.Track(tr, "quota_reset_schedule",
		config.LoadEnvWithFallback("QUOTA_RESET_SCHEDULE", cfg.QuotaResetSchedule, config.ValidateCronSchedule))
	cfg.Timezone = config.Track(tr, "timezone",
		config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone))
	cfg.HealthPort = config.Track(tr, "health_port",
		config.LoadEnvInt("HEALTH_PORT", cfg.HealthPort, func(v int) error { return config.ValidateIntRange(v, 1024, 65535) }))
	cfg.MetricsPort = config.Track(tr, "metrics_port",
		config.LoadEnvInt("METRICS_PORT", cfg.MetricsPort, func(v int) error { return config.ValidateIntRange(v, 1024, 65535) }))
	cfg.NotifyDryRun = config.Track(tr, "notify_dry_run", config.LoadEnvBool("NOTIFY_DRY_RUN", cfg.NotifyDryRun))
	cfg.NotifyRatePerSecond = config.Track(tr, "notify_rate_per_second",
		config.LoadEnvFloat("NOTIFY_RATE_PER_SECOND", cfg.NotifyRatePerSecond, config.ValidatePositiveFloat))

	tr.Done()
	return &cfg
}
