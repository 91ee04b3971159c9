package worker

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"channel-notifier/internal/usecase/poll"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pollerEnv = []string{
	"CHECK_INTERVAL", "POLL_MODE", "POLL_LOOKBACK", "POLL_RUN_TIMEOUT", "POLL_AUTOSTART",
	"ITEM_SOURCE", "QUOTA_RESET_SCHEDULE", "WORKER_TIMEZONE", "HEALTH_PORT", "METRICS_PORT",
	"NOTIFY_DRY_RUN", "NOTIFY_RATE_PER_SECOND",
}

func clearPollerEnv(t *testing.T) {
	t.Helper()
	for _, k := range pollerEnv {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1800*time.Second, cfg.CheckInterval)
	assert.Equal(t, poll.ModeBatch, cfg.Mode)
	assert.True(t, cfg.AutoStart)
	assert.Equal(t, SourceAPI, cfg.ItemSource)
	assert.Empty(t, cfg.QuotaResetSchedule)
	assert.NoError(t, cfg.Validate())

	assert.Equal(t, poll.Config{Mode: poll.ModeBatch, Lookback: time.Hour, RunTimeout: 10 * time.Minute}, cfg.PollConfig())
}

func TestPollerConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PollerConfig)
		want   string
	}{
		{"interval too short", func(c *PollerConfig) { c.CheckInterval = 5 * time.Second }, "check interval"},
		{"interval too long", func(c *PollerConfig) { c.CheckInterval = 25 * time.Hour }, "check interval"},
		{"unknown mode", func(c *PollerConfig) { c.Mode = "parallel" }, "poll mode"},
		{"zero lookback", func(c *PollerConfig) { c.Lookback = 0 }, "lookback"},
		{"unknown source", func(c *PollerConfig) { c.ItemSource = "scrape" }, "item source"},
		{"bad cron", func(c *PollerConfig) { c.QuotaResetSchedule = "daily" }, "quota reset schedule"},
		{"bad timezone", func(c *PollerConfig) { c.Timezone = "Nowhere/Else" }, "timezone"},
		{"privileged port", func(c *PollerConfig) { c.HealthPort = 80 }, "health port"},
		{"zero rate", func(c *PollerConfig) { c.NotifyRatePerSecond = 0 }, "notify rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestLoadConfigFromEnv_Valid(t *testing.T) {
	clearPollerEnv(t)
	t.Setenv("CHECK_INTERVAL", "60")
	t.Setenv("POLL_MODE", "single")
	t.Setenv("POLL_LOOKBACK", "2h")
	t.Setenv("POLL_AUTOSTART", "false")
	t.Setenv("ITEM_SOURCE", "feed")
	t.Setenv("QUOTA_RESET_SCHEDULE", "0 0 * * *")
	t.Setenv("WORKER_TIMEZONE", "America/Los_Angeles")
	t.Setenv("NOTIFY_DRY_RUN", "true")
	t.Setenv("NOTIFY_RATE_PER_SECOND", "0.5")

	got := LoadConfigFromEnv(slog.New(slog.DiscardHandler), nil)

	want := DefaultConfig()
	want.CheckInterval = time.Minute
	want.Mode = poll.ModeSingle
	want.Lookback = 2 * time.Hour
	want.AutoStart = false
	want.ItemSource = SourceFeed
	want.QuotaResetSchedule = "0 0 * * *"
	want.Timezone = "America/Los_Angeles"
	want.NotifyDryRun = true
	want.NotifyRatePerSecond = 0.5

	if diff := cmp.Diff(want, *got); diff != "" {
		t.Errorf("LoadConfigFromEnv mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigFromEnv_FallsBack(t *testing.T) {
	clearPollerEnv(t)
	t.Setenv("CHECK_INTERVAL", "3")
	t.Setenv("POLL_MODE", "turbo")
	t.Setenv("QUOTA_RESET_SCHEDULE", "midnight")

	var buf bytes.Buffer
	m := Metrics()
	before := testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("check_interval"))

	got := LoadConfigFromEnv(slog.New(slog.NewJSONHandler(&buf, nil)), m)

	require.NoError(t, got.Validate())
	assert.Equal(t, 1800*time.Second, got.CheckInterval)
	assert.Equal(t, poll.ModeBatch, got.Mode)
	assert.Empty(t, got.QuotaResetSchedule)

	assert.Equal(t, before+1, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("check_interval")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbackActive))
	assert.Contains(t, buf.String(), "CHECK_INTERVAL='3'")
}
