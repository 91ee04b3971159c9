package worker

import (
	"fmt"
	"log/slog"
	"time"

	"channel-notifier/internal/observability/metrics"

	"github.com/robfig/cron/v3"
)

// QuotaResetter clears the provider quota counter and returns the value it cleared.
type QuotaResetter interface {
	ResetQuota() int64
}

// StartQuotaReset schedules resets of the quota counter on cfg.QuotaResetSchedule
// in cfg.Timezone. It returns nil, nil when no schedule is configured.
// The caller stops the returned cron on shutdown.
func StartQuotaReset(cfg *PollerConfig, q QuotaResetter, m *PollerMetrics, logger *slog.Logger) (*cron.Cron, error) {
	if cfg.QuotaResetSchedule == "" {
		return nil, nil
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(cfg.QuotaResetSchedule, func() { resetQuota(q, m, logger) }); err != nil {
		return nil, fmt.Errorf("add quota reset job: %w", err)
	}
	c.Start()

	logger.Info("quota reset scheduled",
		slog.String("schedule", cfg.QuotaResetSchedule),
		slog.String("timezone", cfg.Timezone))
	return c, nil
}

func resetQuota(q QuotaResetter, m *PollerMetrics, logger *slog.Logger) {
	used := q.ResetQuota()
	metrics.SetQuotaUsed(0)
	if m != nil {
		m.RecordQuotaReset(used)
	}
	logger.Info("provider quota counter reset", slog.Int64("cleared_units", used))
}
