package metrics

import (
	"time"
)

// RecordPollRun records the outcome and duration of one poll run.
// Status should be "success", "empty", "aborted" or "interrupted".
func RecordPollRun(status string, duration time.Duration) {
	PollRunsTotal.WithLabelValues(status).Inc()
	PollRunDuration.Observe(duration.Seconds())
	if status == "success" || status == "empty" {
		PollLastSuccessTimestamp.SetToCurrentTime()
	}
}

// RecordPollItems records how many new items a run found and how many of
// them were delivered.
func RecordPollItems(newItems, delivered int) {
	PollNewItemsTotal.Add(float64(newItems))
	PollNotificationsTotal.WithLabelValues("delivered").Add(float64(delivered))
	PollNotificationsTotal.WithLabelValues("failed").Add(float64(newItems - delivered))
}

// RecordPollChannelError records an isolated per-channel failure.
// Stage is "provider" or "watermark".
func RecordPollChannelError(stage string) {
	PollChannelErrorsTotal.WithLabelValues(stage).Inc()
}

// SetSchedulerRunning updates the scheduler state gauge.
func SetSchedulerRunning(running bool) {
	if running {
		SchedulerRunning.Set(1)
		return
	}
	SchedulerRunning.Set(0)
}

// RecordQuotaCharge records cost units charged against the provider quota.
// The provider charges 100 for a search and 1 for everything else.
func RecordQuotaCharge(cost int) {
	label := "list"
	if cost >= 100 {
		label = "search"
	}
	ProviderQuotaUnitsTotal.WithLabelValues(label).Add(float64(cost))
}

// SetQuotaUsed mirrors the provider client's cumulative counter.
func SetQuotaUsed(used int64) {
	ProviderQuotaUsed.Set(float64(used))
}

// RecordDBQuery records the duration of a database query operation.
// Operation should describe the query type (e.g., "list_channels", "update_watermark").
func RecordDBQuery(operation string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// UpdateDBConnectionStats updates database connection pool statistics.
func UpdateDBConnectionStats(active, idle int) {
	DBConnectionsActive.Set(float64(active))
	DBConnectionsIdle.Set(float64(idle))
}
