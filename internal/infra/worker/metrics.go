package worker

import (
	"sync"

	"channel-notifier/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PollerMetrics are the poller's configuration and quota-reset series.
// Poll-run series live in observability/metrics.
type PollerMetrics struct {
	*config.ConfigMetrics

	// QuotaResetsTotal counts scheduled quota counter resets.
	QuotaResetsTotal prometheus.Counter

	// QuotaUnitsAtReset observes the counter value each reset cleared.
	QuotaUnitsAtReset prometheus.Histogram
}

var pollerMetrics = sync.OnceValue(func() *PollerMetrics {
	return &PollerMetrics{
		ConfigMetrics: config.NewConfigMetrics("poller"),

		QuotaResetsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "provider_quota_resets_total",
			Help: "Total number of scheduled provider quota counter resets",
		}),

		QuotaUnitsAtReset: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "provider_quota_units_at_reset",
			Help:    "Quota units consumed since the previous reset, observed at reset time",
			Buckets: []float64{10, 100, 500, 1000, 2500, 5000, 10000},
		}),
	}
})

// Metrics returns the process-wide PollerMetrics, registering them on first use.
func Metrics() *PollerMetrics {
	return pollerMetrics()
}

// RecordQuotaReset records a reset that cleared used units.
func (m *PollerMetrics) RecordQuotaReset(used int64) {
	m.QuotaResetsTotal.Inc()
	m.QuotaUnitsAtReset.Observe(float64(used))
}
