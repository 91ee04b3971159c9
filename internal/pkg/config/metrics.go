package config

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ConfigMetrics tracks configuration loading for one component. All series
// share the config_load_* names and carry a constant "component" label.
//
// Creating two ConfigMetrics for the same component panics on registration.
type ConfigMetrics struct {
	LoadTimestamp         prometheus.Gauge
	ValidationErrorsTotal *prometheus.CounterVec
	FallbacksTotal        *prometheus.CounterVec
	FallbackActive        prometheus.Gauge

	component string
}

// NewConfigMetrics registers the config_load_* series for component
// (e.g. "api", "poller") with the default registry.
func NewConfigMetrics(component string) *ConfigMetrics {
	labels := prometheus.Labels{"component": component}
	return &ConfigMetrics{
		LoadTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "config_load_timestamp",
			Help:        "Unix timestamp of the last configuration load",
			ConstLabels: labels,
		}),
		ValidationErrorsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "config_load_validation_errors_total",
			Help:        "Total number of configuration validation errors by field",
			ConstLabels: labels,
		}, []string{"field"}),
		FallbacksTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name:        "config_load_fallbacks_total",
			Help:        "Total number of configuration fallbacks by field",
			ConstLabels: labels,
		}, []string{"field"}),
		FallbackActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name:        "config_load_fallback_active",
			Help:        "1 if any configuration fallback is active, 0 otherwise",
			ConstLabels: labels,
		}),
		component: component,
	}
}

// Component returns the component label.
func (m *ConfigMetrics) Component() string { return m.component }

// RecordLoadTimestamp sets the load timestamp to now.
func (m *ConfigMetrics) RecordLoadTimestamp() {
	m.LoadTimestamp.SetToCurrentTime()
}

// RecordValidationError counts a failed validation for field.
func (m *ConfigMetrics) RecordValidationError(field string) {
	m.ValidationErrorsTotal.WithLabelValues(field).Inc()
}

// RecordFallback counts a default being applied for field.
func (m *ConfigMetrics) RecordFallback(field string) {
	m.FallbacksTotal.WithLabelValues(field).Inc()
}

// SetFallbackActive sets the gauge to 1 when active.
func (m *ConfigMetrics) SetFallbackActive(active bool) {
	if active {
		m.FallbackActive.Set(1)
		return
	}
	m.FallbackActive.Set(0)
}

// Tracker folds LoadResults into metrics and warning logs so that a config
// loader can read fields one after another and ask at the end whether any
// fallback happened.
type Tracker struct {
	metrics  *ConfigMetrics
	logger   *slog.Logger
	fallback bool
}

// NewTracker returns a Tracker. metrics may be nil; a nil logger uses slog.Default.
func NewTracker(metrics *ConfigMetrics, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{metrics: metrics, logger: logger}
}

// Track returns r.Value, recording the fallback under field when one was applied.
func Track[T any](t *Tracker, field string, r LoadResult[T]) T {
	if r.FallbackApplied {
		t.fallback = true
		if t.metrics != nil {
			t.metrics.RecordValidationError(field)
			t.metrics.RecordFallback(field)
		}
		t.logger.Warn("configuration fallback applied",
			slog.String("field", field),
			slog.String("warning", r.Warning))
	}
	return r.Value
}

// FallbackApplied reports whether any tracked field fell back.
func (t *Tracker) FallbackApplied() bool { return t.fallback }

// Done publishes the fallback gauge and the load timestamp.
func (t *Tracker) Done() {
	if t.metrics == nil {
		return
	}
	t.metrics.SetFallbackActive(t.fallback)
	t.metrics.RecordLoadTimestamp()
}
