package notify

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for notification delivery
var (
	// notificationDispatchedTotal tracks deliveries attempted per service
	notificationDispatchedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_dispatched_total",
			Help: "Total number of notifications dispatched",
		},
		[]string{"service"},
	)

	// notificationSentTotal tracks delivery results per service
	notificationSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_sent_total",
			Help: "Total number of notifications sent",
		},
		[]string{"service", "status"}, // status: success|failure
	)

	// notificationDuration tracks delivery duration including retries
	notificationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notification_duration_seconds",
			Help:    "Notification send duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30}, // 100ms to 30s
		},
		[]string{"service"},
	)

	// circuitBreakerOpenTotal tracks deliveries rejected by an open breaker
	circuitBreakerOpenTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_circuit_breaker_open_total",
			Help: "Total number of deliveries rejected by an open circuit breaker",
		},
		[]string{"service"},
	)

	// notificationDroppedTotal tracks deliveries that never reached the sender
	notificationDroppedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_dropped_total",
			Help: "Total number of dropped notifications",
		},
		[]string{"reason"}, // reason: destination_missing|lookup_failed|circuit_open|panic
	)
)

// RecordDispatch records a delivery attempt to service ("slack" or "discord").
func RecordDispatch(service string) {
	notificationDispatchedTotal.WithLabelValues(service).Inc()
}

// RecordSuccess records an accepted delivery and its duration.
func RecordSuccess(service string, duration time.Duration) {
	notificationSentTotal.WithLabelValues(service, "success").Inc()
	notificationDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// RecordFailure records a rejected or failed delivery and its duration.
func RecordFailure(service string, duration time.Duration) {
	notificationSentTotal.WithLabelValues(service, "failure").Inc()
	notificationDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// RecordCircuitBreakerOpen records a delivery short-circuited by an open breaker.
func RecordCircuitBreakerOpen(service string) {
	circuitBreakerOpenTotal.WithLabelValues(service).Inc()
}

// RecordDropped records a delivery abandoned before sending.
func RecordDropped(reason string) {
	notificationDroppedTotal.WithLabelValues(reason).Inc()
}
