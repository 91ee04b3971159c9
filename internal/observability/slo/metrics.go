package slo

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Service level objectives for the poller.
const (
	// RunSuccessSLO is the target ratio of poll runs that finish without error.
	RunSuccessSLO = 0.99

	// DeliverySuccessSLO is the target ratio of new items that reach their webhook.
	DeliverySuccessSLO = 0.99

	// DefaultWindow is the number of recent runs the ratios are computed over.
	DefaultWindow = 48
)

var (
	SLORunSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_poll_run_success_ratio",
			Help: "Ratio of successful poll runs over the recent window (0-1), target: 0.99",
		},
	)

	SLODeliverySuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "slo_delivery_success_ratio",
			Help: "Ratio of new items delivered over the recent window (0-1), target: 0.99",
		},
	)
)

type sample struct {
	ok        bool
	newItems  int
	delivered int
}

// Tracker keeps a ring of recent poll runs and publishes the SLO gauges
// after each observation.
type Tracker struct {
	mu      sync.Mutex
	samples []sample
	next    int
	filled  bool
}

// NewTracker returns a Tracker over the last window runs. window <= 0 uses DefaultWindow.
func NewTracker(window int) *Tracker {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Tracker{samples: make([]sample, window)}
}

// Observe records one run and refreshes the gauges.
func (t *Tracker) Observe(ok bool, newItems, delivered int) {
	t.mu.Lock()
	t.samples[t.next] = sample{ok: ok, newItems: newItems, delivered: delivered}
	t.next = (t.next + 1) % len(t.samples)
	if t.next == 0 {
		t.filled = true
	}
	run, delivery := t.ratiosLocked()
	t.mu.Unlock()

	SLORunSuccess.Set(run)
	SLODeliverySuccess.Set(delivery)
}

// Ratios returns the run success and delivery success ratios. Both are 1
// when nothing has been observed yet.
func (t *Tracker) Ratios() (run, delivery float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ratiosLocked()
}

func (t *Tracker) ratiosLocked() (float64, float64) {
	n := t.next
	if t.filled {
		n = len(t.samples)
	}
	if n == 0 {
		return 1, 1
	}

	var okRuns, items, delivered int
	for _, s := range t.samples[:n] {
		if s.ok {
			okRuns++
		}
		items += s.newItems
		delivered += s.delivered
	}

	delivery := 1.0
	if items > 0 {
		delivery = float64(delivered) / float64(items)
	}
	return float64(okRuns) / float64(n), delivery
}

// Healthy reports whether both ratios meet their objectives.
func (t *Tracker) Healthy() bool {
	run, delivery := t.Ratios()
	return run >= RunSuccessSLO && delivery >= DeliverySuccessSLO
}
