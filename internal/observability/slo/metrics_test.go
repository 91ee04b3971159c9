package slo

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTracker_EmptyIsPerfect(t *testing.T) {
	tr := NewTracker(4)
	run, delivery := tr.Ratios()
	assert.Equal(t, 1.0, run)
	assert.Equal(t, 1.0, delivery)
	assert.True(t, tr.Healthy())
}

func TestTracker_Ratios(t *testing.T) {
	tr := NewTracker(4)
	tr.Observe(true, 4, 4)
	tr.Observe(false, 0, 0)
	tr.Observe(true, 6, 3)

	run, delivery := tr.Ratios()
	assert.InDelta(t, 2.0/3.0, run, 1e-9)
	assert.InDelta(t, 0.7, delivery, 1e-9)
	assert.False(t, tr.Healthy())

	assert.InDelta(t, 2.0/3.0, testutil.ToFloat64(SLORunSuccess), 1e-9)
	assert.InDelta(t, 0.7, testutil.ToFloat64(SLODeliverySuccess), 1e-9)
}

func TestTracker_WindowEvictsOldRuns(t *testing.T) {
	tr := NewTracker(2)
	tr.Observe(false, 1, 0)
	tr.Observe(true, 1, 1)
	tr.Observe(true, 1, 1)

	run, delivery := tr.Ratios()
	assert.Equal(t, 1.0, run)
	assert.Equal(t, 1.0, delivery)
	assert.True(t, tr.Healthy())
}

func TestNewTracker_DefaultWindow(t *testing.T) {
	tr := NewTracker(0)
	assert.Len(t, tr.samples, DefaultWindow)
}
