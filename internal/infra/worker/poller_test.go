package worker

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"channel-notifier/internal/domain/entity"
)

type stubChannels struct{ listErr error }

func (s *stubChannels) Get(context.Context, int64) (*entity.Channel, error) { return nil, nil }
func (s *stubChannels) GetByExternalID(context.Context, string) (*entity.Channel, error) {
	return nil, nil
}
func (s *stubChannels) GetByHandle(context.Context, string) (*entity.Channel, error) {
	return nil, nil
}
func (s *stubChannels) List(context.Context) ([]*entity.Channel, error) { return nil, s.listErr }
func (s *stubChannels) ListByDestination(context.Context, int64) ([]*entity.Channel, error) {
	return nil, nil
}
func (s *stubChannels) CountByDestination(context.Context, int64) (int64, error) { return 0, nil }
func (s *stubChannels) Create(context.Context, *entity.Channel) error            { return nil }
func (s *stubChannels) Delete(context.Context, int64) error                      { return nil }
func (s *stubChannels) UpdateLastCheckedAt(context.Context, int64, time.Time) error {
	return nil
}

type stubDestinations struct{}

func (stubDestinations) Get(context.Context, int64) (*entity.Destination, error) { return nil, nil }
func (stubDestinations) List(context.Context) ([]*entity.Destination, error)    { return nil, nil }
func (stubDestinations) Create(context.Context, *entity.Destination) error      { return nil }
func (stubDestinations) Delete(context.Context, int64) error                    { return nil }

func newTestPoller(t *testing.T, channels *stubChannels) *Poller {
	t.Helper()
	cfg := DefaultConfig()
	cfg.CheckInterval = 10 * time.Millisecond
	cfg.NotifyDryRun = true
	return NewPoller(&cfg, "test-key", Stores{Destinations: stubDestinations{}, Channels: channels},
		slog.New(slog.DiscardHandler))
}

func TestNewPoller_WiresStoppedScheduler(t *testing.T) {
	p := newTestPoller(t, &stubChannels{})

	require.NotNil(t, p.Provider)
	require.NotNil(t, p.Notify)
	require.NotNil(t, p.Orchestrator)
	require.NotNil(t, p.SLO)
	assert.False(t, p.Scheduler.IsRunning())
	assert.Equal(t, 10*time.Millisecond, p.Scheduler.Interval())
	assert.Zero(t, p.Provider.QuotaUsed())
}

func TestNewPoller_EmptyRunSpendsNoQuota(t *testing.T) {
	p := newTestPoller(t, &stubChannels{})

	stats, err := p.Orchestrator.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Channels)
	assert.Zero(t, stats.QuotaUsed)
	assert.Zero(t, p.Provider.QuotaUsed())
}

func TestNewPoller_FailedRunsReachSLOTracker(t *testing.T) {
	p := newTestPoller(t, &stubChannels{listErr: errors.New("connection refused")})

	require.True(t, p.Scheduler.Start())
	defer p.Scheduler.Stop()

	assert.Eventually(t, func() bool {
		run, _ := p.SLO.Ratios()
		return run == 0
	}, 2*time.Second, 5*time.Millisecond)
	assert.False(t, p.SLO.Healthy())
}
