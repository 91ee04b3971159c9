package poll

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"channel-notifier/internal/handler/http/respond"
	"channel-notifier/internal/observability/metrics"
)

// Runner executes one poll run.
type Runner interface {
	Run(ctx context.Context) (*RunStats, error)
}

// Scheduler drives Runner in a fixed-delay loop: a run, then a sleep of
// interval, then the next run. There is at most one loop and therefore at
// most one run in flight.
//
// Start, Stop and IsRunning are safe for concurrent use.
type Scheduler struct {
	runner   Runner
	interval time.Duration
	logger   *slog.Logger

	ctrl    sync.Mutex // serializes Start and Stop
	cancel  context.CancelFunc
	done    chan struct{}
	running atomic.Bool

	lastRun atomic.Pointer[RunStats]
	lastErr atomic.Pointer[string]

	onRun func(*RunStats, error)
}

// NewScheduler returns a stopped Scheduler. A nil logger uses slog.Default.
func NewScheduler(runner Runner, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		runner:   runner,
		interval: interval,
		logger:   logger,
	}
}

// OnRun registers fn to be called after every run with its stats and error.
// It must be set before Start.
func (s *Scheduler) OnRun(fn func(*RunStats, error)) {
	s.onRun = fn
}

// Start launches the loop with the first run immediately. It reports whether
// the scheduler was stopped before; starting a running scheduler is a no-op.
func (s *Scheduler) Start() bool {
	s.ctrl.Lock()
	defer s.ctrl.Unlock()

	if s.cancel != nil {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.running.Store(true)
	metrics.SetSchedulerRunning(true)

	go s.loop(ctx, done)

	s.logger.Info("poll scheduler started", slog.Duration("interval", s.interval))
	return true
}

// Stop cancels the pending sleep and any in-flight run, then waits for the
// loop to exit. It reports whether the scheduler was running; stopping a
// stopped scheduler is a no-op.
func (s *Scheduler) Stop() bool {
	s.ctrl.Lock()
	defer s.ctrl.Unlock()

	if s.cancel == nil {
		return false
	}

	s.running.Store(false)
	metrics.SetSchedulerRunning(false)
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil

	s.logger.Info("poll scheduler stopped")
	return true
}

// IsRunning reports whether the loop is active. It never blocks on a run.
func (s *Scheduler) IsRunning() bool {
	return s.running.Load()
}

// Interval returns the delay between the end of one run and the start of the next.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// LastRun returns the stats of the most recent run, or nil before the first one.
func (s *Scheduler) LastRun() *RunStats {
	return s.lastRun.Load()
}

// LastError returns the error message of the most recent run, empty when it succeeded.
func (s *Scheduler) LastError() string {
	if p := s.lastErr.Load(); p != nil {
		return *p
	}
	return ""
}

func (s *Scheduler) loop(ctx context.Context, done chan<- struct{}) {
	defer close(done)

	for {
		if ctx.Err() != nil {
			return
		}

		s.runOnce(ctx)

		timer := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

// runOnce executes a run and keeps the loop alive whatever happens inside it.
func (s *Scheduler) runOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in poll run",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			msg := "panic in poll run"
			s.lastErr.Store(&msg)
		}
	}()

	stats, err := s.runner.Run(ctx)
	if stats != nil {
		s.lastRun.Store(stats)
	}
	if s.onRun != nil && ctx.Err() == nil {
		s.onRun(stats, err)
	}
	if err != nil {
		msg := respond.SanitizeError(err)
		s.lastErr.Store(&msg)
		s.logger.Error("poll run failed", slog.String("error", msg))
		return
	}
	s.lastErr.Store(nil)
}
