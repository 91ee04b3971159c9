// Package poll runs the polling-and-notification cycle: it asks the content
// provider for new items, notifies each channel's destination and moves the
// per-channel watermark.
package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"channel-notifier/internal/domain/entity"
	"channel-notifier/internal/handler/http/respond"
	"channel-notifier/internal/observability/logging"
	"channel-notifier/internal/observability/metrics"
	"channel-notifier/internal/observability/tracing"
	"channel-notifier/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrBatchFailed is returned by Run when the batched provider query failed
// as a whole. No watermark is touched in that case.
var ErrBatchFailed = errors.New("batch provider query failed")

// Provider is the part of the content provider client the poller needs.
type Provider interface {
	CheckNewSingle(ctx context.Context, externalID string, since time.Time) ([]entity.Item, error)
	CheckNewBatch(ctx context.Context, externalIDs []string, since time.Time) (map[string][]entity.Item, error)
	QuotaUsed() int64
}

// Deliverer sends one notification and reports whether it was accepted.
type Deliverer interface {
	Deliver(ctx context.Context, ch *entity.Channel, item entity.Item) bool
}

// Mode selects how the provider is queried.
type Mode string

const (
	// ModeBatch issues one batched query with a shared lookback horizon.
	ModeBatch Mode = "batch"
	// ModeSingle queries each channel from its own watermark.
	ModeSingle Mode = "single"
)

// Config controls a poll run.
type Config struct {
	Mode Mode

	// Lookback is the shared horizon in batch mode.
	Lookback time.Duration

	// RunTimeout bounds a whole run; zero means no bound.
	RunTimeout time.Duration
}

// DefaultConfig returns batch mode with a one hour lookback and a ten minute run bound.
func DefaultConfig() Config {
	return Config{
		Mode:       ModeBatch,
		Lookback:   time.Hour,
		RunTimeout: 10 * time.Minute,
	}
}

// RunStats summarizes one run.
type RunStats struct {
	RunID            string        `json:"run_id"`
	StartedAt        time.Time     `json:"started_at"`
	Channels         int           `json:"channels"`
	ChannelsWithHits int           `json:"channels_with_hits"`
	ChannelErrors    int           `json:"channel_errors"`
	NewItems         int           `json:"new_items"`
	Notified         int           `json:"notified"`
	QuotaUsed        int64         `json:"provider_quota_used"`
	Duration         time.Duration `json:"duration_ns"`
	Status           string        `json:"status"`
}

// Run outcomes, as recorded on RunStats.Status and the poll_runs_total label.
const (
	StatusSuccess     = "success"
	StatusEmpty       = "empty"
	StatusAborted     = "aborted"
	StatusInterrupted = "interrupted" // context cancelled before every channel was processed
)

// Orchestrator executes single poll runs. It holds no state between runs;
// every run re-reads the channel list.
type Orchestrator struct {
	channels repository.ChannelRepository
	provider Provider
	notifier Deliverer
	cfg      Config

	tracer trace.Tracer
	now    func() time.Time
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithTracer replaces the global tracer.
func WithTracer(t trace.Tracer) Option { return func(o *Orchestrator) { o.tracer = t } }

// WithClock replaces time.Now as the source of the run start time.
func WithClock(now func() time.Time) Option { return func(o *Orchestrator) { o.now = now } }

// NewOrchestrator wires the watermark store, the provider and the notifier.
func NewOrchestrator(channels repository.ChannelRepository, provider Provider, notifier Deliverer, cfg Config, opts ...Option) *Orchestrator {
	if cfg.Mode == "" {
		cfg.Mode = ModeBatch
	}
	if cfg.Lookback <= 0 {
		cfg.Lookback = time.Hour
	}
	o := &Orchestrator{
		channels: channels,
		provider: provider,
		notifier: notifier,
		cfg:      cfg,
		tracer:   tracing.GetTracer(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run performs one poll run.
//
// An item is new when it was published strictly after its channel's
// watermark as read at the start of the run. A channel with at least one new
// item has its watermark set to the run start time, whether or not the
// deliveries succeeded. Per-channel provider and store errors are logged and
// counted; only a failed channel listing or a failed batch query aborts the run.
func (o *Orchestrator) Run(ctx context.Context) (*RunStats, error) {
	runStart := o.now().UTC()
	stats := &RunStats{RunID: uuid.NewString(), StartedAt: runStart}

	logger := logging.FromContext(ctx).With(slog.String("run_id", stats.RunID))
	ctx = logging.WithLogger(ctx, logger)

	if o.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.RunTimeout)
		defer cancel()
	}

	ctx, span := o.tracer.Start(ctx, "poll.run",
		trace.WithAttributes(
			attribute.String("poll.run_id", stats.RunID),
			attribute.String("poll.mode", string(o.cfg.Mode))))
	defer span.End()

	logger.Info("poll run started", slog.String("mode", string(o.cfg.Mode)))

	channels, err := o.channels.List(ctx)
	if err != nil {
		err = fmt.Errorf("list channels: %w", err)
		o.finish(logger, span, stats, StatusAborted, err)
		return stats, err
	}
	stats.Channels = len(channels)

	if len(channels) == 0 {
		o.finish(logger, span, stats, StatusEmpty, nil)
		return stats, nil
	}

	switch o.cfg.Mode {
	case ModeSingle:
		o.runSingle(ctx, logger, channels, runStart, stats)
	default:
		if err := o.runBatch(ctx, logger, channels, runStart, stats); err != nil {
			o.finish(logger, span, stats, StatusAborted, err)
			return stats, err
		}
	}

	status := StatusSuccess
	if ctx.Err() != nil {
		status = StatusInterrupted
	}
	o.finish(logger, span, stats, status, nil)
	return stats, nil
}

func (o *Orchestrator) runBatch(ctx context.Context, logger *slog.Logger, channels []*entity.Channel, runStart time.Time, stats *RunStats) error {
	since := runStart.Add(-o.cfg.Lookback)

	ids := make([]string, 0, len(channels))
	for _, ch := range channels {
		ids = append(ids, ch.ExternalID)
	}

	results, err := o.provider.CheckNewBatch(ctx, ids, since)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBatchFailed, err)
	}

	for _, ch := range channels {
		if ctx.Err() != nil {
			logger.Warn("poll run interrupted", slog.Any("error", ctx.Err()))
			return nil
		}
		items, ok := results[ch.ExternalID]
		if !ok {
			// the provider already logged why this channel is missing
			stats.ChannelErrors++
			metrics.RecordPollChannelError("provider")
			continue
		}
		o.processChannel(ctx, logger, ch, items, runStart, stats)
	}
	return nil
}

func (o *Orchestrator) runSingle(ctx context.Context, logger *slog.Logger, channels []*entity.Channel, runStart time.Time, stats *RunStats) {
	for _, ch := range channels {
		if ctx.Err() != nil {
			logger.Warn("poll run interrupted", slog.Any("error", ctx.Err()))
			return
		}
		items, err := o.provider.CheckNewSingle(ctx, ch.ExternalID, ch.LastCheckedAt)
		if err != nil {
			logger.Error("channel check failed",
				slog.Int64("channel_id", ch.ID),
				slog.String("external_id", ch.ExternalID),
				slog.String("error", respond.SanitizeError(err)))
			stats.ChannelErrors++
			metrics.RecordPollChannelError("provider")
			continue
		}
		o.processChannel(ctx, logger, ch, items, runStart, stats)
	}
}

// processChannel notifies every item newer than the channel's watermark,
// oldest first, then advances the watermark to runStart.
func (o *Orchestrator) processChannel(ctx context.Context, logger *slog.Logger, ch *entity.Channel, items []entity.Item, runStart time.Time, stats *RunStats) {
	fresh := make([]entity.Item, 0, len(items))
	for _, it := range items {
		if ch.IsNew(it.PublishedAt) {
			fresh = append(fresh, it)
		}
	}
	if len(fresh) == 0 {
		return
	}
	slices.SortStableFunc(fresh, func(a, b entity.Item) int {
		return a.PublishedAt.Compare(b.PublishedAt)
	})

	delivered := 0
	for _, it := range fresh {
		// 停止要求後は通知せず、ウォーターマークも動かさない
		if ctx.Err() != nil {
			logger.Warn("channel left unprocessed",
				slog.Int64("channel_id", ch.ID),
				slog.Int("remaining", len(fresh)-delivered))
			stats.NewItems += len(fresh)
			stats.Notified += delivered
			return
		}
		if o.notifier.Deliver(ctx, ch, it) {
			delivered++
		}
	}

	stats.NewItems += len(fresh)
	stats.Notified += delivered
	stats.ChannelsWithHits++

	if err := o.channels.UpdateLastCheckedAt(ctx, ch.ID, runStart); err != nil {
		logger.Error("watermark update failed",
			slog.Int64("channel_id", ch.ID),
			slog.String("error", respond.SanitizeError(err)))
		stats.ChannelErrors++
		metrics.RecordPollChannelError("watermark")
		return
	}

	logger.Info("channel processed",
		slog.Int64("channel_id", ch.ID),
		slog.String("external_id", ch.ExternalID),
		slog.Int("new_items", len(fresh)),
		slog.Int("notified", delivered))
}

func (o *Orchestrator) finish(logger *slog.Logger, span trace.Span, stats *RunStats, status string, err error) {
	stats.QuotaUsed = o.provider.QuotaUsed()
	stats.Duration = o.now().UTC().Sub(stats.StartedAt)
	stats.Status = status

	metrics.RecordPollRun(status, stats.Duration)
	metrics.RecordPollItems(stats.NewItems, stats.Notified)
	metrics.SetQuotaUsed(stats.QuotaUsed)

	span.SetAttributes(
		attribute.Int("poll.channels", stats.Channels),
		attribute.Int("poll.new_items", stats.NewItems),
		attribute.Int("poll.notified", stats.Notified),
		attribute.Int64("poll.quota_used", stats.QuotaUsed))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "poll run aborted")
		logger.Error("poll run aborted",
			slog.Duration("elapsed", stats.Duration),
			slog.Int64("provider_quota_used", stats.QuotaUsed),
			slog.String("error", respond.SanitizeError(err)))
		return
	}

	level := slog.LevelInfo
	if status == StatusInterrupted {
		level = slog.LevelWarn
	}
	logger.Log(context.Background(), level, "poll run completed",
		slog.String("status", status),
		slog.Int("channels", stats.Channels),
		slog.Int("channels_with_hits", stats.ChannelsWithHits),
		slog.Int("channel_errors", stats.ChannelErrors),
		slog.Int("new_items", stats.NewItems),
		slog.Int("notified", stats.Notified),
		slog.Duration("elapsed", stats.Duration),
		slog.Int64("provider_quota_used", stats.QuotaUsed))
}
