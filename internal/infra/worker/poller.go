package worker

import (
	"log/slog"

	"channel-notifier/internal/infra/notifier"
	"channel-notifier/internal/infra/youtube"
	"channel-notifier/internal/observability/metrics"
	"channel-notifier/internal/observability/slo"
	"channel-notifier/internal/repository"
	"channel-notifier/internal/usecase/notify"
	"channel-notifier/internal/usecase/poll"
)

// Poller is the background polling stack shared by the API process and the
// headless worker. The provider client is built once and shared by the
// orchestrator, the status endpoint and channel registration.
type Poller struct {
	Provider     *youtube.Client
	Notify       *notify.Service
	Orchestrator *poll.Orchestrator
	Scheduler    *poll.Scheduler
	SLO          *slo.Tracker
}

// Stores are the repositories the poller reads and writes.
type Stores struct {
	Destinations repository.DestinationRepository
	Channels     repository.ChannelRepository
}

// NewPoller wires the provider client, the notifier and the scheduler from
// cfg. The scheduler is returned stopped.
func NewPoller(cfg *PollerConfig, apiKey string, stores Stores, logger *slog.Logger, ytOpts ...youtube.Option) *Poller {
	opts := []youtube.Option{
		youtube.WithLogger(logger),
		youtube.WithQuotaObserver(metrics.RecordQuotaCharge),
	}
	if cfg.ItemSource == SourceFeed {
		opts = append(opts, youtube.WithItemLister(youtube.NewFeedLister("", nil)))
	}
	provider := youtube.New(apiKey, append(opts, ytOpts...)...)

	var sender notifier.Sender
	if cfg.NotifyDryRun {
		sender = notifier.NewDryRunSender(logger)
	} else {
		ncfg := notifier.DefaultConfig()
		ncfg.RequestsPerSecond = cfg.NotifyRatePerSecond
		sender = notifier.NewRouter(ncfg)
	}
	notifySvc := notify.NewService(stores.Destinations, sender)

	orch := poll.NewOrchestrator(stores.Channels, provider, notifySvc, cfg.PollConfig())
	sched := poll.NewScheduler(orch, cfg.CheckInterval, logger)

	tracker := slo.NewTracker(slo.DefaultWindow)
	sched.OnRun(func(stats *poll.RunStats, err error) {
		var items, notified int
		if stats != nil {
			// 停止による中断は成功にも失敗にも数えない
			if stats.Status == poll.StatusInterrupted {
				return
			}
			items, notified = stats.NewItems, stats.Notified
		}
		tracker.Observe(err == nil, items, notified)
		metrics.SetQuotaUsed(provider.QuotaUsed())
	})

	logger.Info("poller configured",
		slog.Duration("check_interval", cfg.CheckInterval),
		slog.String("mode", string(cfg.Mode)),
		slog.String("item_source", cfg.ItemSource),
		slog.Bool("notify_dry_run", cfg.NotifyDryRun))

	return &Poller{
		Provider:     provider,
		Notify:       notifySvc,
		Orchestrator: orch,
		Scheduler:    sched,
		SLO:          tracker,
	}
}
