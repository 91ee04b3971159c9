package notifier

import (
	"context"
	"log/slog"
)

// DryRunSender logs each message instead of sending it and always succeeds.
type DryRunSender struct {
	logger *slog.Logger
}

// NewDryRunSender returns a DryRunSender logging to logger (slog.Default if nil).
func NewDryRunSender(logger *slog.Logger) *DryRunSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &DryRunSender{logger: logger}
}

// Send implements Sender.
func (d *DryRunSender) Send(ctx context.Context, endpointURL string, msg Message) error {
	d.logger.Info("dry run: notification not sent",
		slog.String("request_id", requestIDFrom(ctx)),
		slog.Bool("discord", IsDiscordURL(endpointURL)),
		slog.String("channel", msg.ChannelName),
		slog.String("video_url", msg.Item.URL),
		slog.String("published_at", msg.PublishedAt()))
	return nil
}
