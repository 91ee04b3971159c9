package notifier

import (
	"context"
	"net/http"

	textutil "channel-notifier/internal/utils/text"
)

// DiscordSender posts to Discord webhooks.
type DiscordSender struct {
	client *webhookClient
}

// NewDiscordSender builds a sender; Discord answers 204 No Content on success.
func NewDiscordSender(cfg Config, hc *http.Client, limiter *HostRateLimiter) *DiscordSender {
	return &DiscordSender{
		client: newWebhookClient("discord", cfg, hc, limiter, func(status int) bool {
			return status >= 200 && status < 300
		}),
	}
}

// DiscordWebhookPayload is the JSON body sent to the webhook.
type DiscordWebhookPayload struct {
	Content string         `json:"content"`
	Embeds  []DiscordEmbed `json:"embeds"`
}

// DiscordEmbed is a rich embed.
type DiscordEmbed struct {
	Title       string         `json:"title"`
	URL         string         `json:"url"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Footer      *DiscordFooter `json:"footer,omitempty"`
	Timestamp   string         `json:"timestamp"`
}

// DiscordFooter is the embed footer.
type DiscordFooter struct {
	Text string `json:"text"`
}

const (
	maxEmbedTitleLength   = 256
	maxEmbedContentLength = 2000
	// YouTube red.
	embedColor = 0xFF0000
)

func buildDiscordPayload(msg Message) DiscordWebhookPayload {
	return DiscordWebhookPayload{
		Content: textutil.Truncate("New video uploaded! Channel: "+msg.ChannelName, maxEmbedContentLength, truncationSuffix),
		Embeds: []DiscordEmbed{{
			Title:     textutil.Truncate(msg.Item.Title, maxEmbedTitleLength, truncationSuffix),
			URL:       msg.Item.URL,
			Color:     embedColor,
			Footer:    &DiscordFooter{Text: "Upload time: " + msg.PublishedAt()},
			Timestamp: msg.PublishedAt(),
		}},
	}
}

// Send posts msg to endpointURL.
func (d *DiscordSender) Send(ctx context.Context, endpointURL string, msg Message) error {
	return d.client.deliver(ctx, endpointURL, buildDiscordPayload(msg))
}
