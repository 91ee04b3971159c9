package notifier

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	textutil "channel-notifier/internal/utils/text"
)

// SlackSender posts to Slack Incoming Webhooks.
type SlackSender struct {
	client *webhookClient
}

// NewSlackSender builds a sender. A nil limiter gets a private one; pass a
// shared limiter when Slack and Discord senders run side by side.
func NewSlackSender(cfg Config, hc *http.Client, limiter *HostRateLimiter) *SlackSender {
	return &SlackSender{
		// Slack answers "ok" with 200; anything else is a failure.
		client: newWebhookClient("slack", cfg, hc, limiter, func(status int) bool { return status == http.StatusOK }),
	}
}

// SlackWebhookPayload is the Block Kit body sent to the webhook.
type SlackWebhookPayload struct {
	Text   string       `json:"text"`   // notification fallback
	Blocks []SlackBlock `json:"blocks"` // rich layout
}

// SlackBlock is a Block Kit block.
type SlackBlock struct {
	Type string           `json:"type"`
	Text *SlackTextObject `json:"text,omitempty"`
}

// SlackTextObject is a Block Kit text object.
type SlackTextObject struct {
	Type string `json:"type"` // "mrkdwn" or "plain_text"
	Text string `json:"text"`
}

const (
	maxSectionTextLength = 3000
	maxFallbackLength    = 150
	truncationSuffix     = "..."
)

// mrkdwnEscaper escapes the characters Slack treats as control sequences.
var mrkdwnEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// buildSlackPayload renders the three sections: a header naming the channel,
// the linked title and the upload time.
func buildSlackPayload(msg Message) SlackWebhookPayload {
	name := mrkdwnEscaper.Replace(msg.ChannelName)
	title := strings.ReplaceAll(mrkdwnEscaper.Replace(msg.Item.Title), "|", "¦")

	section := func(text string) SlackBlock {
		return SlackBlock{
			Type: "section",
			Text: &SlackTextObject{Type: "mrkdwn", Text: textutil.Truncate(text, maxSectionTextLength, truncationSuffix)},
		}
	}

	return SlackWebhookPayload{
		Text: textutil.Truncate(fmt.Sprintf("New video from %s: %s", msg.ChannelName, msg.Item.Title), maxFallbackLength, truncationSuffix),
		Blocks: []SlackBlock{
			section(fmt.Sprintf("New video uploaded!\nChannel: %s", name)),
			section(fmt.Sprintf("Title: <%s|%s>", msg.Item.URL, title)),
			section(fmt.Sprintf("Upload time: %s", msg.PublishedAt())),
		},
	}
}

// Send posts msg to endpointURL.
func (s *SlackSender) Send(ctx context.Context, endpointURL string, msg Message) error {
	return s.client.deliver(ctx, endpointURL, buildSlackPayload(msg))
}
