// Package notifier delivers new-upload messages to webhook destinations.
//
// A Sender posts one Message to one endpoint URL. SlackSender renders the
// three-section Block Kit layout, DiscordSender an embed with the same
// fields, and Router picks between them by endpoint host. DryRunSender logs
// instead of sending.
package notifier

import (
	"context"
	"time"

	"channel-notifier/internal/domain/entity"
)

// Message is one new-upload notification.
type Message struct {
	ChannelName string
	Item        entity.Item
}

// PublishedAt renders the upload time as an RFC 3339 UTC timestamp.
func (m Message) PublishedAt() string {
	return m.Item.PublishedAt.UTC().Format(time.RFC3339)
}

// Sender delivers a message to a webhook endpoint.
// Implementations handle rate limiting and retries internally and return
// nil only when the endpoint accepted the message.
type Sender interface {
	Send(ctx context.Context, endpointURL string, msg Message) error
}
