package notifier

import (
	"time"

	"channel-notifier/internal/domain/entity"
	"channel-notifier/internal/resilience/retry"
)

func testMessage() Message {
	return Message{
		ChannelName: "Gophers",
		Item: entity.Item{
			VideoID:     "abc123",
			Title:       "Generics in practice",
			URL:         "https://www.youtube.com/watch?v=abc123",
			PublishedAt: time.Date(2025, 11, 15, 12, 0, 0, 0, time.UTC),
		},
	}
}

// fastConfig keeps rate limiting and backoff out of the way in tests.
func fastConfig() Config {
	return Config{
		Timeout:           2 * time.Second,
		RequestsPerSecond: 1000,
		Burst:             100,
		Retry: retry.Config{
			MaxAttempts:  2,
			InitialDelay: 10 * time.Millisecond,
			MaxDelay:     20 * time.Millisecond,
			Multiplier:   1,
		},
	}
}
