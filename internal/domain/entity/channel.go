package entity

import (
	"strings"
	"time"
)

// MaxHandleLength bounds Channel.ExternalHandle.
const MaxHandleLength = 30

// Channel is a monitored content source.
//
// LastCheckedAt is the watermark: an item is new only when it was published
// strictly after this instant. It starts at creation time and is moved by
// the poller alone.
type Channel struct {
	ID             int64
	DestinationID  int64
	ExternalID     string
	ExternalHandle string
	DisplayName    string
	LastCheckedAt  time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NormalizeHandle trims whitespace and a leading "@" from a user-entered handle.
func NormalizeHandle(handle string) string {
	return strings.TrimPrefix(strings.TrimSpace(handle), "@")
}

// ValidateHandle checks a handle after normalization.
func ValidateHandle(handle string) error {
	return ValidateLabel("external_handle", handle, MaxHandleLength)
}

// IsNew reports whether an item published at publishedAt has not been
// considered yet for this channel.
func (c *Channel) IsNew(publishedAt time.Time) bool {
	return publishedAt.After(c.LastCheckedAt)
}
