package entity

import (
	"net/url"
	"time"
)

const watchURLBase = "https://www.youtube.com/watch"

// Item is one published upload returned by the content provider.
type Item struct {
	VideoID     string
	Title       string
	URL         string
	PublishedAt time.Time
}

// WatchURL builds the public watch link for a video id.
func WatchURL(videoID string) string {
	return watchURLBase + "?v=" + url.QueryEscape(videoID)
}

// FilterNewerThan returns the items published strictly after since, keeping order.
func FilterNewerThan(items []Item, since time.Time) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.PublishedAt.After(since) {
			out = append(out, it)
		}
	}
	return out
}
