package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"channel-notifier/internal/domain/entity"
	"channel-notifier/internal/resilience/retry"

	"github.com/mmcdole/gofeed"
)

// DefaultFeedBaseURL serves the public Atom feed of a channel's uploads.
const DefaultFeedBaseURL = "https://www.youtube.com/feeds/videos.xml"

// ItemLister returns the most recent uploads of one channel, newest first.
type ItemLister interface {
	ListRecent(ctx context.Context, up Uploads, max int) ([]entity.Item, error)
	// NeedsPlaylist reports whether Uploads.PlaylistID must be resolved
	// through channels.list before ListRecent can run.
	NeedsPlaylist() bool
}

// APILister lists uploads through playlistItems.list at 1 unit per channel.
type APILister struct {
	client *Client
}

func (l *APILister) NeedsPlaylist() bool { return true }

func (l *APILister) ListRecent(ctx context.Context, up Uploads, max int) ([]entity.Item, error) {
	params := url.Values{
		"part":       {"snippet"},
		"playlistId": {up.PlaylistID},
		"maxResults": {strconv.Itoa(max)},
	}
	var resp playlistItemListResponse
	if err := l.client.get(ctx, "playlistItems", params, CostList, &resp); err != nil {
		return nil, err
	}

	items := make([]entity.Item, 0, len(resp.Items))
	for _, it := range resp.Items {
		published, err := time.Parse(time.RFC3339, it.Snippet.PublishedAt)
		if err != nil {
			return nil, fmt.Errorf("parse publishedAt %q: %w", it.Snippet.PublishedAt, err)
		}
		videoID := it.Snippet.ResourceID.VideoID
		items = append(items, entity.Item{
			VideoID:     videoID,
			Title:       it.Snippet.Title,
			URL:         entity.WatchURL(videoID),
			PublishedAt: published.UTC(),
		})
	}
	return items, nil
}

// FeedLister reads the channel's public Atom feed with gofeed. It needs no
// playlist lookup and spends no quota.
type FeedLister struct {
	baseURL     string
	client      *http.Client
	retryConfig retry.Config
}

// NewFeedLister builds a lister; an empty baseURL selects DefaultFeedBaseURL.
func NewFeedLister(baseURL string, hc *http.Client) *FeedLister {
	if baseURL == "" {
		baseURL = DefaultFeedBaseURL
	}
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &FeedLister{baseURL: baseURL, client: hc, retryConfig: retry.ProviderAPIConfig()}
}

func (l *FeedLister) NeedsPlaylist() bool { return false }

func (l *FeedLister) ListRecent(ctx context.Context, up Uploads, max int) ([]entity.Item, error) {
	feedURL := l.baseURL + "?channel_id=" + url.QueryEscape(up.ChannelID)

	var feed *gofeed.Feed
	err := retry.WithBackoff(ctx, l.retryConfig, func() error {
		fp := gofeed.NewParser()
		fp.UserAgent = "ChannelNotifierBot"
		fp.Client = l.client

		var err error
		feed, err = fp.ParseURLWithContext(feedURL, ctx)
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return &retry.HTTPError{StatusCode: httpErr.StatusCode, Message: httpErr.Status}
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("feed %s: %w", up.ChannelID, err)
	}

	items := make([]entity.Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it.PublishedParsed == nil {
			continue
		}
		videoID := ""
		if ext, ok := it.Extensions["yt"]["videoId"]; ok && len(ext) > 0 {
			videoID = ext[0].Value
		}
		link := it.Link
		if videoID != "" {
			link = entity.WatchURL(videoID)
		}
		items = append(items, entity.Item{
			VideoID:     videoID,
			Title:       it.Title,
			URL:         link,
			PublishedAt: it.PublishedParsed.UTC(),
		})
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].PublishedAt.After(items[j].PublishedAt) })
	if len(items) > max {
		items = items[:max]
	}
	return items, nil
}
