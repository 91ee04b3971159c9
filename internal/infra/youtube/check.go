package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"channel-notifier/internal/domain/entity"

	"golang.org/x/sync/errgroup"
)

// CheckNewSingle lists the recent uploads of one channel and keeps those
// published strictly after since.
func (c *Client) CheckNewSingle(ctx context.Context, externalID string, since time.Time) ([]entity.Item, error) {
	up := Uploads{ChannelID: externalID}
	if c.lister.NeedsPlaylist() {
		mapping, err := c.resolveUploads(ctx, []string{externalID})
		if err != nil {
			return nil, fmt.Errorf("check %s: %w", externalID, err)
		}
		playlist, ok := mapping[externalID]
		if !ok {
			return nil, fmt.Errorf("check %s: uploads collection: %w", externalID, ErrChannelNotFound)
		}
		up.PlaylistID = playlist
	}

	items, err := c.lister.ListRecent(ctx, up, c.recentItems)
	if err != nil {
		return nil, fmt.Errorf("check %s: %w", externalID, err)
	}
	return entity.FilterNewerThan(items, since), nil
}

// CheckNewBatch checks several channels at once.
//
// Upload collections are resolved with one channels.list call per 50 ids; if
// that resolution fails the whole batch fails. Items are then listed per
// channel; a channel whose collection is unknown or whose listing fails is
// logged and left out of the result. Channels that were checked successfully
// are present in the result even when no item is newer than since.
func (c *Client) CheckNewBatch(ctx context.Context, externalIDs []string, since time.Time) (map[string][]entity.Item, error) {
	ids := dedupe(externalIDs)
	result := make(map[string][]entity.Item, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	uploads := make([]Uploads, 0, len(ids))
	if c.lister.NeedsPlaylist() {
		mapping, err := c.resolveUploads(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("check batch: %w", err)
		}
		for _, id := range ids {
			playlist, ok := mapping[id]
			if !ok {
				c.logger.Warn("uploads collection not found, channel skipped",
					slog.String("channel_id", id))
				continue
			}
			uploads = append(uploads, Uploads{ChannelID: id, PlaylistID: playlist})
		}
	} else {
		for _, id := range ids {
			uploads = append(uploads, Uploads{ChannelID: id})
		}
	}

	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(c.concurrency)
	for _, up := range uploads {
		g.Go(func() error {
			items, err := c.lister.ListRecent(ctx, up, c.recentItems)
			if err != nil {
				c.logger.Error("list recent uploads failed, channel skipped",
					slog.String("channel_id", up.ChannelID),
					slog.String("error", redactKey(err.Error(), c.apiKey)))
				return nil
			}
			fresh := entity.FilterNewerThan(items, since)
			mu.Lock()
			result[up.ChannelID] = fresh
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return result, nil
}

// resolveUploads maps channel ids to their uploads playlist ids.
func (c *Client) resolveUploads(ctx context.Context, ids []string) (map[string]string, error) {
	mapping := make(map[string]string, len(ids))
	for start := 0; start < len(ids); start += maxIDsPerRequest {
		end := min(start+maxIDsPerRequest, len(ids))
		params := url.Values{
			"part":       {"contentDetails"},
			"id":         {strings.Join(ids[start:end], ",")},
			"maxResults": {strconv.Itoa(maxIDsPerRequest)},
		}
		var resp channelListResponse
		if err := c.get(ctx, "channels", params, CostList, &resp); err != nil {
			return nil, fmt.Errorf("resolve uploads: %w", err)
		}
		for _, item := range resp.Items {
			if p := item.ContentDetails.RelatedPlaylists.Uploads; p != "" {
				mapping[item.ID] = p
			}
		}
	}
	return mapping, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
