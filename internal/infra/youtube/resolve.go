package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// canonicalPrefix marks a handle that already is a channel id.
const canonicalPrefix = "UC"

// Resolve maps a handle to the channel id and its current title.
//
// A leading "@" is ignored. Ids ("UC...") are looked up directly; anything
// else is tried as a legacy username and then, at 100 units, as a free-text
// channel search whose first hit wins. Every failure, including transport
// errors, matches ErrChannelNotFound.
func (c *Client) Resolve(ctx context.Context, handle string) (ChannelInfo, error) {
	clean := strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if clean == "" {
		return ChannelInfo{}, fmt.Errorf("resolve %q: %w", handle, ErrChannelNotFound)
	}

	if strings.HasPrefix(clean, canonicalPrefix) {
		info, ok, err := c.lookupChannel(ctx, url.Values{"id": {clean}})
		return c.resolved(handle, "id", info, ok, err)
	}

	info, ok, err := c.lookupChannel(ctx, url.Values{"forUsername": {clean}})
	if err != nil || ok {
		return c.resolved(handle, "username", info, ok, err)
	}

	info, ok, err = c.searchChannel(ctx, handle)
	return c.resolved(handle, "search", info, ok, err)
}

func (c *Client) resolved(handle, via string, info ChannelInfo, ok bool, err error) (ChannelInfo, error) {
	if err != nil {
		return ChannelInfo{}, fmt.Errorf("resolve %q: %w: %w", handle, ErrChannelNotFound, err)
	}
	if !ok {
		return ChannelInfo{}, fmt.Errorf("resolve %q: %w", handle, ErrChannelNotFound)
	}
	c.logger.Info("channel resolved",
		slog.String("handle", handle),
		slog.String("via", via),
		slog.String("channel_id", info.ExternalID))
	return info, nil
}

func (c *Client) lookupChannel(ctx context.Context, params url.Values) (ChannelInfo, bool, error) {
	params.Set("part", "id,snippet")
	var resp channelListResponse
	if err := c.get(ctx, "channels", params, CostList, &resp); err != nil {
		return ChannelInfo{}, false, err
	}
	if len(resp.Items) == 0 || resp.Items[0].ID == "" {
		return ChannelInfo{}, false, nil
	}
	item := resp.Items[0]
	return ChannelInfo{ExternalID: item.ID, DisplayName: item.Snippet.Title}, true, nil
}

func (c *Client) searchChannel(ctx context.Context, query string) (ChannelInfo, bool, error) {
	params := url.Values{
		"part":       {"snippet"},
		"type":       {"channel"},
		"maxResults": {"1"},
		"q":          {query},
	}
	var resp searchListResponse
	if err := c.get(ctx, "search", params, CostSearch, &resp); err != nil {
		return ChannelInfo{}, false, err
	}
	if len(resp.Items) == 0 {
		return ChannelInfo{}, false, nil
	}
	item := resp.Items[0]
	id := item.ID.ChannelID
	if id == "" {
		id = item.Snippet.ChannelID
	}
	if id == "" {
		return ChannelInfo{}, false, nil
	}
	return ChannelInfo{ExternalID: id, DisplayName: item.Snippet.Title}, true, nil
}
