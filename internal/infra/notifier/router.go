package notifier

import (
	"context"
	"net/url"
	"strings"
)

// Router sends Discord webhook URLs to the Discord sender and everything
// else to the Slack sender.
type Router struct {
	Slack   Sender
	Discord Sender
}

// NewRouter builds a Router whose senders share one per-host rate limiter.
func NewRouter(cfg Config) *Router {
	limiter := NewHostRateLimiter(cfg.RequestsPerSecond, cfg.Burst)
	return &Router{
		Slack:   NewSlackSender(cfg, nil, limiter),
		Discord: NewDiscordSender(cfg, nil, limiter),
	}
}

// Send implements Sender.
func (r *Router) Send(ctx context.Context, endpointURL string, msg Message) error {
	if IsDiscordURL(endpointURL) && r.Discord != nil {
		return r.Discord.Send(ctx, endpointURL, msg)
	}
	return r.Slack.Send(ctx, endpointURL, msg)
}

// IsDiscordURL reports whether endpointURL is a Discord webhook.
func IsDiscordURL(endpointURL string) bool {
	u, err := url.Parse(endpointURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range []string{"discord.com", "discordapp.com"} {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
