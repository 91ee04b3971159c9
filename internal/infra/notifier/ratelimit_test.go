package notifier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostRateLimiter_PerHostBuckets(t *testing.T) {
	l := NewHostRateLimiter(1, 1)

	require.NoError(t, l.Wait(context.Background(), "hooks.slack.com"))

	// a different host has its own full bucket
	start := time.Now()
	require.NoError(t, l.Wait(context.Background(), "discord.com"))
	assert.Less(t, time.Since(start), 100*time.Millisecond)
	assert.Equal(t, 2, l.Hosts())
}

func TestHostRateLimiter_BlocksUntilContextDone(t *testing.T) {
	l := NewHostRateLimiter(0.01, 1)
	require.NoError(t, l.Wait(context.Background(), "hooks.slack.com"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx, "hooks.slack.com"))
}
