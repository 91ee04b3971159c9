package notify

import "errors"

// Sentinel errors for the delivery path. Deliver never returns them; they are
// logged with each failed delivery.
var (
	// ErrDestinationNotFound indicates the channel points at a destination
	// that no longer exists.
	ErrDestinationNotFound = errors.New("destination not found")

	// ErrInvalidChannel indicates Deliver was called with a nil channel.
	ErrInvalidChannel = errors.New("invalid channel")

	// ErrCircuitBreakerOpen indicates the destination's breaker rejected the
	// delivery after repeated failures.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open for this destination")
)
