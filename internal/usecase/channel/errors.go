// Package channel provides use cases for registering monitored channels.
// Registration resolves the user-entered handle through the content provider
// before storing the channel.
package channel

import "errors"

// Sentinel errors for channel use case operations.
var (
	// ErrChannelNotFound indicates that the requested channel was not found.
	ErrChannelNotFound = errors.New("channel not found")

	// ErrDestinationNotFound indicates that the destination named in a
	// registration does not exist.
	ErrDestinationNotFound = errors.New("destination not found")

	// ErrHandleAlreadyRegistered indicates that a channel with the same
	// handle is already registered.
	ErrHandleAlreadyRegistered = errors.New("channel with this handle already exists")

	// ErrChannelAlreadyRegistered indicates that the handle resolved to a
	// channel that is already registered under another handle.
	ErrChannelAlreadyRegistered = errors.New("channel with this external id already exists")

	// ErrResolveFailed indicates that the provider could not resolve the handle.
	ErrResolveFailed = errors.New("channel not found on provider")
)
