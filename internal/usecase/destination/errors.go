// Package destination provides use cases for managing webhook destinations.
// It validates user input and guards deletion of destinations that channels
// still reference.
package destination

import "errors"

// Sentinel errors for destination use case operations.
var (
	// ErrDestinationNotFound indicates that the requested destination was not found.
	ErrDestinationNotFound = errors.New("destination not found")

	// ErrDestinationInUse indicates that at least one channel still references
	// the destination. Channels must be deleted first.
	ErrDestinationInUse = errors.New("destination cannot be deleted while channels reference it")
)
