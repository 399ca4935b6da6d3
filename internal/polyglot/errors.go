package polyglot

import "errors"

// Domain-specific errors for the Polyglot interface.
var (
	// ErrNotConnected is returned when a message cannot be sent because the
	// broker connection is down.
	ErrNotConnected = errors.New("polyglot: not connected")

	// ErrInvalidMessage is returned for inbound payloads that are not JSON objects.
	ErrInvalidMessage = errors.New("polyglot: invalid message")
)
