package inventory

import "errors"

// Domain-specific errors for discovery cycles.
var (
	// ErrHostUnknown is returned when no ISY host address is configured.
	// The cycle is skipped and no driver slot is touched.
	ErrHostUnknown = errors.New("inventory: ISY host address not configured")

	// ErrPublishFailed is returned when counts could not be written to the host.
	ErrPublishFailed = errors.New("inventory: publish failed")

	// ErrNotFound is returned when a history record does not exist.
	ErrNotFound = errors.New("inventory: cycle not found")
)
