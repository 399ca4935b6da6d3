package isy

import (
	"errors"
	"fmt"
)

// Domain-specific errors for ISY REST access.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnreachable is returned when the ISY cannot be reached at all
	// (DNS failure, connection refused, timeout).
	ErrUnreachable = errors.New("isy: unreachable")

	// ErrRemoteRejected is returned when the ISY answers with a status other than 200.
	ErrRemoteRejected = errors.New("isy: request rejected")

	// ErrBodyTooLarge is returned when a response is larger than the client
	// reads.
	ErrBodyTooLarge = errors.New("isy: response body too large")

	// ErrMalformedXML is returned when a successfully fetched body cannot be parsed.
	ErrMalformedXML = errors.New("isy: malformed XML")
)

// FailureKind distinguishes the ways a fetch can fail.
type FailureKind int

const (
	// Unreachable means no HTTP response was received.
	Unreachable FailureKind = iota
	// RemoteRejected means the ISY responded with a non-200 status.
	RemoteRejected
	// TooLarge means the response body exceeded the read limit.
	TooLarge
)

// FetchError describes a failed fetch of one endpoint.
//
// It matches ErrUnreachable, ErrRemoteRejected or ErrBodyTooLarge through
// errors.Is.
type FetchError struct {
	Kind     FailureKind
	Endpoint Endpoint
	Status   int    // RemoteRejected only
	Body     []byte // RemoteRejected only
	Err      error  // Unreachable only
	Limit    int64  // TooLarge only
}

// Error implements error.
func (e *FetchError) Error() string {
	switch e.Kind {
	case RemoteRejected:
		return fmt.Sprintf("isy: %s rejected with status %d: %s", e.Endpoint, e.Status, truncate(e.Body, maxErrorBody))
	case TooLarge:
		return fmt.Sprintf("isy: %s response body exceeds %d bytes", e.Endpoint, e.Limit)
	}
	return fmt.Sprintf("isy: %s unreachable: %v", e.Endpoint, e.Err)
}

// Is reports whether target is the sentinel for this failure kind.
func (e *FetchError) Is(target error) bool {
	switch target {
	case ErrUnreachable:
		return e.Kind == Unreachable
	case ErrRemoteRejected:
		return e.Kind == RemoteRejected
	case ErrBodyTooLarge:
		return e.Kind == TooLarge
	}
	return false
}

// Unwrap returns the transport error, if any.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// maxErrorBody bounds how much of a rejected body ends up in error strings.
const maxErrorBody = 256

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
