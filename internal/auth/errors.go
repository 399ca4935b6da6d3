package auth

import "errors"

// Token errors.
var (
	// ErrTokenInvalid indicates a malformed token, a bad signature or
	// missing claims.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrTokenExpired indicates a well-formed token past its expiry.
	ErrTokenExpired = errors.New("token has expired")
)
