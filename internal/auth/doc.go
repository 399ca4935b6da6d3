// Package auth issues and verifies the bearer tokens that guard the status
// API.
//
// Tokens are HS256 JWTs signed with the configured api.auth.jwt_secret.
// There are no users or sessions: any token signed with the secret and not
// yet expired is accepted, and its subject is logged with each request.
package auth
