// Package api implements the local status API of the node server.
//
// This package provides:
//   - REST endpoints for the latest inventory and the cycle history
//   - A WebSocket stream of completed discovery cycles
//   - Optional bearer token auth (see package auth)
//   - Middleware stack (request ID, logging, recovery)
//
// # Endpoints
//
//	GET /api/v1/health          liveness, no auth
//	GET /api/v1/inventory       latest cycle
//	GET /api/v1/cycles?limit=N  recent cycles, newest first
//	GET /api/v1/cycles/{id}     one cycle
//	GET /api/v1/ws              cycle events ("inventory.cycle")
//
// The Server is an inventory.Recorder: register it with the collector and
// every completed cycle becomes the latest inventory and is broadcast to
// WebSocket clients.
//
// # Graceful Degradation
//
// Without a history store the cycle endpoints answer 503; the latest
// inventory and the event stream still work.
package api
