// Package heartbeat implements the controller node's liveness pulse:
// alternating DON and DOF commands sent on the long poll.
package heartbeat
