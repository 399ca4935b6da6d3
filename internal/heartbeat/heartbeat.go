package heartbeat

import "sync"

// Heartbeat commands reported to the host.
const (
	CommandOn  = "DON"
	CommandOff = "DOF"
)

// Pulser reports a command from a node to the host.
// This is typically implemented by the Polyglot interface.
type Pulser interface {
	ReportCommand(address, command string) error
}

// Logger interface for optional logging support.
type Logger interface {
	Warn(msg string, args ...any)
}

// Toggler emits an alternating DON/DOF pulse so the host can tell the node
// server is alive.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Toggler struct {
	pulser  Pulser
	address string
	logger  Logger

	mu    sync.Mutex
	state int
}

// New creates a toggler for the node at address, starting in state 0.
func New(pulser Pulser, address string) *Toggler {
	return &Toggler{pulser: pulser, address: address}
}

// SetLogger sets the logger for pulse failures.
func (t *Toggler) SetLogger(logger Logger) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.logger = logger
}

// Init forces the state. The next Tick emits DON when v is 0 and DOF
// otherwise.
func (t *Toggler) Init(v int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = normalize(v)
}

// Tick emits one pulse and flips the state.
//
// The state flips even when the report fails; the failure is logged and
// the next tick carries on from the new state.
func (t *Toggler) Tick() {
	t.mu.Lock()
	defer t.mu.Unlock()

	cmd := CommandOn
	if t.state == 1 {
		cmd = CommandOff
	}
	t.state = 1 - t.state

	if err := t.pulser.ReportCommand(t.address, cmd); err != nil && t.logger != nil {
		t.logger.Warn("heartbeat pulse failed", "command", cmd, "error", err)
	}
}

// State returns the current state, 0 or 1.
func (t *Toggler) State() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func normalize(v int) int {
	if v == 0 {
		return 0
	}
	return 1
}
