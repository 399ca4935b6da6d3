package heartbeat

import (
	"errors"
	"testing"
)

type fakePulser struct {
	commands []string
	address  string
	err      error
}

func (p *fakePulser) ReportCommand(address, command string) error {
	p.address = address
	p.commands = append(p.commands, command)
	return p.err
}

type fakeLogger struct {
	warnings int
}

func (l *fakeLogger) Warn(string, ...any) { l.warnings++ }

func TestTickAlternates(t *testing.T) {
	p := &fakePulser{}
	tg := New(p, "controller")
	tg.Init(0)

	for range 4 {
		tg.Tick()
	}

	want := []string{"DON", "DOF", "DON", "DOF"}
	if len(p.commands) != len(want) {
		t.Fatalf("commands = %v, want %v", p.commands, want)
	}
	for i := range want {
		if p.commands[i] != want[i] {
			t.Errorf("commands[%d] = %s, want %s", i, p.commands[i], want[i])
		}
	}
	if p.address != "controller" {
		t.Errorf("address = %q, want controller", p.address)
	}
	if tg.State() != 0 {
		t.Errorf("State() = %d after even ticks, want 0", tg.State())
	}
}

func TestInit(t *testing.T) {
	tests := []struct {
		init      int
		wantFirst string
		wantState int
	}{
		{0, CommandOn, 1},
		{1, CommandOff, 0},
		{7, CommandOff, 0},
	}

	for _, tt := range tests {
		p := &fakePulser{}
		tg := New(p, "controller")
		tg.Init(tt.init)
		tg.Tick()

		if p.commands[0] != tt.wantFirst {
			t.Errorf("Init(%d) first Tick() = %s, want %s", tt.init, p.commands[0], tt.wantFirst)
		}
		if tg.State() != tt.wantState {
			t.Errorf("Init(%d) State() = %d, want %d", tt.init, tg.State(), tt.wantState)
		}
	}
}

func TestInitResetsMidSequence(t *testing.T) {
	p := &fakePulser{}
	tg := New(p, "controller")
	tg.Tick() // DON, state 1
	tg.Init(0)
	tg.Tick()

	if p.commands[1] != CommandOn {
		t.Errorf("Tick() after Init(0) = %s, want DON", p.commands[1])
	}
}

func TestTickFailureLoggedAndStateAdvances(t *testing.T) {
	p := &fakePulser{err: errors.New("not connected")}
	logger := &fakeLogger{}
	tg := New(p, "controller")
	tg.SetLogger(logger)

	tg.Tick()
	tg.Tick()

	if logger.warnings != 2 {
		t.Errorf("warnings = %d, want 2", logger.warnings)
	}
	if p.commands[1] != CommandOff {
		t.Errorf("second Tick() = %s, want DOF", p.commands[1])
	}
}
