package controller

import (
	"context"
	"sync"
	"testing"
	"time"
)

type countingPoller struct {
	mu    sync.Mutex
	short int
	long  int
	ready chan struct{}
	once  sync.Once
}

func (p *countingPoller) OnShortInterval(context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.short++
	p.check()
}

func (p *countingPoller) OnLongInterval(context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.long++
	p.check()
}

// check closes ready once both timers have fired. Caller holds mu.
func (p *countingPoller) check() {
	if p.short > 0 && p.long > 0 {
		p.once.Do(func() { close(p.ready) })
	}
}

func TestScheduler(t *testing.T) {
	p := &countingPoller{ready: make(chan struct{})}
	s := NewScheduler(p, 5*time.Millisecond, 20*time.Millisecond)
	s.Start(context.Background())

	select {
	case <-p.ready:
	case <-time.After(5 * time.Second):
		t.Fatal("timers did not fire")
	}

	s.Stop()
	s.Stop()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.short < p.long {
		t.Errorf("short = %d, long = %d; short timer should fire at least as often", p.short, p.long)
	}
}

func TestSchedulerContextCancel(t *testing.T) {
	p := &countingPoller{ready: make(chan struct{})}
	s := NewScheduler(p, time.Hour, 2*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop() did not return after cancel")
	}
}
