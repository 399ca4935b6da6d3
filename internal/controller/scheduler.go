package controller

import (
	"context"
	"sync"
	"time"
)

// Poller receives timer events. Implemented by *Controller.
type Poller interface {
	OnShortInterval(ctx context.Context)
	OnLongInterval(ctx context.Context)
}

// Scheduler drives a Poller from local timers, for hosts that do not send
// shortPoll and longPoll events.
type Scheduler struct {
	poller Poller
	short  time.Duration
	long   time.Duration

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewScheduler creates a scheduler. Call Start to begin.
func NewScheduler(poller Poller, short, long time.Duration) *Scheduler {
	return &Scheduler{
		poller: poller,
		short:  short,
		long:   long,
		done:   make(chan struct{}),
	}
}

// Start launches the timer loop. It runs until ctx is cancelled or Stop is
// called.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.loop(ctx)
}

// Stop ends the timer loop and waits for it to exit.
// Safe to call multiple times.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	shortTicker := time.NewTicker(s.short)
	defer shortTicker.Stop()
	longTicker := time.NewTicker(s.long)
	defer longTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-shortTicker.C:
			s.poller.OnShortInterval(ctx)
		case <-longTicker.C:
			s.poller.OnLongInterval(ctx)
		}
	}
}
