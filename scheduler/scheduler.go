// Package scheduler runs one job on a fixed period. Every recurrent
// pipeline (prefetch, stats batch, market-cap sync) hangs off it.
package scheduler

import (
	"context"
	"sync"
	"time"
)

// Scheduler drives a single periodic job. Start and Stop are idempotent.
type Scheduler struct {
	interval time.Duration
	job      func(context.Context)

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func New(interval time.Duration, job func(context.Context)) *Scheduler {
	return &Scheduler{
		interval: interval,
		job:      job,
	}
}

// Start launches the periodic loop. With runNow set, the job executes
// once before the first tick.
func (s *Scheduler) Start(ctx context.Context, runNow bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if runNow {
			s.job(ctx)
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.job(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels the loop and waits for an in-flight job run to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.running = false
}

// IsRunning reports whether the loop is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
