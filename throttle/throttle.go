// Package throttle implements the shared, window-bounded,
// error-invalidating action primitive the refresh engine is built on.
//
// Throttle state is in-process; a multi-instance deployment would need to
// promote it into the store.
package throttle

import (
	"context"
	"sync"
	"time"
)

// Func is the underlying action being throttled.
type Func[T any] func(ctx context.Context) (T, error)

type call[T any] struct {
	done     chan struct{}
	finished bool
	val      T
	err      error
}

// Action wraps a Func so that at most one invocation begins per window.
// Calls landing inside the window observe the in-flight or just-completed
// invocation. A failed invocation invalidates the window: the next call
// re-attempts immediately.
type Action[T any] struct {
	window time.Duration
	fn     Func[T]
	now    func() time.Time

	mu    sync.Mutex
	cur   *call[T]
	start time.Time
}

// New creates a throttled action with the given window.
func New[T any](window time.Duration, fn Func[T]) *Action[T] {
	return &Action[T]{window: window, fn: fn, now: time.Now}
}

// Do returns the result of the current window's invocation, starting one
// if needed. Cancelling ctx abandons the wait but never the invocation
// itself, which other callers may still be observing.
func (a *Action[T]) Do(ctx context.Context) (T, error) {
	a.mu.Lock()
	c := a.cur
	if c == nil || a.expiredLocked(c) {
		c = &call[T]{done: make(chan struct{})}
		a.cur = c
		a.start = a.now()
		go a.run(c, context.WithoutCancel(ctx))
	}
	a.mu.Unlock()

	select {
	case <-c.done:
		return c.val, c.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// expiredLocked reports whether a new invocation must start. In-flight
// calls are never expired: concurrent callers coalesce onto them.
func (a *Action[T]) expiredLocked(c *call[T]) bool {
	if !c.finished {
		return false
	}
	if c.err != nil {
		return true
	}
	return a.now().Sub(a.start) >= a.window
}

func (a *Action[T]) run(c *call[T], ctx context.Context) {
	val, err := a.fn(ctx)
	a.mu.Lock()
	c.val, c.err = val, err
	c.finished = true
	a.mu.Unlock()
	close(c.done)
}
