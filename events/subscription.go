// Package events is a small fan-out primitive: one emitter, many
// subscribers, at-most-one pending notification per subscriber. It backs
// the pairs-updated signal between the refresh engine and the live
// pipeline.
package events

import (
	"context"
	"sync"
)

// ISubscription is one subscriber's handle on an event source.
type ISubscription interface {
	// Chan returns the notification channel for callers draining it
	// themselves.
	Chan() <-chan struct{}
	// Cancel unsubscribes and closes the channel. Safe for repeated calls.
	Cancel()
	// Watch runs cb on every event from a background goroutine, calling it
	// immediately first when callNow is set. The subscription dies with
	// parentCtx.
	Watch(parentCtx context.Context, cb func(), callNow bool) ISubscription
}

// Subscription is the concrete handle handed out by SubscriptionManager.
type Subscription struct {
	ch     chan struct{}
	mgr    *SubscriptionManager
	cancel context.CancelFunc
	once   sync.Once
}

func (s *Subscription) Chan() <-chan struct{} { return s.ch }

func (s *Subscription) Cancel() {
	s.once.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		s.mgr.unsubscribe(s.ch)
	})
}

func (s *Subscription) Watch(parentCtx context.Context, cb func(), callNow bool) ISubscription {
	ctx, cancel := context.WithCancel(parentCtx)
	s.cancel = cancel

	if callNow {
		cb()
	}

	go func() {
		defer s.Cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-s.ch:
				if !ok {
					return
				}
				cb()
			}
		}
	}()

	return s
}

// SubscriptionManager tracks live subscriptions and fans events out to
// them.
type SubscriptionManager struct {
	mu          sync.RWMutex
	subscribers map[chan struct{}]struct{}
}

func NewSubscriptionManager() *SubscriptionManager {
	return &SubscriptionManager{
		subscribers: make(map[chan struct{}]struct{}),
	}
}

// Subscribe registers a new subscriber. Its channel holds at most one
// pending notification; bursts coalesce.
func (m *SubscriptionManager) Subscribe() ISubscription {
	ch := make(chan struct{}, 1)

	m.mu.Lock()
	m.subscribers[ch] = struct{}{}
	m.mu.Unlock()

	return &Subscription{ch: ch, mgr: m}
}

func (m *SubscriptionManager) unsubscribe(ch chan struct{}) {
	m.mu.Lock()
	if _, ok := m.subscribers[ch]; ok {
		delete(m.subscribers, ch)
		close(ch)
	}
	m.mu.Unlock()
}

// Emit notifies every subscriber without blocking: a subscriber that has
// not drained its previous notification keeps a single pending one.
func (m *SubscriptionManager) Emit(ctx context.Context) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for sub := range m.subscribers {
		if ctx.Err() != nil {
			return
		}
		select {
		case sub <- struct{}{}:
		default:
		}
	}
}
