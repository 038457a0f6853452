package throttle

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Idle actions are garbage collected well after their window so an entry
// never vanishes while a window is still meaningful.
const (
	registryRetention = 24 * time.Hour
	registryJanitor   = time.Hour
)

// Registry holds one throttled action per key, created on first use.
// Used for the per-(pairExchangeId, granularity) histo refreshes, where
// the key space grows with the universe of pairs.
type Registry[T any] struct {
	window  time.Duration
	makeFn  func(key string) Func[T]
	mu      sync.Mutex
	actions *gocache.Cache
}

// NewRegistry creates a keyed registry of throttled actions sharing one
// window. makeFn builds the underlying action for a key.
func NewRegistry[T any](window time.Duration, makeFn func(key string) Func[T]) *Registry[T] {
	return &Registry[T]{
		window:  window,
		makeFn:  makeFn,
		actions: gocache.New(registryRetention, registryJanitor),
	}
}

// Do runs the throttled action for the key.
func (r *Registry[T]) Do(ctx context.Context, key string) (T, error) {
	r.mu.Lock()
	var action *Action[T]
	if v, found := r.actions.Get(key); found {
		action = v.(*Action[T])
	} else {
		action = New(r.window, r.makeFn(key))
	}
	// touch to keep active keys from being collected
	r.actions.SetDefault(key, action)
	r.mu.Unlock()

	return action.Do(ctx)
}

// Len returns the number of live keyed actions.
func (r *Registry[T]) Len() int {
	return r.actions.ItemCount()
}
