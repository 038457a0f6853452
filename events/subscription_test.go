package events

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitReachesAllSubscribers(t *testing.T) {
	manager := NewSubscriptionManager()

	subs := make([]ISubscription, 3)
	for i := range subs {
		subs[i] = manager.Subscribe()
	}

	manager.Emit(context.Background())

	for i, sub := range subs {
		select {
		case <-sub.Chan():
		case <-time.After(time.Second):
			t.Fatalf("subscriber %d never notified", i)
		}
	}
}

func TestEmitCoalescesWhenSubscriberIsSlow(t *testing.T) {
	manager := NewSubscriptionManager()
	sub := manager.Subscribe()

	ctx := context.Background()
	manager.Emit(ctx)
	manager.Emit(ctx)
	manager.Emit(ctx)

	<-sub.Chan()
	select {
	case <-sub.Chan():
		t.Fatal("burst was not coalesced into one pending notification")
	default:
	}
}

func TestCancelClosesChannelOnce(t *testing.T) {
	manager := NewSubscriptionManager()
	sub := manager.Subscribe()

	sub.Cancel()
	sub.Cancel()

	_, open := <-sub.Chan()
	assert.False(t, open)

	// emitting after cancel must not panic on the closed channel
	manager.Emit(context.Background())
}

func TestWatchInvokesCallback(t *testing.T) {
	manager := NewSubscriptionManager()

	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager.Subscribe().Watch(ctx, func() { calls.Add(1) }, true)
	require.Equal(t, int32(1), calls.Load(), "callNow fires synchronously")

	manager.Emit(ctx)
	require.Eventually(t, func() bool { return calls.Load() == 2 },
		time.Second, 5*time.Millisecond)
}
