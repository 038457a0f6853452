package provider

import (
	"log"
	"sync"
	"sync/atomic"

	"github.com/countervalue/market-cache/metrics"
)

// MaxWebsocket caps concurrent provider subscriptions. Exceeding it is a
// programming error in the supervision layer, not an operational state.
const MaxWebsocket = 2

var websocketTotal atomic.Int32

// AcquireWebsocket registers one open websocket and returns its release
// function. Release is idempotent. Exceeding MaxWebsocket panics.
func AcquireWebsocket() func() {
	total := websocketTotal.Add(1)
	if total > MaxWebsocket {
		log.Panicf("websocket total %d exceeds limit %d", total, MaxWebsocket)
	}
	metrics.SetWebsocketConnections(int(total))

	var once sync.Once
	return func() {
		once.Do(func() {
			metrics.SetWebsocketConnections(int(websocketTotal.Add(-1)))
		})
	}
}

// WebsocketTotal returns the number of currently open subscriptions.
func WebsocketTotal() int {
	return int(websocketTotal.Load())
}
