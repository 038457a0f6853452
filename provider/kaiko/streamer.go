package kaiko

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/countervalue/market-cache/currencies"
	"github.com/countervalue/market-cache/pairid"
	"github.com/countervalue/market-cache/provider"
)

const (
	readTimeout  = 2 * time.Minute
	writeTimeout = 10 * time.Second
	updateBuffer = 256
)

// streamer subscribes to Kaiko tick prices per instrument, so the watch
// list must be pushed in before the first subscription.
type streamer struct {
	client *Client

	mu        sync.Mutex
	watchList []provider.PairExchange
}

func newStreamer(client *Client) *streamer {
	return &streamer{client: client}
}

func (s *streamer) setWatchList(pairs []provider.PairExchange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.watchList = pairs
}

func (s *streamer) instruments() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	instruments := make([]string, 0, len(s.watchList))
	for _, pair := range s.watchList {
		instruments = append(instruments, fmt.Sprintf("%s:spot:%s-%s",
			strings.ToLower(pair.Exchange),
			strings.ToLower(pair.From),
			strings.ToLower(pair.To)))
	}
	return instruments
}

func (s *streamer) subscribe(ctx context.Context) (provider.Subscription, error) {
	instruments := s.instruments()
	if len(instruments) == 0 {
		return nil, fmt.Errorf("%w: no instruments to subscribe", provider.ErrTransient)
	}

	header := map[string][]string{"X-Api-Key": {s.client.opts.WSSKey}}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.client.wsURL, header)
	if err != nil {
		return nil, fmt.Errorf("%w: stream dial: %v", provider.ErrTransient, err)
	}

	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err == nil {
		err = conn.WriteJSON(map[string]interface{}{
			"command":     "subscribe",
			"topic":       "trades",
			"instruments": instruments,
		})
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: stream subscribe: %v", provider.ErrTransient, err)
	}
	log.Printf("Kaiko: streaming %d instrument subscriptions", len(instruments))

	sub := &subscription{
		conn:    conn,
		updates: make(chan provider.PriceUpdate, updateBuffer),
	}
	go sub.readLoop()
	return sub, nil
}

type subscription struct {
	conn    *websocket.Conn
	updates chan provider.PriceUpdate

	closeOnce sync.Once

	mu  sync.Mutex
	err error
}

func (s *subscription) Updates() <-chan provider.PriceUpdate { return s.updates }

func (s *subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *subscription) Unsubscribe() {
	s.closeOnce.Do(func() {
		s.conn.Close()
	})
}

type tradeMessage struct {
	Topic      string `json:"topic"`
	Instrument string `json:"instrument"`
	Price      string `json:"price"`
}

func (s *subscription) readLoop() {
	defer close(s.updates)
	for {
		if err := s.conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			s.fail(err)
			return
		}
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return
			}
			s.fail(fmt.Errorf("%w: stream read: %v", provider.ErrTransient, err))
			return
		}

		var msg tradeMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("Kaiko: dropping unparseable stream message: %v", err)
			continue
		}
		if msg.Topic != "trades" {
			continue
		}
		id, ok := instrumentToPairExchangeID(msg.Instrument)
		if !ok {
			continue
		}
		price, err := strconv.ParseFloat(msg.Price, 64)
		if err != nil {
			continue
		}

		update := provider.PriceUpdate{PairExchangeID: id, Price: price}
		select {
		case s.updates <- update:
		default:
			select {
			case <-s.updates:
			default:
			}
			s.updates <- update
		}
	}
}

// instrumentToPairExchangeID maps exchange:spot:base-quote onto the
// canonical id.
func instrumentToPairExchangeID(instrument string) (string, bool) {
	parts := strings.Split(instrument, ":")
	if len(parts) != 3 || parts[1] != "spot" {
		return "", false
	}
	pair := strings.Split(parts[2], "-")
	if len(pair) != 2 {
		return "", false
	}
	if !currencies.IsSupported(strings.ToUpper(pair[0])) ||
		!currencies.IsSupported(strings.ToUpper(pair[1])) {
		return "", false
	}
	return pairid.BuildID(
		strings.ToUpper(parts[0]),
		strings.ToUpper(pair[0]),
		strings.ToUpper(pair[1])), true
}

func (s *subscription) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}
