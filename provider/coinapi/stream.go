package coinapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/countervalue/market-cache/provider"
)

const (
	readTimeout  = 2 * time.Minute
	writeTimeout = 10 * time.Second
	updateBuffer = 256
)

// helloMessage opens the feed. Subscribing to trades of all spot symbols
// keeps the watch list out of the protocol; unsupported tickers are
// filtered on receipt.
type helloMessage struct {
	Type          string   `json:"type"`
	APIKey        string   `json:"apikey"`
	Heartbeat     bool     `json:"heartbeat"`
	SubscribeData []string `json:"subscribe_data_type"`
	SubscribeID   []string `json:"subscribe_filter_symbol_id"`
}

func subscribeTrades(ctx context.Context, url, apiKey string) (provider.Subscription, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: ws-feed dial: %v", provider.ErrTransient, err)
	}

	hello := helloMessage{
		Type:          "hello",
		APIKey:        apiKey,
		Heartbeat:     true,
		SubscribeData: []string{"trade"},
		SubscribeID:   []string{"_SPOT_"},
	}
	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err == nil {
		err = conn.WriteJSON(hello)
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: ws-feed hello: %v", provider.ErrTransient, err)
	}

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
	Type     string  `json:"type"`
	SymbolID string  `json:"symbol_id"`
	Price    float64 `json:"price"`
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
			s.fail(fmt.Errorf("%w: ws-feed read: %v", provider.ErrTransient, err))
			return
		}

		var msg tradeMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("CoinAPI: dropping unparseable feed message: %v", err)
			continue
		}
		if msg.Type != "trade" {
			continue
		}
		id, ok := symbolToPairExchangeID(msg.SymbolID)
		if !ok {
			continue
		}

		update := provider.PriceUpdate{PairExchangeID: id, Price: msg.Price}
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

func (s *subscription) fail(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}
