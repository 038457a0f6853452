package cryptocompare

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/countervalue/market-cache/currencies"
	"github.com/countervalue/market-cache/pairid"
	"github.com/countervalue/market-cache/provider"
)

const (
	// the streamer heartbeats every ~30s; a silent socket is a dead one
	readTimeout  = 2 * time.Minute
	writeTimeout = 10 * time.Second

	updateBuffer = 256

	// ticker channel of a single exchange in the streamer protocol
	tickerChannel = "2"
)

// streamer manages the CryptoCompare price stream. The watchlist is
// pushed in before subscribing; pairs added later apply to the next
// stream incarnation.
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

func (s *streamer) subs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := make([]string, 0, len(s.watchList))
	for _, pair := range s.watchList {
		subs = append(subs, fmt.Sprintf("%s~%s~%s~%s", tickerChannel, pair.Exchange, pair.From, pair.To))
	}
	return subs
}

func (s *streamer) subscribe(ctx context.Context) (provider.Subscription, error) {
	subs := s.subs()
	if len(subs) == 0 {
		return nil, fmt.Errorf("%w: no pairs to subscribe", provider.ErrTransient)
	}

	url := s.client.wsURL
	if s.client.apiKey != "" {
		url += "?api_key=" + s.client.apiKey
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: streamer dial: %v", provider.ErrTransient, err)
	}

	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err == nil {
		err = conn.WriteJSON(map[string]interface{}{
			"action": "SubAdd",
			"subs":   subs,
		})
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%w: streamer subscribe: %v", provider.ErrTransient, err)
	}
	log.Printf("CryptoCompare: streaming %d pair subscriptions", len(subs))

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

type streamMessage struct {
	Type       string   `json:"TYPE"`
	Market     string   `json:"MARKET"`
	FromSymbol string   `json:"FROMSYMBOL"`
	ToSymbol   string   `json:"TOSYMBOL"`
	Price      *float64 `json:"PRICE"`
}

// toPriceUpdate keeps only priced ticks on supported tickers. Heartbeats
// and subscription acks carry no price.
func (m streamMessage) toPriceUpdate() (provider.PriceUpdate, bool) {
	if m.Type != tickerChannel || m.Price == nil {
		return provider.PriceUpdate{}, false
	}
	if !currencies.IsSupported(m.FromSymbol) || !currencies.IsSupported(m.ToSymbol) {
		return provider.PriceUpdate{}, false
	}
	return provider.PriceUpdate{
		PairExchangeID: pairid.BuildID(m.Market, m.FromSymbol, m.ToSymbol),
		Price:          *m.Price,
	}, true
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
			s.fail(fmt.Errorf("%w: streamer read: %v", provider.ErrTransient, err))
			return
		}

		var msg streamMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("CryptoCompare: dropping unparseable stream message: %v", err)
			continue
		}
		update, ok := msg.toPriceUpdate()
		if !ok {
			continue
		}
		select {
		case s.updates <- update:
		default:
			// a stalled consumer sheds the oldest tick, never blocks the read
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
