// Package cryptocompare adapts the CryptoCompare min-api and its price
// streamer to the provider contract. It is the default adapter and needs
// no credential.
package cryptocompare

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/countervalue/market-cache/currencies"
	"github.com/countervalue/market-cache/pairid"
	"github.com/countervalue/market-cache/provider"
	"github.com/countervalue/market-cache/provider/httpclient"
)

const (
	baseURL     = "https://min-api.cryptocompare.com"
	streamerURL = "wss://streamer.cryptocompare.com/v2"

	// default series depth when the caller does not bound it
	defaultDailyLimit  = 365
	defaultHourlyLimit = 168
)

// Client implements provider.Provider against CryptoCompare.
type Client struct {
	http     *httpclient.Client
	baseURL  string
	wsURL    string
	apiKey   string
	streamer *streamer
}

// New creates the adapter. The api key is optional; the public endpoints
// work without one at a lower rate limit.
func New(apiKey string) *Client {
	c := &Client{
		http:    httpclient.New(httpclient.DefaultOptions("CryptoCompare")),
		baseURL: baseURL,
		wsURL:   streamerURL,
		apiKey:  apiKey,
	}
	c.streamer = newStreamer(c)
	return c
}

// Init implements provider.Provider
func (c *Client) Init(ctx context.Context) error {
	// a cheap authenticated-or-not call proving the endpoint is reachable
	_, err := c.get(ctx, "/data/v4/all/exchanges", nil)
	return err
}

type allExchangesResponse struct {
	Response string `json:"Response"`
	Message  string `json:"Message"`
	Data     struct {
		Exchanges map[string]struct {
			IsActive bool `json:"isActive"`
			Pairs    map[string]struct {
				Tsyms map[string]json.RawMessage `json:"tsyms"`
			} `json:"pairs"`
		} `json:"exchanges"`
	} `json:"Data"`
}

// FetchAvailablePairExchanges implements provider.Provider. Pairs whose
// tickers are not in the currency registry are dropped here so nothing
// downstream sees an unknown ticker.
func (c *Client) FetchAvailablePairExchanges(ctx context.Context) ([]provider.PairExchange, error) {
	var parsed allExchangesResponse
	if err := c.getJSON(ctx, "/data/v4/all/exchanges", nil, &parsed); err != nil {
		return nil, err
	}
	var pairs []provider.PairExchange
	for exchange, info := range parsed.Data.Exchanges {
		if !info.IsActive {
			continue
		}
		for from, pair := range info.Pairs {
			if !currencies.IsSupported(from) {
				continue
			}
			for to := range pair.Tsyms {
				if !currencies.IsSupported(to) {
					continue
				}
				pairs = append(pairs, provider.PairExchange{Exchange: exchange, From: from, To: to})
			}
		}
	}
	return pairs, nil
}

type generalExchangesResponse struct {
	Data map[string]struct {
		Name         string `json:"Name"`
		InternalName string `json:"InternalName"`
		AffiliateURL string `json:"AffiliateURL"`
	} `json:"Data"`
}

// FetchExchanges implements provider.Provider
func (c *Client) FetchExchanges(ctx context.Context) ([]provider.Exchange, error) {
	var parsed generalExchangesResponse
	if err := c.getJSON(ctx, "/data/exchanges/general", nil, &parsed); err != nil {
		return nil, err
	}
	exchanges := make([]provider.Exchange, 0, len(parsed.Data))
	for _, info := range parsed.Data {
		id := info.InternalName
		if id == "" {
			id = info.Name
		}
		exchanges = append(exchanges, provider.Exchange{
			ID:      id,
			Name:    info.Name,
			Website: info.AffiliateURL,
		})
	}
	return exchanges, nil
}

type histoResponse struct {
	Response string `json:"Response"`
	Message  string `json:"Message"`
	Data     struct {
		Data []histoPoint `json:"Data"`
	} `json:"Data"`
}

type histoPoint struct {
	Time       int64   `json:"time"`
	Open       float64 `json:"open"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Close      float64 `json:"close"`
	VolumeFrom float64 `json:"volumefrom"`
}

// FetchHistoSeries implements provider.Provider
func (c *Client) FetchHistoSeries(ctx context.Context, pairExchangeID string, g pairid.Granularity, limit int) ([]provider.OHLCVR, error) {
	exchange, from, to, err := pairid.ParseID(pairExchangeID)
	if err != nil {
		return nil, err
	}

	path := "/data/v2/histoday"
	if limit <= 0 {
		limit = defaultDailyLimit
	}
	if g == pairid.Hourly {
		path = "/data/v2/histohour"
		if limit > defaultHourlyLimit {
			limit = defaultHourlyLimit
		}
	}

	query := map[string]string{
		"fsym":  from,
		"tsym":  to,
		"e":     exchange,
		"limit": strconv.Itoa(limit),
	}
	var parsed histoResponse
	if err := c.getJSON(ctx, path, query, &parsed); err != nil {
		return nil, err
	}
	if parsed.Response == "Error" {
		return nil, fmt.Errorf("%w: %s", provider.ErrBadPayload, parsed.Message)
	}

	points := make([]provider.OHLCVR, 0, len(parsed.Data.Data))
	for _, p := range parsed.Data.Data {
		points = append(points, provider.OHLCVR{
			Time:   time.Unix(p.Time, 0).UTC(),
			Open:   p.Open,
			High:   p.High,
			Low:    p.Low,
			Close:  p.Close,
			Volume: p.VolumeFrom,
		})
	}
	return points, nil
}

// SubscribePriceUpdate implements provider.Provider
func (c *Client) SubscribePriceUpdate(ctx context.Context) (provider.Subscription, error) {
	return c.streamer.subscribe(ctx)
}

// SetWatchList implements provider.WatchListSetter
func (c *Client) SetWatchList(pairs []provider.PairExchange) {
	c.streamer.setWatchList(pairs)
}

func (c *Client) get(ctx context.Context, path string, query map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	q := req.URL.Query()
	for key, value := range query {
		q.Set(key, value)
	}
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}
	req.URL.RawQuery = q.Encode()
	return c.http.Do(req)
}

func (c *Client) getJSON(ctx context.Context, path string, query map[string]string, out interface{}) error {
	body, err := c.get(ctx, path, query)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", provider.ErrBadPayload, err)
	}
	return nil
}
