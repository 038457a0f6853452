// Package kaiko adapts the Kaiko reference-data and market-data APIs to
// the provider contract. Kaiko asset codes are lowercase; the adapter
// translates to the uppercase registry tickers at the boundary.
package kaiko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/countervalue/market-cache/currencies"
	"github.com/countervalue/market-cache/pairid"
	"github.com/countervalue/market-cache/provider"
	"github.com/countervalue/market-cache/provider/httpclient"
)

const (
	referenceURL = "https://reference-data-api.kaiko.io/v1"

	defaultDailyDepth  = 365
	defaultHourlyDepth = 168
)

// ErrStreamingDisabled means: USE_KAIKO_WSS is off and the adapter has no
// live stream. The composition root skips the live pipeline in that case.
var ErrStreamingDisabled = errors.New("kaiko streaming disabled")

// Options selects the Kaiko endpoints and credentials.
type Options struct {
	APIKey     string
	WSSKey     string
	Region     string
	APIVersion string
	UseWSS     bool
}

// Client implements provider.Provider against Kaiko.
type Client struct {
	http         *httpclient.Client
	opts         Options
	referenceURL string
	marketURL    string
	wsURL        string

	streamer *streamer
}

func New(opts Options) *Client {
	c := &Client{
		http:         httpclient.New(httpclient.DefaultOptions("Kaiko")),
		opts:         opts,
		referenceURL: referenceURL,
		marketURL:    fmt.Sprintf("https://%s.market-api.kaiko.io/%s", opts.Region, opts.APIVersion),
		wsURL:        fmt.Sprintf("wss://%s.market-ws.kaiko.io/%s", opts.Region, opts.APIVersion),
	}
	c.streamer = newStreamer(c)
	return c
}

// Init implements provider.Provider
func (c *Client) Init(ctx context.Context) error {
	var payload struct {
		Data []exchangePayload `json:"data"`
	}
	return c.getJSON(ctx, c.referenceURL+"/exchanges", nil, &payload)
}

type instrumentPayload struct {
	ExchangeCode string `json:"exchange_code"`
	Class        string `json:"class"`
	BaseAsset    string `json:"base_asset"`
	QuoteAsset   string `json:"quote_asset"`
}

// FetchAvailablePairExchanges implements provider.Provider
func (c *Client) FetchAvailablePairExchanges(ctx context.Context) ([]provider.PairExchange, error) {
	var pairs []provider.PairExchange
	url := c.referenceURL + "/instruments"
	for page := 0; url != ""; page++ {
		if page >= provider.MaxFetchPages {
			log.Printf("Kaiko: page cap reached enumerating instruments")
			break
		}
		var payload struct {
			Data    []instrumentPayload `json:"data"`
			NextURL string              `json:"next_url"`
		}
		if err := c.getJSON(ctx, url, nil, &payload); err != nil {
			return nil, err
		}
		for _, instrument := range payload.Data {
			if instrument.Class != "spot" {
				continue
			}
			from := strings.ToUpper(instrument.BaseAsset)
			to := strings.ToUpper(instrument.QuoteAsset)
			if !currencies.IsSupported(from) || !currencies.IsSupported(to) {
				continue
			}
			pairs = append(pairs, provider.PairExchange{
				Exchange: strings.ToUpper(instrument.ExchangeCode),
				From:     from,
				To:       to,
			})
		}
		url = payload.NextURL
	}
	return pairs, nil
}

type exchangePayload struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// FetchExchanges implements provider.Provider
func (c *Client) FetchExchanges(ctx context.Context) ([]provider.Exchange, error) {
	var payload struct {
		Data []exchangePayload `json:"data"`
	}
	if err := c.getJSON(ctx, c.referenceURL+"/exchanges", nil, &payload); err != nil {
		return nil, err
	}
	exchanges := make([]provider.Exchange, 0, len(payload.Data))
	for _, exchange := range payload.Data {
		exchanges = append(exchanges, provider.Exchange{
			ID:   strings.ToUpper(exchange.Code),
			Name: exchange.Name,
		})
	}
	return exchanges, nil
}

type ohlcvPayload struct {
	Timestamp int64  `json:"timestamp"`
	Open      string `json:"open"`
	High      string `json:"high"`
	Low       string `json:"low"`
	Close     string `json:"close"`
	Volume    string `json:"volume"`
}

// FetchHistoSeries implements provider.Provider. Kaiko pages with a
// continuation token; the loop is capped at provider.MaxFetchPages.
func (c *Client) FetchHistoSeries(ctx context.Context, pairExchangeID string, g pairid.Granularity, limit int) ([]provider.OHLCVR, error) {
	exchange, from, to, err := pairid.ParseID(pairExchangeID)
	if err != nil {
		return nil, err
	}

	interval := "1d"
	if limit <= 0 {
		limit = defaultDailyDepth
	}
	if g == pairid.Hourly {
		interval = "1h"
		if limit > defaultHourlyDepth {
			limit = defaultHourlyDepth
		}
	}

	url := fmt.Sprintf("%s/data/trades.v1/exchanges/%s/spot/%s-%s/aggregations/ohlcv",
		c.marketURL,
		strings.ToLower(exchange),
		strings.ToLower(from),
		strings.ToLower(to))
	query := map[string]string{"interval": interval}

	var points []provider.OHLCVR
	for page := 0; len(points) < limit; page++ {
		if page >= provider.MaxFetchPages {
			log.Printf("Kaiko: page cap reached fetching %s ohlcv for %s", interval, pairExchangeID)
			break
		}
		var payload struct {
			Data              []ohlcvPayload `json:"data"`
			ContinuationToken string         `json:"continuation_token"`
		}
		if err := c.getJSON(ctx, url, query, &payload); err != nil {
			return nil, err
		}
		for _, p := range payload.Data {
			point, err := p.toOHLCVR()
			if err != nil {
				log.Printf("Kaiko: dropping ohlcv point for %s: %v", pairExchangeID, err)
				continue
			}
			points = append(points, point)
		}
		if payload.ContinuationToken == "" {
			break
		}
		query = map[string]string{"continuation_token": payload.ContinuationToken}
	}
	if len(points) > limit {
		points = points[:limit]
	}
	return points, nil
}

func (p ohlcvPayload) toOHLCVR() (provider.OHLCVR, error) {
	point := provider.OHLCVR{Time: time.UnixMilli(p.Timestamp).UTC()}
	for _, field := range []struct {
		raw string
		dst *float64
	}{
		{p.Open, &point.Open},
		{p.High, &point.High},
		{p.Low, &point.Low},
		{p.Close, &point.Close},
		{p.Volume, &point.Volume},
	} {
		if field.raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(field.raw, 64)
		if err != nil {
			return point, fmt.Errorf("%w: %q: %v", provider.ErrBadPayload, field.raw, err)
		}
		*field.dst = value
	}
	return point, nil
}

// SubscribePriceUpdate implements provider.Provider
func (c *Client) SubscribePriceUpdate(ctx context.Context) (provider.Subscription, error) {
	if !c.opts.UseWSS {
		return nil, ErrStreamingDisabled
	}
	return c.streamer.subscribe(ctx)
}

// SetWatchList implements provider.WatchListSetter
func (c *Client) SetWatchList(pairs []provider.PairExchange) {
	c.streamer.setWatchList(pairs)
}

func (c *Client) getJSON(ctx context.Context, url string, query map[string]string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if len(query) > 0 {
		q := req.URL.Query()
		for key, value := range query {
			q.Set(key, value)
		}
		req.URL.RawQuery = q.Encode()
	}
	req.Header.Set("X-Api-Key", c.opts.APIKey)

	body, err := c.http.Do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", provider.ErrBadPayload, err)
	}
	return nil
}
