// Package coinapi adapts the CoinAPI REST and WebSocket feeds to the
// provider contract. All calls require an api key.
package coinapi

import (
	"context"
	"encoding/json"
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
	baseURL = "https://rest.coinapi.io/v1"
	wsURL   = "wss://ws.coinapi.io/v1/"

	// one REST page of OHLCV history
	ohlcvPageSize = 500

	defaultDailyDepth  = 365
	defaultHourlyDepth = 168
)

// Client implements provider.Provider against CoinAPI.
type Client struct {
	http    *httpclient.Client
	baseURL string
	wsURL   string
	apiKey  string
}

func New(apiKey string) *Client {
	return &Client{
		http:    httpclient.New(httpclient.DefaultOptions("CoinAPI")),
		baseURL: baseURL,
		wsURL:   wsURL,
		apiKey:  apiKey,
	}
}

// Init implements provider.Provider
func (c *Client) Init(ctx context.Context) error {
	var exchanges []exchangePayload
	return c.getJSON(ctx, "/exchanges", nil, &exchanges)
}

type symbolPayload struct {
	SymbolID   string `json:"symbol_id"`
	ExchangeID string `json:"exchange_id"`
	SymbolType string `json:"symbol_type"`
	AssetBase  string `json:"asset_id_base"`
	AssetQuote string `json:"asset_id_quote"`
}

// FetchAvailablePairExchanges implements provider.Provider
func (c *Client) FetchAvailablePairExchanges(ctx context.Context) ([]provider.PairExchange, error) {
	var symbols []symbolPayload
	err := c.getJSON(ctx, "/symbols", map[string]string{"filter_symbol_id": "SPOT"}, &symbols)
	if err != nil {
		return nil, err
	}
	var pairs []provider.PairExchange
	for _, symbol := range symbols {
		if symbol.SymbolType != "SPOT" {
			continue
		}
		if !currencies.IsSupported(symbol.AssetBase) || !currencies.IsSupported(symbol.AssetQuote) {
			continue
		}
		pairs = append(pairs, provider.PairExchange{
			Exchange: symbol.ExchangeID,
			From:     symbol.AssetBase,
			To:       symbol.AssetQuote,
		})
	}
	return pairs, nil
}

type exchangePayload struct {
	ExchangeID string `json:"exchange_id"`
	Name       string `json:"name"`
	Website    string `json:"website"`
}

// FetchExchanges implements provider.Provider
func (c *Client) FetchExchanges(ctx context.Context) ([]provider.Exchange, error) {
	var payload []exchangePayload
	if err := c.getJSON(ctx, "/exchanges", nil, &payload); err != nil {
		return nil, err
	}
	exchanges := make([]provider.Exchange, 0, len(payload))
	for _, exchange := range payload {
		exchanges = append(exchanges, provider.Exchange{
			ID:      exchange.ExchangeID,
			Name:    exchange.Name,
			Website: exchange.Website,
		})
	}
	return exchanges, nil
}

type ohlcvPayload struct {
	TimePeriodStart time.Time `json:"time_period_start"`
	PriceOpen       float64   `json:"price_open"`
	PriceHigh       float64   `json:"price_high"`
	PriceLow        float64   `json:"price_low"`
	PriceClose      float64   `json:"price_close"`
	VolumeTraded    float64   `json:"volume_traded"`
}

// FetchHistoSeries implements provider.Provider. The history endpoint is
// paged backwards in time until the requested depth is covered, capped at
// provider.MaxFetchPages.
func (c *Client) FetchHistoSeries(ctx context.Context, pairExchangeID string, g pairid.Granularity, limit int) ([]provider.OHLCVR, error) {
	exchange, from, to, err := pairid.ParseID(pairExchangeID)
	if err != nil {
		return nil, err
	}
	symbolID := fmt.Sprintf("%s_SPOT_%s_%s", exchange, from, to)

	periodID := "1DAY"
	if limit <= 0 {
		limit = defaultDailyDepth
	}
	if g == pairid.Hourly {
		periodID = "1HRS"
		if limit > defaultHourlyDepth {
			limit = defaultHourlyDepth
		}
	}

	var points []provider.OHLCVR
	timeEnd := time.Now().UTC()
	for page := 0; len(points) < limit; page++ {
		if page >= provider.MaxFetchPages {
			log.Printf("CoinAPI: page cap reached fetching %s history for %s", periodID, pairExchangeID)
			break
		}
		pageSize := limit - len(points)
		if pageSize > ohlcvPageSize {
			pageSize = ohlcvPageSize
		}
		var payload []ohlcvPayload
		err := c.getJSON(ctx, "/ohlcv/"+symbolID+"/history", map[string]string{
			"period_id": periodID,
			"time_end":  timeEnd.Format(time.RFC3339),
			"limit":     strconv.Itoa(pageSize),
		}, &payload)
		if err != nil {
			return nil, err
		}
		if len(payload) == 0 {
			break
		}
		oldest := timeEnd
		for _, p := range payload {
			points = append(points, provider.OHLCVR{
				Time:   p.TimePeriodStart.UTC(),
				Open:   p.PriceOpen,
				High:   p.PriceHigh,
				Low:    p.PriceLow,
				Close:  p.PriceClose,
				Volume: p.VolumeTraded,
			})
			if p.TimePeriodStart.Before(oldest) {
				oldest = p.TimePeriodStart
			}
		}
		if !oldest.Before(timeEnd) {
			break
		}
		timeEnd = oldest
	}
	return points, nil
}

// SubscribePriceUpdate implements provider.Provider. CoinAPI streams all
// spot trades; no watch list is needed.
func (c *Client) SubscribePriceUpdate(ctx context.Context) (provider.Subscription, error) {
	return subscribeTrades(ctx, c.wsURL, c.apiKey)
}

// symbolToPairExchangeID maps EXCHANGE_SPOT_BASE_QUOTE onto the canonical
// id, rejecting non-spot symbols.
func symbolToPairExchangeID(symbolID string) (string, bool) {
	parts := strings.Split(symbolID, "_SPOT_")
	if len(parts) != 2 {
		return "", false
	}
	pair := strings.Split(parts[1], "_")
	if len(pair) != 2 {
		return "", false
	}
	if !currencies.IsSupported(pair[0]) || !currencies.IsSupported(pair[1]) {
		return "", false
	}
	return pairid.BuildID(parts[0], pair[0], pair[1]), true
}

func (c *Client) getJSON(ctx context.Context, path string, query map[string]string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	q := req.URL.Query()
	for key, value := range query {
		q.Set(key, value)
	}
	req.URL.RawQuery = q.Encode()
	req.Header.Set("X-CoinAPI-Key", c.apiKey)

	body, err := c.http.Do(req)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", provider.ErrBadPayload, err)
	}
	return nil
}
