package marketcap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/countervalue/market-cache/provider"
	"github.com/countervalue/market-cache/provider/httpclient"
)

const (
	cmcBaseURL    = "https://pro-api.coinmarketcap.com"
	cmcRankLimit  = 200
	cmcAuthHeader = "X-CMC_PRO_API_KEY"
)

// CMCClient fetches the CoinMarketCap latest listings ranking.
type CMCClient struct {
	apiKey  string
	baseURL string
	client  *httpclient.Client
}

// NewCMCClient creates the CoinMarketCap source.
func NewCMCClient(apiKey string) *CMCClient {
	return &CMCClient{
		apiKey:  apiKey,
		baseURL: cmcBaseURL,
		client:  httpclient.New(httpclient.DefaultOptions("CoinMarketCap")),
	}
}

type cmcListingsResponse struct {
	Data []struct {
		Symbol string `json:"symbol"`
	} `json:"data"`
}

// FetchTopCoins implements Source.
func (c *CMCClient) FetchTopCoins(ctx context.Context) ([]string, error) {
	url := fmt.Sprintf("%s/v1/cryptocurrency/listings/latest?limit=%d&sort=market_cap", c.baseURL, cmcRankLimit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set(cmcAuthHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	body, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}

	var parsed cmcListingsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: listings: %v", provider.ErrBadPayload, err)
	}
	coins := make([]string, 0, len(parsed.Data))
	for _, entry := range parsed.Data {
		coins = append(coins, entry.Symbol)
	}
	return coins, nil
}
