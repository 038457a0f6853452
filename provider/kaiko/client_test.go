package kaiko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/countervalue/market-cache/pairid"
	"github.com/countervalue/market-cache/provider"
)

func newTestClient() *Client {
	return New(Options{APIKey: "test-key", Region: "eu", APIVersion: "v1"})
}

func TestInstrumentToPairExchangeID(t *testing.T) {
	id, ok := instrumentToPairExchangeID("krkn:spot:btc-usd")
	require.True(t, ok)
	assert.Equal(t, "KRKN_BTC_USD", id)

	_, ok = instrumentToPairExchangeID("krkn:future:btc-usd")
	assert.False(t, ok)
	_, ok = instrumentToPairExchangeID("btc-usd")
	assert.False(t, ok)
	_, ok = instrumentToPairExchangeID("krkn:spot:nope-usd")
	assert.False(t, ok)
}

func TestOHLCVPayloadParsing(t *testing.T) {
	point, err := ohlcvPayload{
		Timestamp: 1686700800000,
		Open:      "99.5",
		Close:     "100.25",
		Volume:    "12.5",
	}.toOHLCVR()
	require.NoError(t, err)
	assert.Equal(t, 100.25, point.Close)
	assert.Equal(t, 12.5, point.Volume)

	_, err = ohlcvPayload{Close: "not-a-number"}.toOHLCVR()
	assert.ErrorIs(t, err, provider.ErrBadPayload)
}

func TestFetchHistoSeriesFollowsContinuationToken(t *testing.T) {
	var served int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/trades.v1/exchanges/krkn/spot/btc-usd/aggregations/ohlcv", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Key"))
		served++
		if r.URL.Query().Get("continuation_token") == "" {
			assert.Equal(t, "1d", r.URL.Query().Get("interval"))
			w.Write([]byte(`{
				"data": [{"timestamp": 1686700800000, "close": "100", "volume": "5"}],
				"continuation_token": "next-page"
			}`))
			return
		}
		w.Write([]byte(`{"data": [{"timestamp": 1686614400000, "close": "110", "volume": "7"}]}`))
	}))
	defer server.Close()

	client := newTestClient()
	client.marketURL = server.URL

	points, err := client.FetchHistoSeries(context.Background(), "KRKN_BTC_USD", pairid.Daily, 0)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, 100.0, points[0].Close)
	assert.Equal(t, 110.0, points[1].Close)
	assert.Equal(t, 2, served)
}

func TestSubscribeDisabledWithoutWSS(t *testing.T) {
	client := newTestClient()
	_, err := client.SubscribePriceUpdate(context.Background())
	assert.ErrorIs(t, err, ErrStreamingDisabled)
}
