package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/countervalue/market-cache/config"
	"github.com/countervalue/market-cache/marketcap"
	"github.com/countervalue/market-cache/pairid"
	mock_provider "github.com/countervalue/market-cache/provider/mocks"
	"github.com/countervalue/market-cache/rates"
	"github.com/countervalue/market-cache/refresh"
	"github.com/countervalue/market-cache/store"
	mock_store "github.com/countervalue/market-cache/store/mocks"
)

func newTestServer(t *testing.T) (*Server, *mock_provider.MockProvider, *mock_store.MockStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockProvider := mock_provider.NewMockProvider(ctrl)
	mockStore := mock_store.NewMockStore(ctrl)
	cfg, err := config.Load("")
	require.NoError(t, err)
	engine := refresh.NewEngine(mockProvider, mockStore, cfg.MinimalDaysToConsiderExchange)
	ratesService := rates.NewService(engine, mockStore, cfg)
	marketCapService := marketcap.NewService(mockStore, nil, false)

	server := New("0", ratesService, marketCapService, mockStore)
	require.NoError(t, server.Start(context.Background()))
	t.Cleanup(server.Stop)
	return server, mockProvider, mockStore
}

func doRequest(server *Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	recorder := httptest.NewRecorder()
	server.Handler().ServeHTTP(recorder, req)
	return recorder
}

func TestRatesRejectsDuplicatePairs(t *testing.T) {
	server, _, _ := newTestServer(t)

	recorder := doRequest(server, http.MethodPost, "/rates/daily",
		`{"pairs": [{"from":"BTC","to":"USD"},{"from":"BTC","to":"USD"}]}`)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "pairs must not contain duplicates")
}

func TestRatesValidation(t *testing.T) {
	server, _, _ := newTestServer(t)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"bad granularity", "/rates/weekly", `{"pairs": [{"from":"BTC","to":"USD"}]}`},
		{"empty pairs", "/rates/daily", `{"pairs": []}`},
		{"malformed body", "/rates/daily", `{"pairs": `},
		{"afterDay on hourly", "/rates/hourly", `{"pairs": [{"from":"BTC","to":"USD","afterDay":"2023-06-01"}]}`},
		{"missing from", "/rates/daily", `{"pairs": [{"to":"USD"}]}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recorder := doRequest(server, http.MethodPost, tc.path, tc.body)
			assert.Equal(t, http.StatusBadRequest, recorder.Code)
		})
	}
}

func TestRatesTooManyPairs(t *testing.T) {
	server, _, _ := newTestServer(t)

	pairs := make([]string, 0, MaxRequestPairs+1)
	for i := 0; i <= MaxRequestPairs; i++ {
		pairs = append(pairs, `{"from":"BTC","to":"USD","exchange":"E`+strconv.Itoa(i)+`"}`)
	}
	body := `{"pairs": [` + strings.Join(pairs, ",") + `]}`

	recorder := doRequest(server, http.MethodPost, "/rates/daily", body)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRatesServesHisto(t *testing.T) {
	server, mockProvider, mockStore := newTestServer(t)

	today := pairid.Daily.FormatBucket(time.Now().UTC())
	record := store.PairExchangeRecord{
		ID: "KRAKEN_BTC_USD", Exchange: "KRAKEN", From: "BTC", To: "USD",
		Latest:                  0.021,
		HistoDaily:              store.Histo{"2023-06-13": 0.02},
		HasHistoryFor30LastDays: true,
		HistoryLoadedAtDaily:    &today,
	}
	mockProvider.EXPECT().FetchAvailablePairExchanges(gomock.Any()).
		Return(nil, assert.AnError)
	mockStore.EXPECT().
		QueryPairExchangesByPairs(gomock.Any(), gomock.Any(), false).
		Return([]store.PairExchangeRecord{record}, nil)
	mockStore.EXPECT().QueryPairExchangeByID(gomock.Any(), "KRAKEN_BTC_USD").Return(&record, nil)

	recorder := doRequest(server, http.MethodPost, "/rates/daily",
		`{"pairs": [{"from":"BTC","to":"USD"}]}`)
	require.Equal(t, http.StatusOK, recorder.Code)

	var response rates.HistoResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Equal(t, 0.02, response["USD"]["BTC"]["KRAKEN"]["2023-06-13"])
	assert.Equal(t, 0.021, response["USD"]["BTC"]["KRAKEN"][pairid.LatestKey])
}

func TestExchangesRejectsUnknownTicker(t *testing.T) {
	server, _, _ := newTestServer(t)

	recorder := doRequest(server, http.MethodGet, "/exchanges/NOPE/USD", "")
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "unsupported ticker")
}

func TestTickersServesDailyRanking(t *testing.T) {
	server, _, mockStore := newTestServer(t)

	mockStore.EXPECT().QueryMarketCapCoinsForDay(gomock.Any(), gomock.Any()).
		Return([]string{"ETH", "BTC"}, nil)

	recorder := doRequest(server, http.MethodGet, "/tickers", "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var tickers []string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &tickers))
	assert.Equal(t, []string{"ETH", "BTC"}, tickers)
}

func TestTickersFallsBackToRegistryOrder(t *testing.T) {
	server, _, mockStore := newTestServer(t)

	mockStore.EXPECT().QueryMarketCapCoinsForDay(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("store down"))

	recorder := doRequest(server, http.MethodGet, "/tickers", "")
	require.Equal(t, http.StatusOK, recorder.Code)

	var tickers []string
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &tickers))
	assert.Contains(t, tickers, "BTC")
	assert.NotContains(t, tickers, "USD")
}

func TestHealth(t *testing.T) {
	server, _, mockStore := newTestServer(t)

	mockStore.EXPECT().StatusDB(gomock.Any()).Return(nil)
	recorder := doRequest(server, http.MethodGet, "/_health", "")
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"OK"`)

	mockStore.EXPECT().StatusDB(gomock.Any()).Return(store.ErrEmptyStore)
	recorder = doRequest(server, http.MethodGet, "/_health", "")
	assert.Equal(t, http.StatusServiceUnavailable, recorder.Code)
}

func TestHealthNoop(t *testing.T) {
	server, _, _ := newTestServer(t)
	recorder := doRequest(server, http.MethodGet, "/_health/noop", "")
	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestHealthDetailStaleness(t *testing.T) {
	server, _, mockStore := newTestServer(t)

	now := time.Now()
	mockStore.EXPECT().GetMeta(gomock.Any()).Return(store.Meta{
		LastLiveRatesSync: now.Add(-time.Minute),
		LastMarketCapSync: now.Add(-time.Hour),
	}, nil)
	recorder := doRequest(server, http.MethodGet, "/_health/detail", "")
	assert.Equal(t, http.StatusOK, recorder.Code)

	mockStore.EXPECT().GetMeta(gomock.Any()).Return(store.Meta{
		LastLiveRatesSync: now.Add(-10 * time.Minute),
		LastMarketCapSync: now.Add(-26 * time.Hour),
	}, nil)
	recorder = doRequest(server, http.MethodGet, "/_health/detail", "")
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)

	var statuses []serviceStatus
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &statuses))
	require.Len(t, statuses, 2)
	assert.Equal(t, "KO", statuses[0].Status)
	assert.Equal(t, "KO", statuses[1].Status)
}

func TestCORSPreflight(t *testing.T) {
	server, _, _ := newTestServer(t)

	recorder := doRequest(server, http.MethodOptions, "/tickers", "")
	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, "*", recorder.Header().Get("Access-Control-Allow-Origin"))
}
