package rates

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/countervalue/market-cache/config"
	"github.com/countervalue/market-cache/pairid"
	mock_provider "github.com/countervalue/market-cache/provider/mocks"
	"github.com/countervalue/market-cache/refresh"
	"github.com/countervalue/market-cache/store"
	mock_store "github.com/countervalue/market-cache/store/mocks"
)

func newFixture(t *testing.T) (*Service, *mock_provider.MockProvider, *mock_store.MockStore) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockProvider := mock_provider.NewMockProvider(ctrl)
	mockStore := mock_store.NewMockStore(ctrl)
	cfg, err := config.Load("")
	require.NoError(t, err)
	engine := refresh.NewEngine(mockProvider, mockStore, cfg.MinimalDaysToConsiderExchange)
	return NewService(engine, mockStore, cfg), mockProvider, mockStore
}

func loadedRecord(id, exchange, from, to string, oneYear bool, volume float64, histo store.Histo) store.PairExchangeRecord {
	today := pairid.Daily.FormatBucket(time.Now().UTC())
	return store.PairExchangeRecord{
		ID:                      id,
		Exchange:                exchange,
		From:                    from,
		To:                      to,
		FromTo:                  from + "_" + to,
		Latest:                  0.021,
		HistoDaily:              histo,
		YesterdayVolume:         volume,
		HasHistoryFor1Year:      oneYear,
		HasHistoryFor30LastDays: true,
		HistoryLoadedAtDaily:    &today,
	}
}

func TestGetHistoPicksTopRankedCandidate(t *testing.T) {
	service, mockProvider, mockStore := newFixture(t)

	// ranking beats raw volume: X leads despite Y's bigger turnover
	x := loadedRecord("X_BTC_USD", "X", "BTC", "USD", true, 10,
		store.Histo{"2023-06-13": 0.02, pairid.LatestKey: 0.021})
	y := loadedRecord("Y_BTC_USD", "Y", "BTC", "USD", false, 1000,
		store.Histo{"2023-06-13": 0.03})

	mockProvider.EXPECT().FetchAvailablePairExchanges(gomock.Any()).
		Return(nil, errors.New("provider down"))
	mockStore.EXPECT().
		QueryPairExchangesByPairs(gomock.Any(), []store.Pair{{From: "BTC", To: "USD"}}, false).
		Return([]store.PairExchangeRecord{x, y}, nil)
	mockStore.EXPECT().QueryPairExchangeByID(gomock.Any(), "X_BTC_USD").Return(&x, nil)

	response, err := service.GetHisto(context.Background(),
		[]RequestPair{{From: "BTC", To: "USD"}}, pairid.Daily)
	require.NoError(t, err)

	data, ok := response["USD"]["BTC"]["X"]
	require.True(t, ok, "top-ranked exchange X answers the query")
	assert.Equal(t, 0.02, data["2023-06-13"])
	assert.Equal(t, x.Latest, data[pairid.LatestKey])
	assert.NotContains(t, response["USD"]["BTC"], "Y")
}

func TestGetHistoExplicitExchange(t *testing.T) {
	service, mockProvider, mockStore := newFixture(t)

	x := loadedRecord("X_BTC_USD", "X", "BTC", "USD", true, 10,
		store.Histo{"2023-06-13": 0.02})
	y := loadedRecord("Y_BTC_USD", "Y", "BTC", "USD", false, 1000,
		store.Histo{"2023-06-13": 0.03})

	mockProvider.EXPECT().FetchAvailablePairExchanges(gomock.Any()).
		Return(nil, errors.New("provider down"))
	mockStore.EXPECT().
		QueryPairExchangesByPairs(gomock.Any(), gomock.Any(), false).
		Return([]store.PairExchangeRecord{x, y}, nil)
	mockStore.EXPECT().QueryPairExchangeByID(gomock.Any(), "Y_BTC_USD").Return(&y, nil)

	response, err := service.GetHisto(context.Background(),
		[]RequestPair{{From: "BTC", To: "USD", Exchange: "y"}}, pairid.Daily)
	require.NoError(t, err)
	assert.Contains(t, response["USD"]["BTC"], "Y")
}

func TestGetHistoKeyFiltering(t *testing.T) {
	histo := store.Histo{
		"2023-06-10":     0.01,
		"2023-06-12":     0.02,
		"2023-06-13":     0.03,
		pairid.LatestKey: 0.04,
	}

	afterOnly := filterKeys(histo, RequestPair{After: "2023-06-11"})
	assert.Equal(t, PairData{"2023-06-12": 0.02, "2023-06-13": 0.03}, afterOnly)

	at := filterKeys(histo, RequestPair{After: "2023-06-11", At: []string{"2023-06-10", "2023-06-30"}})
	assert.Equal(t, PairData{"2023-06-10": 0.01}, at, "at wins over after, missing keys are skipped")

	all := filterKeys(histo, RequestPair{})
	assert.Len(t, all, 3, "latest is re-added from the record, not the raw histo")
}

func TestBlacklistedExchangeNeverServed(t *testing.T) {
	t.Setenv("BLACKLIST_EXCHANGES", "Shady,other")
	service, mockProvider, mockStore := newFixture(t)

	shady := loadedRecord("SHADY_BTC_USD", "SHADY", "BTC", "USD", true, 9999,
		store.Histo{"2023-06-13": 0.02})
	ok := loadedRecord("X_BTC_USD", "X", "BTC", "USD", false, 10,
		store.Histo{"2023-06-13": 0.03})

	mockProvider.EXPECT().FetchAvailablePairExchanges(gomock.Any()).
		Return(nil, errors.New("provider down"))
	mockStore.EXPECT().
		QueryPairExchangesByPairs(gomock.Any(), gomock.Any(), false).
		Return([]store.PairExchangeRecord{shady, ok}, nil)
	mockStore.EXPECT().QueryPairExchangeByID(gomock.Any(), "X_BTC_USD").Return(&ok, nil)

	response, err := service.GetHisto(context.Background(),
		[]RequestPair{{From: "BTC", To: "USD"}}, pairid.Daily)
	require.NoError(t, err)
	assert.NotContains(t, response["USD"]["BTC"], "SHADY")
	assert.Contains(t, response["USD"]["BTC"], "X")
}

func TestCandidateWithoutHistoryIsSkipped(t *testing.T) {
	service, mockProvider, mockStore := newFixture(t)

	noHistory := loadedRecord("X_BTC_USD", "X", "BTC", "USD", true, 10, nil)
	noHistory.HasHistoryFor30LastDays = false

	mockProvider.EXPECT().FetchAvailablePairExchanges(gomock.Any()).
		Return(nil, errors.New("provider down"))
	mockStore.EXPECT().
		QueryPairExchangesByPairs(gomock.Any(), gomock.Any(), false).
		Return([]store.PairExchangeRecord{noHistory}, nil)

	response, err := service.GetHisto(context.Background(),
		[]RequestPair{{From: "BTC", To: "USD"}}, pairid.Daily)
	require.NoError(t, err)
	assert.Empty(t, response)
}

func TestGetExchangesSynthesisesUnknownMetadata(t *testing.T) {
	t.Setenv("BLACKLIST_EXCHANGES", "shady")
	service, mockProvider, mockStore := newFixture(t)

	mockProvider.EXPECT().FetchExchanges(gomock.Any()).
		Return(nil, errors.New("provider down"))
	mockStore.EXPECT().QueryExchanges(gomock.Any()).Return([]store.Exchange{
		{ID: "KRAKEN", Name: "Kraken", Website: "https://kraken.com"},
	}, nil)
	mockStore.EXPECT().
		QueryPairExchangesByPairs(gomock.Any(), []store.Pair{{From: "BTC", To: "USD"}}, true).
		Return([]store.PairExchangeRecord{
			{ID: "KRAKEN_BTC_USD", Exchange: "KRAKEN", From: "BTC", To: "USD"},
			{ID: "SHADY_BTC_USD", Exchange: "SHADY", From: "BTC", To: "USD"},
			{ID: "NEWEX_BTC_USD", Exchange: "NEWEX", From: "BTC", To: "USD"},
		}, nil)

	exchanges, err := service.GetExchanges(context.Background(), "BTC", "USD")
	require.NoError(t, err)
	assert.Equal(t, []store.Exchange{
		{ID: "KRAKEN", Name: "Kraken", Website: "https://kraken.com"},
		{ID: "NEWEX", Name: "NEWEX"},
	}, exchanges)
}

func TestGetTickersOrdered(t *testing.T) {
	service, _, _ := newFixture(t)
	tickers := service.GetTickers()
	require.NotEmpty(t, tickers)
	assert.Equal(t, "BTC", tickers[0])
}
