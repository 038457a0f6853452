package marketcap

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/countervalue/market-cache/provider"
	mock_store "github.com/countervalue/market-cache/store/mocks"
)

type fakeSource struct {
	coins []string
	err   error
	calls int
}

func (f *fakeSource) FetchTopCoins(ctx context.Context) ([]string, error) {
	f.calls++
	return f.coins, f.err
}

func TestFetchesAndFiltersOnFirstCallOfDay(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := mock_store.NewMockStore(ctrl)
	source := &fakeSource{coins: []string{"BTC", "WEIRDCOIN", "ETH", "USDT", "DOGE"}}

	service := NewService(mockStore, source, false)
	service.now = func() time.Time { return time.Date(2023, 6, 15, 9, 0, 0, 0, time.UTC) }

	// unknown tickers and non-coins dropped, rank order preserved
	filtered := []string{"BTC", "ETH", "DOGE"}
	mockStore.EXPECT().QueryMarketCapCoinsForDay(gomock.Any(), "2023-06-15").Return(nil, nil)
	mockStore.EXPECT().UpdateMarketCapCoins(gomock.Any(), "2023-06-15", filtered).Return(nil)

	coins, err := service.GetDailyMarketCapCoins(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filtered, coins)
	assert.Equal(t, 1, source.calls)
}

func TestDayGateServesStoredSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := mock_store.NewMockStore(ctrl)
	source := &fakeSource{coins: []string{"BTC"}}

	service := NewService(mockStore, source, false)
	service.now = func() time.Time { return time.Date(2023, 6, 15, 9, 0, 0, 0, time.UTC) }

	stored := []string{"ETH", "BTC"}
	mockStore.EXPECT().QueryMarketCapCoinsForDay(gomock.Any(), "2023-06-15").Return(stored, nil)

	coins, err := service.GetDailyMarketCapCoins(context.Background())
	require.NoError(t, err)
	assert.Equal(t, stored, coins)
	assert.Zero(t, source.calls, "snapshot present: the source is not called")
}

func TestSourceFailureIsNotCached(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockStore := mock_store.NewMockStore(ctrl)
	source := &fakeSource{err: provider.ErrTransient}

	service := NewService(mockStore, source, false)
	mockStore.EXPECT().QueryMarketCapCoinsForDay(gomock.Any(), gomock.Any()).Return(nil, nil).Times(2)

	_, err := service.GetDailyMarketCapCoins(context.Background())
	assert.ErrorIs(t, err, provider.ErrTransient)

	// error invalidated the throttle window: the next call retries
	source.err = nil
	source.coins = []string{"BTC"}
	mockStore.EXPECT().UpdateMarketCapCoins(gomock.Any(), gomock.Any(), []string{"BTC"}).Return(nil)
	coins, err := service.GetDailyMarketCapCoins(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BTC"}, coins)
}
