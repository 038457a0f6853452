package liverates

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/countervalue/market-cache/provider"
	mock_provider "github.com/countervalue/market-cache/provider/mocks"
	"github.com/countervalue/market-cache/refresh"
	"github.com/countervalue/market-cache/store"
	mock_store "github.com/countervalue/market-cache/store/mocks"
)

type fakeSubscription struct {
	ch   chan provider.PriceUpdate
	err  error
	once sync.Once
}

func (f *fakeSubscription) Updates() <-chan provider.PriceUpdate { return f.ch }
func (f *fakeSubscription) Err() error                           { return f.err }
func (f *fakeSubscription) Unsubscribe()                         { f.once.Do(func() {}) }

func newTestService(t *testing.T) (*Service, *mock_provider.MockProvider, *mock_store.MockStore) {
	ctrl := gomock.NewController(t)
	mockProvider := mock_provider.NewMockProvider(ctrl)
	mockStore := mock_store.NewMockStore(ctrl)
	engine := refresh.NewEngine(mockProvider, mockStore, 20)
	service := NewService(mockProvider, mockStore, engine, false)
	service.window = 50 * time.Millisecond
	service.restartOnError = time.Millisecond
	service.restartOnFinish = time.Millisecond
	return service, mockProvider, mockStore
}

func TestBatchCoalescing(t *testing.T) {
	service, mockProvider, mockStore := newTestService(t)

	sub := &fakeSubscription{ch: make(chan provider.PriceUpdate, 16)}
	mockProvider.EXPECT().SubscribePriceUpdate(gomock.Any()).Return(sub, nil)

	// USD/EUR magnitudes are equal so rates pass through unscaled
	sub.ch <- provider.PriceUpdate{PairExchangeID: "KRAKEN_USD_EUR", Price: 10}
	sub.ch <- provider.PriceUpdate{PairExchangeID: "BINANCE_USD_EUR", Price: 20}
	sub.ch <- provider.PriceUpdate{PairExchangeID: "KRAKEN_USD_EUR", Price: 11}
	sub.ch <- provider.PriceUpdate{PairExchangeID: "KRAKEN_USD_EUR", Price: 12}
	// unknown ticker: filtered out, never stored
	sub.ch <- provider.PriceUpdate{PairExchangeID: "KRAKEN_XYZ_EUR", Price: 99}

	// exactly one write, last rate per id wins, deterministic order
	mockStore.EXPECT().UpdateLiveRates(gomock.Any(), []store.LiveRate{
		{PairExchangeID: "BINANCE_USD_EUR", Rate: 20},
		{PairExchangeID: "KRAKEN_USD_EUR", Rate: 12},
	}).Return(nil).Times(1)

	go func() {
		time.Sleep(120 * time.Millisecond)
		close(sub.ch)
	}()
	delay := service.runOnce(context.Background())
	assert.Equal(t, service.restartOnFinish, delay)
}

func TestDuplicateUpdatesAreIdempotent(t *testing.T) {
	service, mockProvider, mockStore := newTestService(t)

	sub := &fakeSubscription{ch: make(chan provider.PriceUpdate, 16)}
	mockProvider.EXPECT().SubscribePriceUpdate(gomock.Any()).Return(sub, nil)

	for i := 0; i < 5; i++ {
		sub.ch <- provider.PriceUpdate{PairExchangeID: "KRAKEN_USD_EUR", Price: 10}
	}
	mockStore.EXPECT().UpdateLiveRates(gomock.Any(), []store.LiveRate{
		{PairExchangeID: "KRAKEN_USD_EUR", Rate: 10},
	}).Return(nil).Times(1)

	go func() {
		time.Sleep(120 * time.Millisecond)
		close(sub.ch)
	}()
	service.runOnce(context.Background())
}

func TestEmptyWindowSkipsStore(t *testing.T) {
	service, mockProvider, _ := newTestService(t)

	sub := &fakeSubscription{ch: make(chan provider.PriceUpdate)}
	mockProvider.EXPECT().SubscribePriceUpdate(gomock.Any()).Return(sub, nil)
	// no UpdateLiveRates expectation: empty batches never reach the store

	go func() {
		time.Sleep(120 * time.Millisecond)
		close(sub.ch)
	}()
	delay := service.runOnce(context.Background())
	assert.Equal(t, service.restartOnFinish, delay)
}

func TestRebootFlushesPendingBatch(t *testing.T) {
	service, mockProvider, mockStore := newTestService(t)
	service.window = time.Hour
	service.rebootAfter = 50 * time.Millisecond
	service.rebootPause = time.Millisecond

	sub := &fakeSubscription{ch: make(chan provider.PriceUpdate, 16)}
	mockProvider.EXPECT().SubscribePriceUpdate(gomock.Any()).Return(sub, nil)

	sub.ch <- provider.PriceUpdate{PairExchangeID: "KRAKEN_USD_EUR", Price: 10}

	// the window never closes before the reboot fires, the batch must
	// still reach the store
	mockStore.EXPECT().UpdateLiveRates(gomock.Any(), []store.LiveRate{
		{PairExchangeID: "KRAKEN_USD_EUR", Rate: 10},
	}).Return(nil).Times(1)

	delay := service.runOnce(context.Background())
	assert.Equal(t, service.rebootPause, delay)
}

func TestStreamErrorSchedulesErrorRestart(t *testing.T) {
	service, mockProvider, _ := newTestService(t)

	sub := &fakeSubscription{ch: make(chan provider.PriceUpdate), err: provider.ErrTransient}
	mockProvider.EXPECT().SubscribePriceUpdate(gomock.Any()).Return(sub, nil)

	close(sub.ch)
	delay := service.runOnce(context.Background())
	assert.Equal(t, service.restartOnError, delay)
}

func TestSubscribeFailureSchedulesErrorRestart(t *testing.T) {
	service, mockProvider, _ := newTestService(t)

	mockProvider.EXPECT().SubscribePriceUpdate(gomock.Any()).Return(nil, provider.ErrTransient)
	delay := service.runOnce(context.Background())
	assert.Equal(t, service.restartOnError, delay)
}

func TestNormalise(t *testing.T) {
	// BTC(8) -> USD(2)
	rate, ok := normalise(provider.PriceUpdate{PairExchangeID: "KRAKEN_BTC_USD", Price: 23456.78})
	require.True(t, ok)
	assert.InDelta(t, 0.02345678, rate, 1e-12)

	_, ok = normalise(provider.PriceUpdate{PairExchangeID: "garbage", Price: 1})
	assert.False(t, ok)
	_, ok = normalise(provider.PriceUpdate{PairExchangeID: "KRAKEN_XYZ_USD", Price: 1})
	assert.False(t, ok)
}
