// Package marketcap maintains the daily cached ranking of crypto tickers
// by market capitalisation.
package marketcap

import (
	"context"
	"log"
	"time"

	"github.com/countervalue/market-cache/currencies"
	"github.com/countervalue/market-cache/metrics"
	"github.com/countervalue/market-cache/pairid"
	"github.com/countervalue/market-cache/scheduler"
	"github.com/countervalue/market-cache/store"
	"github.com/countervalue/market-cache/throttle"
)

// The throttle window is short on purpose: the daily gate lives in the
// store check, the throttle only bounds burst traffic to it.
const (
	Window = time.Minute

	// refresh cadence of the recurrent sync job; the day gate makes the
	// extra runs cheap store reads
	syncInterval = time.Hour
)

// Source is the external market-cap ranking feed.
type Source interface {
	// FetchTopCoins returns tickers ordered by market cap descending.
	FetchTopCoins(ctx context.Context) ([]string, error)
}

// Service serves the daily ranking, refreshing it at most once per day.
type Service struct {
	store  store.Store
	source Source
	now    func() time.Time

	action    *throttle.Action[[]string]
	recurrent bool
	scheduler *scheduler.Scheduler
}

// NewService creates the ranker. With recurrent set, Start launches the
// hourly sync job keeping the snapshot (and its staleness health) fresh.
func NewService(st store.Store, source Source, recurrent bool) *Service {
	s := &Service{store: st, source: source, now: time.Now, recurrent: recurrent}
	s.action = throttle.New(Window, s.fetchToday)
	return s
}

// Start implements core.Interface
func (s *Service) Start(ctx context.Context) error {
	if s.recurrent {
		s.scheduler = scheduler.New(syncInterval, func(ctx context.Context) {
			if _, err := s.GetDailyMarketCapCoins(ctx); err != nil {
				log.Printf("Market cap: refresh failed: %v", err)
			}
		})
		s.scheduler.Start(ctx, true)
	}
	return nil
}

// Stop implements core.Interface
func (s *Service) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// GetDailyMarketCapCoins returns today's ranking, fetching and storing it
// on the first call of the day.
func (s *Service) GetDailyMarketCapCoins(ctx context.Context) ([]string, error) {
	return s.action.Do(ctx)
}

func (s *Service) fetchToday(ctx context.Context) ([]string, error) {
	day := pairid.Daily.FormatBucket(s.now())

	cached, err := s.store.QueryMarketCapCoinsForDay(ctx, day)
	if err != nil {
		return nil, err
	}
	if cached != nil {
		return cached, nil
	}

	start := time.Now()
	ranked, err := s.source.FetchTopCoins(ctx)
	metrics.RecordFetchCycle(metrics.ServiceMarketCap, "fetchTopCoins", start)
	if err != nil {
		return nil, err
	}

	// unknown tickers are dropped, rank order preserved
	coins := make([]string, 0, len(ranked))
	for _, ticker := range ranked {
		if currencies.IsCrypto(ticker) {
			coins = append(coins, ticker)
		}
	}
	if err := s.store.UpdateMarketCapCoins(ctx, day, coins); err != nil {
		return nil, err
	}
	log.Printf("Market cap: stored %d ranked coins for %s", len(coins), day)
	return coins, nil
}
