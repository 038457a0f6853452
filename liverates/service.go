// Package liverates runs the streaming price pipeline:
// subscribe -> filter and normalise -> 1s time buffer -> coalesce -> store.
// A supervisor keeps exactly one subscription alive, restarting it on
// error, on natural completion, and on a coarse periodic reboot.
package liverates

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/countervalue/market-cache/currencies"
	"github.com/countervalue/market-cache/metrics"
	"github.com/countervalue/market-cache/pairid"
	"github.com/countervalue/market-cache/provider"
	"github.com/countervalue/market-cache/refresh"
	"github.com/countervalue/market-cache/store"
)

const (
	// UpdateWindow is the time buffer of the pipeline: one store write at
	// most per window, carrying the last rate seen per pair exchange.
	UpdateWindow = time.Second

	errorRestartDelay      = 60 * time.Second
	completionRestartDelay = 30 * time.Second
	autoRebootAfter        = 4 * time.Hour
	rebootWait             = 10 * time.Second
)

// Service supervises the live price subscription.
type Service struct {
	provider provider.Provider
	store    store.Store
	engine   *refresh.Engine
	debug    bool

	// overridable in tests
	window          time.Duration
	restartOnError  time.Duration
	restartOnFinish time.Duration
	rebootAfter     time.Duration
	rebootPause     time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService wires the pipeline against one provider, one store and the
// refresh engine (used to warm and watch the available pair set).
func NewService(p provider.Provider, st store.Store, engine *refresh.Engine, debug bool) *Service {
	return &Service{
		provider:        p,
		store:           st,
		engine:          engine,
		debug:           debug,
		window:          UpdateWindow,
		restartOnError:  errorRestartDelay,
		restartOnFinish: completionRestartDelay,
		rebootAfter:     autoRebootAfter,
		rebootPause:     rebootWait,
	}
}

// Start implements core.Interface
func (s *Service) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	if setter, ok := s.provider.(provider.WatchListSetter); ok {
		sub := s.engine.SubscribeOnPairsUpdate()
		sub.Watch(ctx, func() { s.pushWatchList(ctx, setter) }, false)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.supervise(ctx)
	}()
	return nil
}

// Stop implements core.Interface
func (s *Service) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Service) supervise(ctx context.Context) {
	for ctx.Err() == nil {
		// the pair set must exist before subscribing; best effort, the
		// stream itself may not need it
		if _, err := s.engine.RefreshAvailablePairExchanges(ctx); err != nil {
			log.Printf("Live rates: available pairs refresh failed: %v", err)
		}
		if setter, ok := s.provider.(provider.WatchListSetter); ok {
			s.pushWatchList(ctx, setter)
		}

		delay := s.runOnce(ctx)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return
		}
	}
}

// runOnce drives one subscription to completion and returns how long the
// supervisor should wait before the next attempt.
func (s *Service) runOnce(ctx context.Context) time.Duration {
	sub, err := s.provider.SubscribePriceUpdate(ctx)
	if err != nil {
		log.Printf("Live rates: subscribe failed: %v", err)
		return s.restartOnError
	}
	release := provider.AcquireWebsocket()
	defer release()
	defer sub.Unsubscribe()

	reboot := time.NewTimer(s.rebootAfter)
	defer reboot.Stop()
	ticker := time.NewTicker(s.window)
	defer ticker.Stop()

	pending := make(map[string]float64)
	for {
		select {
		case <-ctx.Done():
			return 0

		case <-reboot.C:
			log.Printf("Live rates: auto reboot after %s uptime", s.rebootAfter)
			s.flush(ctx, pending)
			sub.Unsubscribe()
			release()
			return s.rebootPause

		case <-ticker.C:
			s.flush(ctx, pending)
			pending = make(map[string]float64)

		case update, ok := <-sub.Updates():
			if !ok {
				s.flush(ctx, pending)
				if err := sub.Err(); err != nil {
					log.Printf("Live rates: stream failed: %v", err)
					return s.restartOnError
				}
				log.Printf("Live rates: stream completed")
				return s.restartOnFinish
			}
			if rate, ok := normalise(update); ok {
				pending[update.PairExchangeID] = rate
			}
		}
	}
}

// flush writes one coalesced batch. Empty batches never reach the store.
func (s *Service) flush(ctx context.Context, pending map[string]float64) {
	if len(pending) == 0 {
		return
	}
	batch := buildBatch(pending)
	if err := s.store.UpdateLiveRates(ctx, batch); err != nil {
		log.Printf("Live rates: batch write failed: %v", err)
		return
	}
	metrics.RecordLiveBatch(len(batch))
	if s.debug {
		log.Printf("Live rates: flushed batch of %d updates", len(batch))
	}
}

// normalise parses and converts one inbound update to a centSat rate.
// Updates for unknown tickers or malformed ids are discarded.
func normalise(update provider.PriceUpdate) (float64, bool) {
	_, from, to, err := pairid.ParseID(update.PairExchangeID)
	if err != nil {
		return 0, false
	}
	if !currencies.IsSupported(from) || !currencies.IsSupported(to) {
		return 0, false
	}
	rate, err := currencies.ToCentSatRate(from, to, update.Price)
	if err != nil {
		return 0, false
	}
	return rate, true
}

// buildBatch renders the coalesced map as a deterministic id-sorted slice.
func buildBatch(pending map[string]float64) []store.LiveRate {
	ids := make([]string, 0, len(pending))
	for id := range pending {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	batch := make([]store.LiveRate, 0, len(ids))
	for _, id := range ids {
		batch = append(batch, store.LiveRate{PairExchangeID: id, Rate: pending[id]})
	}
	return batch
}

func (s *Service) pushWatchList(ctx context.Context, setter provider.WatchListSetter) {
	pairs, err := s.engine.RefreshAvailablePairExchanges(ctx)
	if err != nil {
		log.Printf("Live rates: watch list refresh failed: %v", err)
		return
	}
	setter.SetWatchList(pairs)
}
