// Package prefetch warms the histo cache in the background by walking
// every known pair exchange, most recently live-updated first.
package prefetch

import (
	"context"
	"log"
	"time"

	"github.com/countervalue/market-cache/metrics"
	"github.com/countervalue/market-cache/pairid"
	"github.com/countervalue/market-cache/refresh"
	"github.com/countervalue/market-cache/scheduler"
	"github.com/countervalue/market-cache/store"
)

// Interval is the period of the warming cycle.
const Interval = 4 * time.Hour

// Service is the recurrent prefetch job.
type Service struct {
	store     store.Store
	engine    *refresh.Engine
	scheduler *scheduler.Scheduler
}

// NewService creates the prefetch job over the given engine and store.
func NewService(st store.Store, engine *refresh.Engine) *Service {
	return &Service{store: st, engine: engine}
}

// Start implements core.Interface
func (s *Service) Start(ctx context.Context) error {
	s.scheduler = scheduler.New(Interval, s.runCycle)
	s.scheduler.Start(ctx, true)
	return nil
}

// Stop implements core.Interface
func (s *Service) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// runCycle spreads one refresh of every pair over roughly the histo
// throttle window, so provider load stays flat instead of bursting.
func (s *Service) runCycle(ctx context.Context) {
	start := time.Now()
	defer metrics.RecordFetchCycle(metrics.ServiceHisto, "prefetchCycle", start)

	if _, err := s.engine.RefreshAvailablePairExchanges(ctx); err != nil {
		log.Printf("Prefetch: available pairs refresh failed: %v", err)
	}

	ids, err := s.store.QueryPairExchangeIDs(ctx)
	if err != nil {
		log.Printf("Prefetch: listing pair exchanges failed: %v", err)
		return
	}
	if len(ids) == 0 {
		return
	}

	pause := refresh.HistoWindow / time.Duration(len(ids))
	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.engine.RefreshHisto(ctx, id, pairid.Daily); err != nil {
			log.Printf("Prefetch: daily histo refresh failed for %s: %v", id, err)
		}
		if _, err := s.engine.RefreshHisto(ctx, id, pairid.Hourly); err != nil {
			log.Printf("Prefetch: hourly histo refresh failed for %s: %v", id, err)
		}
		select {
		case <-time.After(pause):
		case <-ctx.Done():
			return
		}
	}
	log.Printf("Prefetch: warmed %d pair exchanges", len(ids))
}
