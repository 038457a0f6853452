// Package refresh orchestrates the throttled provider fetches that keep
// the persisted view fresh: available pair exchanges, exchange metadata,
// and per-(pair, granularity) historical series.
package refresh

import (
	"context"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/countervalue/market-cache/currencies"
	"github.com/countervalue/market-cache/events"
	"github.com/countervalue/market-cache/metrics"
	"github.com/countervalue/market-cache/pairid"
	"github.com/countervalue/market-cache/provider"
	"github.com/countervalue/market-cache/stats"
	"github.com/countervalue/market-cache/store"
	"github.com/countervalue/market-cache/throttle"
)

// Throttle windows. The histo window is short on purpose: the real gate
// for a fully-loaded series is the historyLoadedAt fast path.
const (
	PairsWindow     = time.Hour
	ExchangesWindow = time.Hour
	HistoWindow     = 15 * time.Minute
)

// Engine owns the throttled refresh actions over one provider and one
// store.
type Engine struct {
	provider provider.Provider
	store    store.Store
	minDays  int
	now      func() time.Time

	pairs     *throttle.Action[[]provider.PairExchange]
	exchanges *throttle.Action[[]store.Exchange]
	histo     *throttle.Registry[store.Histo]

	pairsUpdated *events.SubscriptionManager
}

// NewEngine wires the refresh actions.
func NewEngine(p provider.Provider, st store.Store, minDays int) *Engine {
	e := &Engine{
		provider:     p,
		store:        st,
		minDays:      minDays,
		now:          time.Now,
		pairsUpdated: events.NewSubscriptionManager(),
	}
	e.pairs = throttle.New(PairsWindow, e.fetchAndCachePairs)
	e.exchanges = throttle.New(ExchangesWindow, e.fetchAndCacheExchanges)
	e.histo = throttle.NewRegistry(HistoWindow, e.makeHistoFetch)
	return e
}

// SubscribeOnPairsUpdate returns a subscription notified after each
// successful available-pairs refresh.
func (e *Engine) SubscribeOnPairsUpdate() events.ISubscription {
	return e.pairsUpdated.Subscribe()
}

// RefreshAvailablePairExchanges fetches and caches the available pair
// exchanges, at most once per hour.
func (e *Engine) RefreshAvailablePairExchanges(ctx context.Context) ([]provider.PairExchange, error) {
	return e.pairs.Do(ctx)
}

// RefreshExchanges fetches and caches the exchange list, at most once per
// hour.
func (e *Engine) RefreshExchanges(ctx context.Context) ([]store.Exchange, error) {
	return e.exchanges.Do(ctx)
}

// RefreshHisto fetches and caches the histo series for one
// (pairExchangeId, granularity), at most once per 15 minutes.
func (e *Engine) RefreshHisto(ctx context.Context, id string, g pairid.Granularity) (store.Histo, error) {
	return e.histo.Do(ctx, histoKey(id, g))
}

func histoKey(id string, g pairid.Granularity) string {
	return id + "|" + string(g)
}

func splitHistoKey(key string) (string, pairid.Granularity) {
	i := strings.LastIndex(key, "|")
	return key[:i], pairid.Granularity(key[i+1:])
}

func (e *Engine) fetchAndCachePairs(ctx context.Context) ([]provider.PairExchange, error) {
	start := time.Now()
	defer metrics.RecordFetchCycle(metrics.ServicePairs, "fetchAndCache", start)

	pairs, err := e.provider.FetchAvailablePairExchanges(ctx)
	if err != nil {
		return nil, err
	}

	records := make([]store.PairExchangeRecord, 0, len(pairs))
	for _, p := range pairs {
		records = append(records, defaultRecord(p))
	}
	if err := e.store.InsertPairExchangeData(ctx, records); err != nil {
		return nil, err
	}

	log.Printf("Refresh: cached %d available pair exchanges", len(records))
	e.pairsUpdated.Emit(ctx)
	return pairs, nil
}

// defaultRecord is the fresh record inserted on first sight of a pair.
// hasHistoryFor30LastDays starts true optimistically so new pairs are
// servable until the first real stats pass says otherwise.
func defaultRecord(p provider.PairExchange) store.PairExchangeRecord {
	return store.PairExchangeRecord{
		ID:                      p.ID(),
		Exchange:                p.Exchange,
		From:                    p.From,
		To:                      p.To,
		FromTo:                  p.From + "_" + p.To,
		Latest:                  0,
		LatestDate:              nil,
		HasHistoryFor30LastDays: true,
		HasHistoryFor1Year:      false,
	}
}

func (e *Engine) fetchAndCacheExchanges(ctx context.Context) ([]store.Exchange, error) {
	start := time.Now()
	defer metrics.RecordFetchCycle(metrics.ServiceExchanges, "fetchAndCache", start)

	list, err := e.provider.FetchExchanges(ctx)
	if err != nil {
		return nil, err
	}
	exchanges := make([]store.Exchange, 0, len(list))
	for _, x := range list {
		exchanges = append(exchanges, store.Exchange{ID: x.ID, Name: x.Name, Website: x.Website})
	}
	if err := e.store.UpdateExchanges(ctx, exchanges); err != nil {
		return nil, err
	}
	return exchanges, nil
}

func (e *Engine) makeHistoFetch(key string) throttle.Func[store.Histo] {
	id, g := splitHistoKey(key)
	return func(ctx context.Context) (store.Histo, error) {
		return e.fetchAndCacheHisto(ctx, id, g)
	}
}

func (e *Engine) fetchAndCacheHisto(ctx context.Context, id string, g pairid.Granularity) (store.Histo, error) {
	now := e.now()
	currentKey := g.FormatBucket(now)

	record, err := e.store.QueryPairExchangeByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// fast path: the current bucket was already fully refreshed. For
	// hourly series this gates on the hour bucket, so the provider is hit
	// at most once per hour regardless of the 15 min throttle.
	if record != nil {
		if loadedAt := record.HistoryLoadedAt(g); loadedAt != nil && *loadedAt == currentKey {
			return record.HistoFor(g), nil
		}
	}

	_, from, to, err := pairid.ParseID(id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	points, err := e.provider.FetchHistoSeries(ctx, id, g, 0)
	metrics.RecordFetchCycle(metrics.ServiceHisto, "fetchHistoSeries", start)
	if err != nil {
		log.Printf("Refresh: histo fetch failed for %s (%s), serving cached: %v", id, g, err)
		if record != nil {
			return record.HistoFor(g), nil
		}
		return nil, err
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Time.After(points[j].Time) })

	histo := make(store.Histo, len(points)+1)
	openSince := now.Add(-g.Duration())
	for _, point := range points {
		rate, err := currencies.ToCentSatRate(from, to, point.Close)
		if err != nil {
			log.Printf("Refresh: %s: dropping point at %s: %v", id, point.Time, err)
			continue
		}
		key := pairid.LatestKey
		if point.Time.Before(openSince) {
			key = g.FormatBucket(point.Time)
		}
		// points are sorted most recent first; keep the freshest per bucket
		if _, exists := histo[key]; !exists {
			histo[key] = rate
		}
	}

	if err := e.store.UpdateHisto(ctx, id, g, histo); err != nil {
		return nil, err
	}

	e.updateStatsAfterHistoRefresh(ctx, id, g, record, histo, points, now, currentKey)
	return histo, nil
}

// updateStatsAfterHistoRefresh persists historyLoadedAt, latestDate,
// yesterdayVolume and the derived statistics. Stats failures never fail
// the refresh itself.
func (e *Engine) updateStatsAfterHistoRefresh(ctx context.Context, id string, g pairid.Granularity, record *store.PairExchangeRecord, histo store.Histo, points []provider.OHLCVR, now time.Time, currentKey string) {
	base := store.PairExchangeStats{LatestDate: &now}
	switch g {
	case pairid.Hourly:
		base.HistoryLoadedAtHourly = &currentKey
	default:
		base.HistoryLoadedAtDaily = &currentKey
	}

	histoDaily := histo
	if g == pairid.Daily {
		base.YesterdayVolume = yesterdayVolume(points, now)
	} else if record != nil {
		histoDaily = record.HistoDaily
	} else {
		histoDaily = nil
	}

	if result, ok := stats.Derive(id, histoDaily, now, e.minDays); ok {
		base = result.MergeInto(base)
	}
	if err := e.store.UpdatePairExchangeStats(ctx, id, base); err != nil {
		log.Printf("Refresh: stats update failed for %s: %v", id, err)
	}
}

// yesterdayVolume picks the volume of the most recent point whose time
// falls inside yesterday's window (now-2d, now-1d]. Points are sorted
// most recent first.
func yesterdayVolume(points []provider.OHLCVR, now time.Time) *float64 {
	volume := 0.0
	lower, upper := now.Add(-48*time.Hour), now.Add(-24*time.Hour)
	for _, point := range points {
		if point.Time.After(upper) {
			continue
		}
		if point.Time.After(lower) {
			volume = point.Volume
		}
		break
	}
	return &volume
}

