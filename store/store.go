// Package store defines the persistent operations the ingestion and read
// engines rely on. Implementations live in subpackages; the engine never
// depends on a concrete database.
package store

//go:generate mockgen -destination=mocks/store.go -package=mock_store . Store

import (
	"context"
	"errors"

	"github.com/countervalue/market-cache/pairid"
)

// ErrEmptyStore means: the pair-exchange collection holds no records yet
var ErrEmptyStore = errors.New("store has no pair exchange data")

// Store is the persistence contract of the engine.
type Store interface {
	// InsertPairExchangeData inserts records that are not present yet,
	// keyed by id. Existing records are left untouched so derived data is
	// never overwritten.
	InsertPairExchangeData(ctx context.Context, records []PairExchangeRecord) error

	// UpdateLiveRates sets latest and latestDate=now for each update and
	// refreshes meta.lastLiveRatesSync.
	UpdateLiveRates(ctx context.Context, updates []LiveRate) error

	// UpdateHisto replaces the given granularity's histo wholesale.
	UpdateHisto(ctx context.Context, id string, g pairid.Granularity, histo Histo) error

	// UpdatePairExchangeStats merges the non-nil statistic fields into the
	// record.
	UpdatePairExchangeStats(ctx context.Context, id string, stats PairExchangeStats) error

	// UpdateExchanges upserts exchange metadata by id.
	UpdateExchanges(ctx context.Context, exchanges []Exchange) error

	// UpdateMarketCapCoins upserts the ranking snapshot for the day and
	// refreshes meta.lastMarketCapSync.
	UpdateMarketCapCoins(ctx context.Context, day string, coins []string) error

	// QueryPairExchangesByPairs returns records matching any of the pairs,
	// sorted by (hasHistoryFor1Year desc, yesterdayVolume desc). With
	// filterWithHistory only records with hasHistoryFor30LastDays are
	// returned.
	QueryPairExchangesByPairs(ctx context.Context, pairs []Pair, filterWithHistory bool) ([]PairExchangeRecord, error)

	// QueryPairExchangeByID returns the record or nil if absent.
	QueryPairExchangeByID(ctx context.Context, id string) (*PairExchangeRecord, error)

	// QueryPairExchangeIDs returns all ids, most recently live-updated
	// first (records that never saw a live update come last).
	QueryPairExchangeIDs(ctx context.Context) ([]string, error)

	// QueryExchanges returns all persisted exchange metadata.
	QueryExchanges(ctx context.Context) ([]Exchange, error)

	// QueryMarketCapCoinsForDay returns the snapshot for the day, or nil
	// if none was stored.
	QueryMarketCapCoinsForDay(ctx context.Context, day string) ([]string, error)

	// StatusDB fails iff the pair-exchange collection is empty or
	// unreachable.
	StatusDB(ctx context.Context) error

	// GetMeta returns the sync bookkeeping, zero instants if unset.
	GetMeta(ctx context.Context) (Meta, error)
}
