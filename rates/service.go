// Package rates is the pure-read query facade behind the HTTP layer. It
// prefers serving stale persisted data over failing a request.
package rates

import (
	"context"
	"log"
	"strings"

	"github.com/countervalue/market-cache/config"
	"github.com/countervalue/market-cache/currencies"
	"github.com/countervalue/market-cache/pairid"
	"github.com/countervalue/market-cache/refresh"
	"github.com/countervalue/market-cache/store"
)

// RequestPair is one pair of a histo query, optionally pinned to an
// exchange and filtered by bucket key.
type RequestPair struct {
	From     string
	To       string
	Exchange string
	// After retains only bucket keys strictly greater than it.
	After string
	// At, when non-empty, retains exactly the listed keys and wins over
	// After.
	At []string
}

// PairData maps bucket keys (plus "latest") to centSat rates.
type PairData map[string]float64

// HistoResponse nests PairData under to, then from, then exchange.
type HistoResponse map[string]map[string]map[string]PairData

// Service answers read queries from the store, nudging the refresh
// engine along the way.
type Service struct {
	engine *refresh.Engine
	store  store.Store
	cfg    *config.Config
}

func NewService(engine *refresh.Engine, st store.Store, cfg *config.Config) *Service {
	return &Service{engine: engine, store: st, cfg: cfg}
}

// GetHisto resolves each requested pair to its best candidate record and
// returns the filtered series. Refresh failures are logged and the
// persisted view served instead.
func (s *Service) GetHisto(ctx context.Context, requestPairs []RequestPair, g pairid.Granularity) (HistoResponse, error) {
	if _, err := s.engine.RefreshAvailablePairExchanges(ctx); err != nil {
		log.Printf("Rates: pair refresh failed, serving stored view: %v", err)
	}

	pairs := make([]store.Pair, 0, len(requestPairs))
	for _, rp := range requestPairs {
		pairs = append(pairs, store.Pair{From: rp.From, To: rp.To})
	}
	records, err := s.store.QueryPairExchangesByPairs(ctx, pairs, false)
	if err != nil {
		return nil, err
	}

	response := make(HistoResponse)
	for _, rp := range requestPairs {
		record := s.pickCandidate(records, rp)
		if record == nil {
			continue
		}

		histo, err := s.engine.RefreshHisto(ctx, record.ID, g)
		if err != nil {
			log.Printf("Rates: histo refresh for %s failed, serving stored view: %v", record.ID, err)
			histo = record.HistoFor(g)
		}

		data := filterKeys(histo, rp)
		data[pairid.LatestKey] = record.Latest

		byFrom, ok := response[rp.To]
		if !ok {
			byFrom = make(map[string]map[string]PairData)
			response[rp.To] = byFrom
		}
		byExchange, ok := byFrom[rp.From]
		if !ok {
			byExchange = make(map[string]PairData)
			byFrom[rp.From] = byExchange
		}
		byExchange[record.Exchange] = data
	}
	return response, nil
}

// pickCandidate selects the record answering the request pair. Records
// come pre-sorted by (hasHistoryFor1Year desc, yesterdayVolume desc) so
// the first eligible match is the top-ranked one.
func (s *Service) pickCandidate(records []store.PairExchangeRecord, rp RequestPair) *store.PairExchangeRecord {
	for i := range records {
		record := &records[i]
		if record.From != rp.From || record.To != rp.To {
			continue
		}
		if s.cfg.IsBlacklisted(record.Exchange) {
			continue
		}
		if !record.HasHistoryFor30LastDays {
			continue
		}
		if rp.Exchange != "" {
			if strings.EqualFold(record.Exchange, rp.Exchange) {
				return record
			}
			continue
		}
		return record
	}
	return nil
}

func filterKeys(histo store.Histo, rp RequestPair) PairData {
	data := make(PairData, len(histo))
	if len(rp.At) > 0 {
		for _, key := range rp.At {
			if rate, ok := histo[key]; ok {
				data[key] = rate
			}
		}
		return data
	}
	for key, rate := range histo {
		if key == pairid.LatestKey {
			continue
		}
		if rp.After != "" && key <= rp.After {
			continue
		}
		data[key] = rate
	}
	return data
}

// GetExchanges lists the exchanges with usable history for the pair.
// Metadata comes from the refreshed exchange list when known, else it is
// synthesised from the pair-exchange id.
func (s *Service) GetExchanges(ctx context.Context, from, to string) ([]store.Exchange, error) {
	known, err := s.engine.RefreshExchanges(ctx)
	if err != nil {
		log.Printf("Rates: exchange refresh failed, serving stored view: %v", err)
		if known, err = s.store.QueryExchanges(ctx); err != nil {
			return nil, err
		}
	}
	byID := make(map[string]store.Exchange, len(known))
	for _, exchange := range known {
		byID[exchange.ID] = exchange
	}

	records, err := s.store.QueryPairExchangesByPairs(ctx,
		[]store.Pair{{From: from, To: to}}, true)
	if err != nil {
		return nil, err
	}

	exchanges := make([]store.Exchange, 0, len(records))
	for _, record := range records {
		if s.cfg.IsBlacklisted(record.Exchange) {
			continue
		}
		if exchange, ok := byID[record.Exchange]; ok {
			exchanges = append(exchanges, exchange)
			continue
		}
		exchanges = append(exchanges, store.Exchange{
			ID:   record.Exchange,
			Name: record.Exchange,
		})
	}
	return exchanges, nil
}

// GetTickers returns the supported crypto tickers in registry order.
func (s *Service) GetTickers() []string {
	return currencies.CryptoTickers()
}
