package store

import (
	"time"

	"github.com/countervalue/market-cache/pairid"
)

// Histo maps bucket keys to centSat rates. The reserved "latest" key, if
// present, is the currently open bucket at write time.
type Histo map[string]float64

// Pair is an exchange-agnostic (from, to) ticker pair.
type Pair struct {
	From string
	To   string
}

// Key is the from_to index form of the pair.
func (p Pair) Key() string {
	return p.From + "_" + p.To
}

// LiveRate is one coalesced live price update per pair-exchange id.
type LiveRate struct {
	PairExchangeID string
	Rate           float64
}

// Exchange is the persisted exchange metadata.
type Exchange struct {
	ID      string `bson:"id" json:"id"`
	Name    string `bson:"name" json:"name"`
	Website string `bson:"website,omitempty" json:"website,omitempty"`
}

// Meta is the singleton sync bookkeeping document. Instants are zero when
// the corresponding sync never ran.
type Meta struct {
	LastLiveRatesSync time.Time `bson:"lastLiveRatesSync"`
	LastMarketCapSync time.Time `bson:"lastMarketCapSync"`
}

// PairExchangeRecord is the persisted entity, one per pair-exchange id.
// Histo refresh, stats updates, and live-rate writes touch disjoint field
// sets; each field is independently fresh.
type PairExchangeRecord struct {
	ID       string `bson:"id"`
	Exchange string `bson:"exchange"`
	From     string `bson:"from"`
	To       string `bson:"to"`
	FromTo   string `bson:"from_to"`

	HistoDaily  Histo `bson:"histo_daily,omitempty"`
	HistoHourly Histo `bson:"histo_hourly,omitempty"`

	Latest     float64    `bson:"latest"`
	LatestDate *time.Time `bson:"latestDate"`

	YesterdayVolume         float64 `bson:"yesterdayVolume"`
	OldestDayAgo            int     `bson:"oldestDayAgo"`
	HasHistoryFor1Year      bool    `bson:"hasHistoryFor1Year"`
	HasHistoryFor30LastDays bool    `bson:"hasHistoryFor30LastDays"`

	HistoryLoadedAtDaily  *string `bson:"historyLoadedAt_daily"`
	HistoryLoadedAtHourly *string `bson:"historyLoadedAt_hourly"`
}

// Histo returns the series for the given granularity.
func (r *PairExchangeRecord) HistoFor(g pairid.Granularity) Histo {
	if g == pairid.Hourly {
		return r.HistoHourly
	}
	return r.HistoDaily
}

// HistoryLoadedAt returns the bucket key at which the granularity was last
// fully refreshed, or nil if never.
func (r *PairExchangeRecord) HistoryLoadedAt(g pairid.Granularity) *string {
	if g == pairid.Hourly {
		return r.HistoryLoadedAtHourly
	}
	return r.HistoryLoadedAtDaily
}

// PairExchangeStats is a partial update of derived statistic fields.
// Writers set only the fields they computed; nil fields are left alone.
type PairExchangeStats struct {
	YesterdayVolume         *float64
	OldestDayAgo            *int
	HasHistoryFor1Year      *bool
	HasHistoryFor30LastDays *bool
	HistoryLoadedAtDaily    *string
	HistoryLoadedAtHourly   *string
	LatestDate              *time.Time
}

// MarketCapSnapshot is the daily crypto ranking, most capitalised first.
type MarketCapSnapshot struct {
	Day   string   `bson:"day"`
	Coins []string `bson:"coins"`
}
