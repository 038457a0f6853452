// Package provider defines the capability set a market-data source must
// satisfy. Concrete adapters live in subpackages and are selected by
// configuration.
package provider

//go:generate mockgen -destination=mocks/provider.go -package=mock_provider . Provider,Subscription

import (
	"context"
	"errors"
	"time"

	"github.com/countervalue/market-cache/pairid"
)

var (
	// ErrTransient means: a retryable provider failure (5xx, timeout,
	// disconnect). Retried by the next throttle window or restart loop.
	ErrTransient = errors.New("transient provider error")

	// ErrBadPayload means: the provider returned a payload we cannot parse.
	// The item is skipped, not retried.
	ErrBadPayload = errors.New("unparseable provider payload")
)

// MaxFetchPages is the hard safety cap on internal pagination loops.
// Hitting it is logged, never fatal.
const MaxFetchPages = 100

// PairExchange identifies a specific exchange's offering of a trading pair.
type PairExchange struct {
	Exchange string
	From     string
	To       string
}

// ID returns the canonical EXCHANGE_FROM_TO id.
func (p PairExchange) ID() string {
	return pairid.BuildID(p.Exchange, p.From, p.To)
}

// Exchange is exchange metadata as reported by a provider.
type Exchange struct {
	ID      string
	Name    string
	Website string
}

// OHLCVR is one historical datapoint as produced by providers. Close and
// Volume are raw units; centSat conversion happens in the engine.
type OHLCVR struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceUpdate is one streamed price event, already filtered to supported
// tickers. Price is raw; the pipeline converts it.
type PriceUpdate struct {
	PairExchangeID string
	Price          float64
}

// Subscription is a handle on one open price stream.
type Subscription interface {
	// Updates is closed when the stream ends, whether naturally or on error.
	Updates() <-chan PriceUpdate
	// Err reports why Updates closed; nil on natural completion.
	Err() error
	// Unsubscribe closes the underlying transport exactly once. Safe for
	// repeated calls.
	Unsubscribe()
}

// Provider is the market-data source contract.
type Provider interface {
	// Init performs the one-time readiness check (credentials, endpoints).
	Init(ctx context.Context) error

	// FetchAvailablePairExchanges enumerates all spot pairs whose two
	// tickers are supported by the currency registry.
	FetchAvailablePairExchanges(ctx context.Context) ([]PairExchange, error)

	// FetchExchanges lists the exchanges the provider knows about.
	FetchExchanges(ctx context.Context) ([]Exchange, error)

	// FetchHistoSeries returns up to limit historical points for the pair
	// exchange at the given granularity. Point order is unspecified;
	// callers sort. limit <= 0 means the provider's default depth.
	FetchHistoSeries(ctx context.Context, pairExchangeID string, g pairid.Granularity, limit int) ([]OHLCVR, error)

	// SubscribePriceUpdate opens one price stream. Reconnect policy is the
	// caller's.
	SubscribePriceUpdate(ctx context.Context) (Subscription, error)
}

// WatchListSetter is implemented by providers whose stream subscribes
// per-pair and therefore needs the available pair set pushed in.
type WatchListSetter interface {
	SetWatchList(pairs []PairExchange)
}
