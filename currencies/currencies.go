// Package currencies holds the fixed registry of supported tickers and
// their decimal magnitudes, and the centSat rate conversion used across
// the whole engine.
package currencies

import (
	"errors"
	"fmt"
	"math"
)

// ErrUnknownTicker means: ticker is not present in the registry
var ErrUnknownTicker = errors.New("unknown ticker")

// Kind classifies a registry entry
type Kind int

const (
	// Coin is a native cryptocurrency (BTC, ETH, ...)
	Coin Kind = iota
	// Fiat is a government currency (USD, EUR, ...)
	Fiat
	// Token is an on-chain token (USDT, DAI, ...)
	Token
)

// Currency is one registry entry. Magnitude is the decimal exponent
// mapping one raw unit to its smallest indivisible unit (satoshi, cent,
// wei).
type Currency struct {
	Ticker    string
	Name      string
	Magnitude int
	Kind      Kind
}

// Declaration order is the order served by the tickers endpoint.
var all = []Currency{
	{"BTC", "Bitcoin", 8, Coin},
	{"ETH", "Ethereum", 18, Coin},
	{"XRP", "XRP", 6, Coin},
	{"BCH", "Bitcoin Cash", 8, Coin},
	{"LTC", "Litecoin", 8, Coin},
	{"ADA", "Cardano", 6, Coin},
	{"DOT", "Polkadot", 10, Coin},
	{"XLM", "Stellar", 7, Coin},
	{"DOGE", "Dogecoin", 8, Coin},
	{"ZEC", "Zcash", 8, Coin},
	{"DASH", "Dash", 8, Coin},
	{"ETC", "Ethereum Classic", 18, Coin},
	{"XTZ", "Tezos", 6, Coin},
	{"ATOM", "Cosmos", 6, Coin},
	{"ALGO", "Algorand", 6, Coin},
	{"TRX", "Tron", 6, Coin},
	{"EOS", "EOS", 4, Coin},
	{"XMR", "Monero", 12, Coin},
	{"QTUM", "Qtum", 8, Coin},
	{"DCR", "Decred", 8, Coin},

	{"USDT", "Tether", 6, Token},
	{"USDC", "USD Coin", 6, Token},
	{"DAI", "Dai", 18, Token},
	{"LINK", "Chainlink", 18, Token},
	{"UNI", "Uniswap", 18, Token},
	{"AAVE", "Aave", 18, Token},
	{"COMP", "Compound", 18, Token},
	{"MKR", "Maker", 18, Token},

	{"USD", "US Dollar", 2, Fiat},
	{"EUR", "Euro", 2, Fiat},
	{"GBP", "British Pound", 2, Fiat},
	{"JPY", "Japanese Yen", 0, Fiat},
	{"CHF", "Swiss Franc", 2, Fiat},
	{"CAD", "Canadian Dollar", 2, Fiat},
	{"AUD", "Australian Dollar", 2, Fiat},
	{"ZAR", "South African Rand", 2, Fiat},
	{"PLN", "Polish Zloty", 2, Fiat},
	{"RUB", "Russian Ruble", 2, Fiat},
	{"CNY", "Chinese Yuan", 2, Fiat},
	{"KRW", "South Korean Won", 0, Fiat},
	{"INR", "Indian Rupee", 2, Fiat},
	{"BRL", "Brazilian Real", 2, Fiat},
	{"SGD", "Singapore Dollar", 2, Fiat},
}

var byTicker = func() map[string]Currency {
	m := make(map[string]Currency, len(all))
	for _, c := range all {
		m[c.Ticker] = c
	}
	return m
}()

// IsSupported reports whether the ticker is present in the registry.
func IsSupported(ticker string) bool {
	_, ok := byTicker[ticker]
	return ok
}

// Magnitude returns the decimal magnitude of a ticker.
// Callers must pre-filter with IsSupported; unknown tickers fail.
func Magnitude(ticker string) (int, error) {
	c, ok := byTicker[ticker]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownTicker, ticker)
	}
	return c.Magnitude, nil
}

// ToCentSatRate converts a raw observed rate into the destination's
// smallest unit per source's smallest unit:
//
//	raw * 10^(magnitude(to) - magnitude(from))
func ToCentSatRate(from, to string, raw float64) (float64, error) {
	mf, err := Magnitude(from)
	if err != nil {
		return 0, err
	}
	mt, err := Magnitude(to)
	if err != nil {
		return 0, err
	}
	return raw * math.Pow(10, float64(mt-mf)), nil
}

// CryptoTickers returns the ordered list of coin tickers (registry order).
func CryptoTickers() []string {
	out := make([]string, 0, len(all))
	for _, c := range all {
		if c.Kind == Coin {
			out = append(out, c.Ticker)
		}
	}
	return out
}

// IsCrypto reports whether the ticker is a known coin (not fiat, not token).
func IsCrypto(ticker string) bool {
	c, ok := byTicker[ticker]
	return ok && c.Kind == Coin
}
