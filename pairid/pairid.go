// Package pairid implements the canonical PairExchange identifier
// <EXCHANGE>_<FROM>_<TO> and the time-bucket key formats used by
// historical series.
package pairid

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidID means: a pair-exchange id does not have the EXCHANGE_FROM_TO shape
var ErrInvalidID = errors.New("invalid pair exchange id")

// ErrInvalidBucketKey means: a bucket key does not parse for the granularity
var ErrInvalidBucketKey = errors.New("invalid bucket key")

// LatestKey is the reserved histo key for the currently open bucket.
const LatestKey = "latest"

// Granularity is the closed set of supported bucket widths.
type Granularity string

const (
	// Daily buckets are 86400000 ms wide, keyed YYYY-MM-DD
	Daily Granularity = "daily"
	// Hourly buckets are 3600000 ms wide, keyed YYYY-MM-DDTHH
	Hourly Granularity = "hourly"
)

const (
	dailyLayout  = "2006-01-02"
	hourlyLayout = "2006-01-02T15"
)

// Valid reports whether g is a known granularity.
func (g Granularity) Valid() bool {
	return g == Daily || g == Hourly
}

// Duration returns the bucket width.
func (g Granularity) Duration() time.Duration {
	if g == Hourly {
		return time.Hour
	}
	return 24 * time.Hour
}

// FormatBucket renders the canonical, zero-padded, UTC bucket key of t.
func (g Granularity) FormatBucket(t time.Time) string {
	if g == Hourly {
		return t.UTC().Format(hourlyLayout)
	}
	return t.UTC().Format(dailyLayout)
}

// ParseBucket recovers the bucket start instant from a key. Hourly keys
// carry no minutes; :00 is implied.
func (g Granularity) ParseBucket(key string) (time.Time, error) {
	layout := dailyLayout
	if g == Hourly {
		layout = hourlyLayout
	}
	t, err := time.Parse(layout, key)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q (%s)", ErrInvalidBucketKey, key, g)
	}
	return t.UTC(), nil
}

// BuildID produces the canonical id exchange + "_" + from + "_" + to.
func BuildID(exchange, from, to string) string {
	return exchange + "_" + from + "_" + to
}

// ParseID splits a canonical id back into its triple. Exchange ids may
// themselves contain underscores; the two ticker segments never do, so
// the split anchors on the last two separators.
func ParseID(id string) (exchange, from, to string, err error) {
	last := strings.LastIndex(id, "_")
	if last <= 0 {
		return "", "", "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	prev := strings.LastIndex(id[:last], "_")
	if prev <= 0 {
		return "", "", "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	exchange, from, to = id[:prev], id[prev+1:last], id[last+1:]
	if from == "" || to == "" {
		return "", "", "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return exchange, from, to, nil
}
