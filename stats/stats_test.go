package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/countervalue/market-cache/pairid"
	"github.com/countervalue/market-cache/store"
)

var now = time.Date(2023, 6, 15, 12, 0, 0, 0, time.UTC)

// histoDays builds a daily histo with the given rate for the n most
// recent closed buckets.
func histoDays(n int, rate float64) store.Histo {
	histo := store.Histo{}
	today := now.UTC().Truncate(24 * time.Hour)
	for i := 1; i <= n; i++ {
		histo[pairid.Daily.FormatBucket(today.AddDate(0, 0, -i))] = rate
	}
	return histo
}

func TestDeriveEmptyHistoIsNoop(t *testing.T) {
	_, ok := Derive("KRAKEN_BTC_USD", store.Histo{}, now, 20)
	assert.False(t, ok)

	// a histo holding only "latest" has no closed buckets
	_, ok = Derive("KRAKEN_BTC_USD", store.Histo{pairid.LatestKey: 1.0}, now, 20)
	assert.False(t, ok)
}

func TestDeriveFullHistory(t *testing.T) {
	histo := histoDays(30, 0.5)
	histo[pairid.LatestKey] = 0.6

	result, ok := Derive("KRAKEN_BTC_USD", histo, now, 20)
	require.True(t, ok)

	// 30 closed buckets plus latest
	assert.Equal(t, 31, result.HistoryCount)
	assert.True(t, result.HasHistoryFor30LastDays)
	assert.False(t, result.HasHistoryFor1Year)
	assert.Equal(t, 30, result.OldestDayAgo)
	assert.InDelta(t, 1.2, result.Ratio, 1e-9)
}

func TestDeriveSparseHistoryBelowMinDays(t *testing.T) {
	result, ok := Derive("KRAKEN_BTC_USD", histoDays(10, 0.5), now, 20)
	require.True(t, ok)
	assert.Equal(t, 10, result.HistoryCount)
	assert.False(t, result.HasHistoryFor30LastDays)
}

func TestDeriveZeroRatesDoNotCount(t *testing.T) {
	histo := histoDays(30, 0)
	result, ok := Derive("KRAKEN_BTC_USD", histo, now, 20)
	require.True(t, ok)
	assert.Equal(t, 0, result.HistoryCount)
	// min/max never observed: ratio is NaN, hence invalid
	assert.False(t, result.HasHistoryFor30LastDays)
}

func TestDeriveExtremeRatioInvalidates(t *testing.T) {
	histo := histoDays(30, 1)
	today := now.UTC().Truncate(24 * time.Hour)
	histo[pairid.Daily.FormatBucket(today.AddDate(0, 0, -3))] = 5000

	result, ok := Derive("KRAKEN_BTC_USD", histo, now, 20)
	require.True(t, ok)
	assert.GreaterOrEqual(t, result.Ratio, float64(MaxRatio))
	assert.False(t, result.HasHistoryFor30LastDays)
}

func TestDeriveOneYearHistory(t *testing.T) {
	histo := histoDays(30, 1)
	today := now.UTC().Truncate(24 * time.Hour)
	histo[pairid.Daily.FormatBucket(today.AddDate(0, 0, -400))] = 1

	result, ok := Derive("KRAKEN_BTC_USD", histo, now, 20)
	require.True(t, ok)
	assert.Greater(t, result.OldestDayAgo, 365)
	assert.True(t, result.HasHistoryFor1Year)
}

func TestDeriveOldestDayAgoMonotonic(t *testing.T) {
	histo := histoDays(30, 1)
	first, ok := Derive("KRAKEN_BTC_USD", histo, now, 20)
	require.True(t, ok)

	// history only grows: oldestDayAgo never decreases
	today := now.UTC().Truncate(24 * time.Hour)
	histo[pairid.Daily.FormatBucket(today.AddDate(0, 0, -60))] = 1
	second, ok := Derive("KRAKEN_BTC_USD", histo, now, 20)
	require.True(t, ok)
	assert.GreaterOrEqual(t, second.OldestDayAgo, first.OldestDayAgo)

	third, ok := Derive("KRAKEN_BTC_USD", histo, now.Add(48*time.Hour), 20)
	require.True(t, ok)
	assert.GreaterOrEqual(t, third.OldestDayAgo, second.OldestDayAgo)
}

func TestMergeInto(t *testing.T) {
	result := Result{OldestDayAgo: 12, HasHistoryFor1Year: false, HasHistoryFor30LastDays: true}
	volume := 5.0
	merged := result.MergeInto(store.PairExchangeStats{YesterdayVolume: &volume})

	require.NotNil(t, merged.OldestDayAgo)
	assert.Equal(t, 12, *merged.OldestDayAgo)
	assert.False(t, *merged.HasHistoryFor1Year)
	assert.True(t, *merged.HasHistoryFor30LastDays)
	assert.Equal(t, 5.0, *merged.YesterdayVolume)
	assert.Nil(t, merged.LatestDate)
}
