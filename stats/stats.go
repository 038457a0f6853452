// Package stats computes per-pair freshness and quality statistics from
// daily historical series.
package stats

import (
	"log"
	"math"
	"time"

	"github.com/countervalue/market-cache/pairid"
	"github.com/countervalue/market-cache/store"
)

// MaxRatio is the max/min spread over the last 30 days beyond which a
// series is considered unusable.
const MaxRatio = 1000

const oneDay = 24 * time.Hour

// Result is the derived statistic set.
type Result struct {
	OldestDayAgo            int
	HasHistoryFor1Year      bool
	HasHistoryFor30LastDays bool
	HistoryCount            int
	Ratio                   float64
}

// Derive computes the statistics for a daily histo. Returns ok=false when
// the histo carries no closed buckets, in which case nothing should be
// persisted.
func Derive(id string, histoDaily store.Histo, now time.Time, minDays int) (Result, bool) {
	var oldest time.Time
	found := false
	for key := range histoDaily {
		if key == pairid.LatestKey {
			continue
		}
		day, err := pairid.Daily.ParseBucket(key)
		if err != nil {
			log.Printf("Stats: %s: skipping malformed bucket key %q", id, key)
			continue
		}
		if !found || day.Before(oldest) {
			oldest = day
			found = true
		}
	}
	if !found {
		return Result{}, false
	}

	var result Result
	result.OldestDayAgo = int(math.Floor(float64(now.Sub(oldest)) / float64(oneDay)))
	result.HasHistoryFor1Year = result.OldestDayAgo > 365

	min, max := math.NaN(), math.NaN()
	observe := func(rate float64) {
		if math.IsNaN(min) || rate < min {
			min = rate
		}
		if math.IsNaN(max) || rate > max {
			max = rate
		}
	}

	if latest, ok := histoDaily[pairid.LatestKey]; ok {
		result.HistoryCount++
		observe(latest)
	}

	// the 30 most recent closed buckets, UTC day-aligned
	today := now.UTC().Truncate(24 * time.Hour)
	for i := 1; i <= 30; i++ {
		key := pairid.Daily.FormatBucket(today.AddDate(0, 0, -i))
		if rate, ok := histoDaily[key]; ok && rate > 0 {
			result.HistoryCount++
			observe(rate)
		}
	}

	result.Ratio = max / min
	invalidRatio := result.Ratio <= 0 || math.IsInf(result.Ratio, 0) || math.IsNaN(result.Ratio)
	if !invalidRatio && result.Ratio >= MaxRatio {
		log.Printf("Stats: ExtremeRatioFound ratio=%.2f for %s", result.Ratio, id)
	}

	result.HasHistoryFor30LastDays = result.HistoryCount >= minDays &&
		!invalidRatio &&
		result.Ratio < MaxRatio

	return result, true
}

// MergeInto copies the derived fields onto a partial stats update.
func (r Result) MergeInto(base store.PairExchangeStats) store.PairExchangeStats {
	oldest := r.OldestDayAgo
	year := r.HasHistoryFor1Year
	month := r.HasHistoryFor30LastDays
	base.OldestDayAgo = &oldest
	base.HasHistoryFor1Year = &year
	base.HasHistoryFor30LastDays = &month
	return base
}
