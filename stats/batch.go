package stats

import (
	"context"
	"log"
	"time"

	"github.com/countervalue/market-cache/metrics"
	"github.com/countervalue/market-cache/scheduler"
	"github.com/countervalue/market-cache/store"
)

// BatchInterval is how often the batch job recomputes statistics for
// every known pair exchange.
const BatchInterval = 6 * time.Hour

// BatchJob recomputes statistics for all pair exchanges on a schedule.
// Runs in the sync process alongside the prefetcher.
type BatchJob struct {
	store     store.Store
	minDays   int
	scheduler *scheduler.Scheduler
}

// NewBatchJob creates the recurrent stats job.
func NewBatchJob(st store.Store, minDays int) *BatchJob {
	return &BatchJob{store: st, minDays: minDays}
}

// Start implements core.Interface
func (j *BatchJob) Start(ctx context.Context) error {
	j.scheduler = scheduler.New(BatchInterval, j.runCycle)
	j.scheduler.Start(ctx, false)
	return nil
}

// Stop implements core.Interface
func (j *BatchJob) Stop() {
	if j.scheduler != nil {
		j.scheduler.Stop()
	}
}

func (j *BatchJob) runCycle(ctx context.Context) {
	start := time.Now()
	defer metrics.RecordFetchCycle(metrics.ServiceHisto, "statsBatch", start)

	ids, err := j.store.QueryPairExchangeIDs(ctx)
	if err != nil {
		log.Printf("Stats batch: listing pair exchanges failed: %v", err)
		return
	}

	updated := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		record, err := j.store.QueryPairExchangeByID(ctx, id)
		if err != nil || record == nil {
			continue
		}
		result, ok := Derive(id, record.HistoDaily, time.Now(), j.minDays)
		if !ok {
			continue
		}
		if err := j.store.UpdatePairExchangeStats(ctx, id, result.MergeInto(store.PairExchangeStats{})); err != nil {
			log.Printf("Stats batch: updating %s failed: %v", id, err)
			continue
		}
		updated++
	}
	log.Printf("Stats batch: recomputed %d/%d pair exchanges", updated, len(ids))
}
