package metrics

import (
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsPrefix is the prefix used for all metrics
const MetricsPrefix = "countervalue_"

// Service constants
const (
	ServicePairs     = "pairs"
	ServiceExchanges = "exchanges"
	ServiceHisto     = "histo"
	ServiceMarketCap = "marketcap"
	ServiceLiveRates = "live-rates"
)

var (
	// FetchDurationHistogram tracks the duration of provider fetch operations
	// Cardinality: ~5 services x 2 operations
	FetchDurationHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: MetricsPrefix + "fetch_duration_seconds",
			Help: "Time taken to fetch data from the market data provider",
		},
		[]string{"service", "operation"},
	)

	// ProviderRequestsTotal counts outbound provider HTTP requests by status
	// Cardinality: ~5 (success, error, rate_limited, timeout)
	ProviderRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricsPrefix + "provider_requests_total",
			Help: "Total number of HTTP requests to the market data provider",
		},
		[]string{"status"},
	)

	// LiveRateUpdatesTotal counts coalesced live rate writes to the store
	LiveRateUpdatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricsPrefix + "live_rate_updates_total",
			Help: "Total number of live rate updates written to the store",
		},
	)

	// LiveBatchSizeHistogram tracks the size of flushed live rate batches
	LiveBatchSizeHistogram = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    MetricsPrefix + "live_batch_size",
			Help:    "Number of coalesced updates per live rate batch",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	// WebsocketConnectionsGauge tracks open provider subscriptions
	WebsocketConnectionsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricsPrefix + "websocket_connections",
			Help: "Number of currently open provider websocket subscriptions",
		},
	)
)

// RecordFetchCycle measures and records the duration of a refresh cycle
func RecordFetchCycle(service, operation string, start time.Time) {
	duration := time.Since(start)
	FetchDurationHistogram.WithLabelValues(service, operation).Observe(duration.Seconds())
	log.Printf("Metrics: %s %s took %.2fs", service, operation, duration.Seconds())
}

// RecordProviderRequest counts one outbound provider request by status
func RecordProviderRequest(status string) {
	ProviderRequestsTotal.WithLabelValues(status).Inc()
}

// RecordLiveBatch records one flushed live rate batch
func RecordLiveBatch(size int) {
	LiveBatchSizeHistogram.Observe(float64(size))
	LiveRateUpdatesTotal.Add(float64(size))
}

// SetWebsocketConnections sets the open subscription gauge
func SetWebsocketConnections(n int) {
	WebsocketConnectionsGauge.Set(float64(n))
}
