package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	SubmitsAcceptedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playerdata_submits_accepted_total",
		Help: "The total number of player data submissions accepted into the queue",
	})
	AuthFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playerdata_auth_failures_total",
		Help: "The total number of requests rejected for missing or invalid signatures",
	})
	QueuePushErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playerdata_queue_push_errors_total",
		Help: "The total number of errors occurred while pushing to the ingestion queue",
	})

	// Processor Metrics
	BatchesFlushedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playerdata_batches_flushed_total",
		Help: "The total number of batches committed to PostgreSQL",
	})
	FlushErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playerdata_flush_errors_total",
		Help: "The total number of batch commit failures",
	})
	ItemsRequeuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playerdata_items_requeued_total",
		Help: "The total number of items returned to the queue after a failed commit",
	})
	ItemsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "playerdata_items_dropped_total",
		Help: "The total number of malformed queue entries dropped during a drain",
	})
	FlushLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "playerdata_flush_latency_seconds",
		Help:    "Latency of batch UPSERT transactions",
		Buckets: prometheus.DefBuckets,
	})
	LastBatchSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "playerdata_last_batch_size",
		Help: "Number of items drained in the most recent processing cycle",
	})
)
