package tap

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsEmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "woo_records_emitted_total",
		Help: "Records written to stdout by stream",
	}, []string{"stream"})

	recordsInvalidTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "woo_records_invalid_total",
		Help: "Records emitted with validation problems by stream and reason",
	}, []string{"stream", "reason"}) // reason: missing_primary_key, bad_replication_key

	streamSyncsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "woo_stream_syncs_total",
		Help: "Finished stream syncs by stream and final status",
	}, []string{"stream", "status"})

	streamSyncDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "woo_stream_sync_duration_seconds",
		Help:    "Duration of a stream sync including its child streams",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{"stream"})
)
