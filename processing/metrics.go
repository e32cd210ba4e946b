package worker

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	deliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "flume",
			Subsystem: "worker",
			Name:      "deliveries_total",
			Help:      "Deliveries handled by the processing worker, by outcome.",
		},
		[]string{"outcome"},
	)
	processingSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "flume",
			Subsystem: "worker",
			Name:      "processing_seconds",
			Help:      "Wall-clock time spent transforming and persisting one record.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
		},
	)
)

func init() {
	prometheus.MustRegister(deliveriesTotal, processingSeconds)
}
