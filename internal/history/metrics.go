package history

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	scanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "settle",
			Subsystem: "history",
			Name:      "scan_duration_seconds",
			Help:      "The duration of one address history scan",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	transactionsFetched = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "settle",
			Subsystem: "history",
			Name:      "transactions_fetched_total",
			Help:      "The total number of transactions fetched by history scans",
		},
	)

	scanOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "settle",
			Subsystem: "history",
			Name:      "scan_outcomes_total",
			Help:      "The number of finished history scans by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(scanDuration)
	prometheus.MustRegister(transactionsFetched)
	prometheus.MustRegister(scanOutcomes)
}

func traceScan(outcome string, duration time.Duration) {
	scanDuration.Observe(duration.Seconds())
	scanOutcomes.With(prometheus.Labels{"outcome": outcome}).Inc()
}
