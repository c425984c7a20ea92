package proposal

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	pendingGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "settle",
			Subsystem: "proposal",
			Name:      "pending",
			Help:      "The number of proposals currently watched",
		},
	)

	pollCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "settle",
			Subsystem: "proposal",
			Name:      "polls_total",
			Help:      "The total number of proposal status queries by result",
		},
		[]string{"result"},
	)

	outcomeCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "settle",
			Subsystem: "proposal",
			Name:      "outcomes_total",
			Help:      "The total number of settled registrations by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(pendingGauge)
	prometheus.MustRegister(pollCounter)
	prometheus.MustRegister(outcomeCounter)
}
