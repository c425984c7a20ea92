package executor

import (
	"github.com/prometheus/client_golang/prometheus"
)

var executionCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "settle",
		Subsystem: "executor",
		Name:      "executions_total",
		Help:      "The total number of executed action requests",
	},
	[]string{"mode", "outcome"},
)

func init() {
	prometheus.MustRegister(executionCounter)
}

func traceExecution(mode Mode, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	executionCounter.With(prometheus.Labels{"mode": mode.String(), "outcome": outcome}).Inc()
}
