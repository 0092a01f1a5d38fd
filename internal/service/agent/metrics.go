package agent

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeFinished = "finished"
	outcomeForced   = "forced"
	outcomeFailed   = "failed"
)

var (
	metricRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "twin",
		Subsystem: "agent",
		Name:      "runs_total",
		Help:      "Reasoning loop runs by outcome.",
	}, []string{"outcome"})
	metricIterations = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "twin",
		Subsystem: "agent",
		Name:      "iterations",
		Help:      "Iterations used by runs that reached an answer.",
		Buckets:   prometheus.LinearBuckets(1, 1, 10),
	})
)

func recordOutcome(outcome string) {
	metricRuns.WithLabelValues(outcome).Inc()
}

func recordIterations(n int) {
	metricIterations.Observe(float64(n))
}
