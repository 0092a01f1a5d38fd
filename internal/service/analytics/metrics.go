package analytics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "twin",
		Subsystem: "analytics",
		Name:      "writes_total",
		Help:      "Analytics records written by category and outcome.",
	}, []string{"category", "status"})

	metricDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "twin",
		Subsystem: "analytics",
		Name:      "dropped_total",
		Help:      "Analytics records dropped because the queue was full or closed.",
	}, []string{"category"})
)

func recordWrite(category, status string) {
	metricWrites.WithLabelValues(category, status).Inc()
}

func recordDropped(category string) {
	metricDropped.WithLabelValues(category).Inc()
}
