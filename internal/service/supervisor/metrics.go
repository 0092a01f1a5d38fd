package supervisor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricRoutes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "twin",
		Subsystem: "supervisor",
		Name:      "routes_total",
		Help:      "Answered questions by persona selection route.",
	}, []string{"route"})
	metricFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "twin",
		Subsystem: "supervisor",
		Name:      "failures_total",
		Help:      "Supervisor workflows that produced no result.",
	})
)

func recordRoute(route Route) {
	metricRoutes.WithLabelValues(string(route)).Inc()
}

func recordFailure() {
	metricFailures.Inc()
}
