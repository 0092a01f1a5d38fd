package tools

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusOK    = "ok"
	statusError = "error"
	statusPanic = "panic"
)

var metricToolInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "twin",
	Subsystem: "tools",
	Name:      "invocations_total",
	Help:      "Tool invocations by tool name and outcome.",
}, []string{"tool", "status"})

func recordInvocation(tool, status string) {
	metricToolInvocations.WithLabelValues(tool, status).Inc()
}
