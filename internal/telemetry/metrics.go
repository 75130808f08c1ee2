package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	writeFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "search_telemetry_write_failures_total",
		Help: "Telemetry writes that failed and were dropped.",
	}, []string{"operation"})

	writes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "search_telemetry_writes_total",
		Help: "Telemetry writes that succeeded.",
	}, []string{"operation"})
)
