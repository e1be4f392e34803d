// Package metric holds the Prometheus collectors exported on /metrics.
package metric

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	BackendCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oneview_redfish",
			Name:      "backend_calls_total",
			Help:      "OneView API calls by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	ErrorResponses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "oneview_redfish",
			Name:      "error_responses_total",
			Help:      "Redfish error responses by HTTP status and Redfish error code.",
		},
		[]string{"status", "code"},
	)

	initOnce sync.Once
)

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(BackendCalls, ErrorResponses)
	})
}

func ObserveBackendCall(operation, outcome string) {
	BackendCalls.WithLabelValues(operation, outcome).Inc()
}

func ObserveErrorResponse(status int, code string) {
	ErrorResponses.WithLabelValues(strconv.Itoa(status), code).Inc()
}
