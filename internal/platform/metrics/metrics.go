package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Process-level counters. Registered on the default registry and served by
// the /metrics endpoint.
var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stakegov_http_requests_total",
		Help: "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "status"})

	PollTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stakegov_poll_transitions_total",
		Help: "Poll lifecycle transitions by resulting status.",
	}, []string{"status"})

	OutboxRelayCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stakegov_outbox_relay_cycles_total",
		Help: "Completed outbox relay cycles in the worker process.",
	})
)
