package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dispatchRequestsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "logistics",
			Name:      "dispatch_requests_total",
			Help:      "Manager calls by provider, operation and outcome.",
		},
		[]string{"provider_name", "operation", "outcome"}, // outcome: success, failed, not_configured, invalid
	)

	statusPollRunsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "logistics",
			Name:      "status_poll_runs_total",
			Help:      "Status poller cycles.",
		},
		[]string{"result"},
	)

	statusChangesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "logistics",
			Name:      "status_changes_total",
			Help:      "Courier status changes detected by the poller.",
		},
		[]string{"provider_name"},
	)

	geoRefreshCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "logistics",
			Name:      "geo_refreshes_total",
			Help:      "Background refreshes of live location tables.",
		},
		[]string{"table", "result"},
	)
)
