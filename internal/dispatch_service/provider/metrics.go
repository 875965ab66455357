package provider

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	courierRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "logistics",
			Subsystem: "courier",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests to courier APIs.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"provider_name", "operation"},
	)

	courierRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "logistics",
			Subsystem: "courier",
			Name:      "requests_total",
			Help:      "Courier API requests by outcome.",
		},
		[]string{"provider_name", "operation", "outcome"}, // ok, http_error, transport_error, decode_error
	)

	pathaoTokenFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "logistics",
			Subsystem: "courier",
			Name:      "pathao_token_fetches_total",
			Help:      "Pathao password-grant token exchanges.",
		},
		[]string{"result"},
	)
)
