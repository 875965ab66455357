package geo

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	geoCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "logistics",
			Subsystem: "geo",
			Name:      "cache_lookups_total",
			Help:      "Live geo table cache lookups.",
		},
		[]string{"table", "result"}, // result: hit, miss
	)

	geoFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "logistics",
			Subsystem: "geo",
			Name:      "fetch_errors_total",
			Help:      "Failed fetches of courier location lists.",
		},
		[]string{"table"},
	)
)
