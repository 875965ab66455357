package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/technirvor/logistics_services/internal/dispatch_service/domain"
)

var (
	apiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "logistics",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Dispatch API requests by route, courier and status code.",
		},
		[]string{"method", "route", "provider", "status_code"},
	)

	apiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "logistics",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Dispatch API latency, courier round trips included.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "route"},
	)

	apiRequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "logistics",
		Subsystem: "api",
		Name:      "requests_in_flight",
		Help:      "Dispatch API requests currently being served.",
	})
)

// routeLabels reads the matched chi pattern and the {provider} URL param.
// Only known courier names are used as label values.
func routeLabels(r *http.Request) (route, provider string) {
	route, provider = "unmatched", "none"
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return route, provider
	}
	if p := rctx.RoutePattern(); p != "" {
		route = p
	}
	if raw := rctx.URLParam("provider"); raw != "" {
		provider = "unknown"
		if name, err := domain.ParseProviderName(raw); err == nil {
			provider = name.String()
		}
	}
	return route, provider
}

// PrometheusMetricsMiddleware records API traffic per route pattern and courier.
func PrometheusMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiRequestsInFlight.Inc()
		defer apiRequestsInFlight.Dec()

		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route, provider := routeLabels(r)
		apiRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		apiRequestsTotal.WithLabelValues(r.Method, route, provider, strconv.Itoa(status)).Inc()
	})
}
