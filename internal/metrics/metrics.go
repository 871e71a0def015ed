package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for upstream calls.
const (
	OutcomeOK       = "ok"
	OutcomeCached   = "cached"
	OutcomeNotFound = "not_found"
	OutcomeStatus   = "bad_status"
	OutcomeError    = "error"
	OutcomeOpen     = "circuit_open"
	OutcomeCanceled = "canceled"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	upstreamRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "country_insights",
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Total number of upstream API requests by source and outcome.",
		},
		[]string{"source", "outcome"},
	)

	upstreamDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "country_insights",
			Subsystem: "upstream",
			Name:      "request_duration_seconds",
			Help:      "Duration of upstream API requests that reached the network.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		},
		[]string{"source"},
	)

	favoritesSaved = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "country_insights",
			Subsystem: "favorites",
			Name:      "saved_countries",
			Help:      "Number of countries currently saved as favorites.",
		},
	)
)

func init() {
	Registry.MustRegister(upstreamRequests, upstreamDuration, favoritesSaved)
}

// ObserveUpstream records one upstream call. Zero durations (cache hits) are
// counted but not timed.
func ObserveUpstream(source, outcome string, d time.Duration) {
	upstreamRequests.WithLabelValues(source, outcome).Inc()
	if d > 0 {
		upstreamDuration.WithLabelValues(source).Observe(d.Seconds())
	}
}

// SetFavorites publishes the current favorites count.
func SetFavorites(n int) {
	favoritesSaved.Set(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
