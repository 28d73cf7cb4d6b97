package observability

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	rosterEventsTotal     *prometheus.CounterVec
	eventSubscribers      prometheus.Gauge
	massUpdateRecordsHist prometheus.Histogram
)

// RegisterMetrics initialises the Prometheus collectors for the roster API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "roster_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		rosterEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_events_published_total",
			Help: "Total number of roster change events delivered to subscribers.",
		}, []string{"type"})

		eventSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "roster_event_subscribers_active",
			Help: "Number of live roster event subscribers on this node.",
		})

		massUpdateRecordsHist = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "roster_mass_update_records",
			Help:    "Distribution of record counts per mass update batch.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			rosterEventsTotal,
			eventSubscribers,
			massUpdateRecordsHist,
		)
	})
}

// APIRequests exposes the counter for served requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// RosterEventsPublishedTotal exposes the roster event counter.
func RosterEventsPublishedTotal() *prometheus.CounterVec {
	RegisterMetrics()
	return rosterEventsTotal
}

// EventSubscribersActive exposes the live subscriber gauge.
func EventSubscribersActive() prometheus.Gauge {
	RegisterMetrics()
	return eventSubscribers
}

// MassUpdateRecords exposes the batch size histogram.
func MassUpdateRecords() prometheus.Histogram {
	RegisterMetrics()
	return massUpdateRecordsHist
}

// MetricsHandler serves the Prometheus scrape endpoint through Fiber.
func MetricsHandler() fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.Handler())
}
