// Package metrics exposes the Prometheus collectors for geocoding and the
// HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mappoint"

// Metrics exposes application metrics that are safe to scrape via Prometheus.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry            *prometheus.Registry
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	geocodeRequests     *prometheus.CounterVec
	geocodeDuration     *prometheus.HistogramVec
	annotatedFields     prometheus.Gauge
}

// New creates a fresh registry with HTTP and geocoding metrics registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Count of HTTP requests served",
	}, []string{"method", "path", "status"})

	httpRequestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests served",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	geocodeRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "geocode_requests_total",
		Help:      "Geocode lookups by provider and outcome",
	}, []string{"provider", "outcome"})

	geocodeDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "geocode_duration_seconds",
		Help:      "Latency of upstream geocode requests",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"provider"})

	annotatedFields := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "annotated_point_fields",
		Help:      "Number of point fields carrying map-point metadata",
	})

	registry.MustRegister(
		httpRequests,
		httpRequestDuration,
		geocodeRequests,
		geocodeDuration,
		annotatedFields,
	)

	return &Metrics{
		registry:            registry,
		httpRequests:        httpRequests,
		httpRequestDuration: httpRequestDuration,
		geocodeRequests:     geocodeRequests,
		geocodeDuration:     geocodeDuration,
		annotatedFields:     annotatedFields,
	}
}

// ObserveHTTPRequest records a single HTTP request/response cycle.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(duration.Seconds())
}

// ObserveGeocode records one geocode lookup. duration is zero when no
// upstream request was made.
func (m *Metrics) ObserveGeocode(provider, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.geocodeRequests.WithLabelValues(provider, outcome).Inc()
	if duration > 0 {
		m.geocodeDuration.WithLabelValues(provider).Observe(duration.Seconds())
	}
}

// SetAnnotatedFields reports how many point fields were annotated at boot.
func (m *Metrics) SetAnnotatedFields(count int) {
	if m == nil {
		return
	}
	m.annotatedFields.Set(float64(count))
}

// Handler exposes the Prometheus registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
