package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "machine_console_http_requests_total",
			Help: "Total number of HTTP requests by method, route, and status code.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "machine_console_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "machine_console_http_requests_in_flight",
		Help: "Current number of HTTP requests being processed.",
	})

	backendRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "machine_console_backend_requests_total",
			Help: "Requests sent to the maintenance backend by method, route, and status code.",
		},
		[]string{"method", "route", "status"},
	)

	backendRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "machine_console_backend_request_duration_seconds",
			Help:    "Backend request latency in seconds by method and route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// RecordSource is the subset of the record store needed to collect
// collection metrics.
type RecordSource interface {
	CountByCriticality() map[string]int
}

// recordCollector reads the loaded collection on each scrape and reports
// machine counts broken down by criticality level.
type recordCollector struct {
	source      RecordSource
	recordsDesc *prometheus.Desc
}

func (c *recordCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.recordsDesc
}

func (c *recordCollector) Collect(ch chan<- prometheus.Metric) {
	for level, n := range c.source.CountByCriticality() {
		ch <- prometheus.MustNewConstMetric(
			c.recordsDesc,
			prometheus.GaugeValue,
			float64(n),
			level,
		)
	}
}

func newRecordCollector(source RecordSource) *recordCollector {
	return &recordCollector{
		source: source,
		recordsDesc: prometheus.NewDesc(
			"machine_console_machines_loaded",
			"Number of machines in the loaded collection, partitioned by criticality level.",
			[]string{"criticality"},
			nil,
		),
	}
}

// registry holds the console's metrics. It is separate from the default
// registry, which already carries the Go and process collectors.
var registry = prometheus.NewRegistry()

// Register registers all metrics with the console registry.
// Call once at startup after the record store is created.
func Register(source RecordSource) {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),

		httpRequestsTotal,
		httpRequestDuration,
		httpRequestsInFlight,
		backendRequestsTotal,
		backendRequestDuration,

		newRecordCollector(source),
	)
}

// Handler returns the Prometheus HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// responseWriter wraps http.ResponseWriter to capture the response status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware wraps an http.Handler to record HTTP metrics.
// pattern should be the route pattern string (e.g. "/api/v1/machines/{id}")
// so the path label has bounded cardinality.
func Middleware(pattern string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()

		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			httpRequestsInFlight.Dec()
			status := strconv.Itoa(rw.status)
			httpRequestsTotal.WithLabelValues(r.Method, pattern, status).Inc()
			httpRequestDuration.WithLabelValues(r.Method, pattern).Observe(time.Since(start).Seconds())
		}()

		next.ServeHTTP(rw, r)
	})
}

type routeKey struct{}

// WithRoute tags an outgoing request context with its route template.
func WithRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFrom(ctx context.Context) string {
	if route, ok := ctx.Value(routeKey{}).(string); ok {
		return route
	}
	return "unknown"
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Transport instruments outgoing backend calls. Requests without a route
// tag are counted under "unknown"; transport failures under status "error".
func Transport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		start := time.Now()
		route := routeFrom(r.Context())
		resp, err := next.RoundTrip(r)
		status := "error"
		if err == nil {
			status = strconv.Itoa(resp.StatusCode)
		}
		backendRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
		backendRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		return resp, err
	})
}
