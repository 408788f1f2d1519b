package middleware

import (
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shortlinks_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shortlinks_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	httpInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shortlinks_http_in_flight_requests",
			Help: "Requests currently being served",
		},
	)
)

// metricsResponseWriter wraps http.ResponseWriter to capture status code
type metricsResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *metricsResponseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// MetricsMiddleware records Prometheus metrics for each request
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpInFlight.Inc()
		defer httpInFlight.Dec()

		// Wrap response writer to capture status code
		wrapped := &metricsResponseWriter{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := pathLabel(r)
		status := strconv.Itoa(wrapped.statusCode)

		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(duration)
	})
}

// pathLabel keeps label cardinality bounded: routed requests report their mux
// pattern, so every short key collapses into one series. Unmatched paths fall
// back to a normalized URL.
func pathLabel(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return normalizePath(r.URL.Path)
}

// Regex patterns for path normalization
var (
	uuidPattern     = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
	objectIdPattern = regexp.MustCompile(`[0-9a-f]{24}`)
	numericPattern  = regexp.MustCompile(`/\d+\b`)
)

// normalizePath replaces dynamic path segments to avoid high cardinality
func normalizePath(path string) string {
	// Replace UUIDs
	path = uuidPattern.ReplaceAllString(path, ":id")
	// Replace 24-char hex IDs
	path = objectIdPattern.ReplaceAllString(path, ":id")
	// Replace any remaining numeric IDs
	path = numericPattern.ReplaceAllString(path, "/:id")
	return path
}
