// Package metrics provides Prometheus metrics for the file index server.
package metrics

import (
	"bufio"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileindex_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fileindex_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Item metrics
	itemsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fileindex_items",
			Help: "Number of files and folders in the repository",
		},
	)

	itemOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileindex_item_operations_total",
			Help: "Item operations by kind (upload, mkdir, delete, reset, download)",
		},
		[]string{"op"},
	)

	uploadedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fileindex_uploaded_bytes_total",
			Help: "Declared size of simulated uploads",
		},
	)

	// Auth metrics
	authAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileindex_auth_attempts_total",
			Help: "Total authentication attempts",
		},
		[]string{"result"},
	)

	revokedTokens = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fileindex_revoked_tokens",
			Help: "Number of revoked session tokens still tracked",
		},
	)

	// Directory metrics
	directoryOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileindex_directory_operations_total",
			Help: "Admin user directory operations",
		},
		[]string{"op"},
	)

	// Event feed metrics
	subscribersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fileindex_event_subscribers_active",
			Help: "Number of connected SSE and WebSocket subscribers",
		},
	)

	eventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileindex_events_total",
			Help: "Total change events published",
		},
		[]string{"type"},
	)

	// Role gate metrics
	accessDeniedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fileindex_access_denied_total",
			Help: "Requests rejected by a role gate",
		},
		[]string{"action"},
	)

	rateLimitHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fileindex_rate_limit_hits_total",
			Help: "Login attempts rejected by the rate limiter",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SetItems sets the current repository size.
func SetItems(n int) {
	itemsTotal.Set(float64(n))
}

// RecordItemOperation counts one item operation.
func RecordItemOperation(op string) {
	itemOperationsTotal.WithLabelValues(op).Inc()
}

// RecordUpload counts an upload and its declared size.
func RecordUpload(bytes int64) {
	itemOperationsTotal.WithLabelValues("upload").Inc()
	if bytes > 0 {
		uploadedBytesTotal.Add(float64(bytes))
	}
}

// RecordAuthAttempt records an authentication attempt.
func RecordAuthAttempt(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	authAttemptsTotal.WithLabelValues(result).Inc()
}

// SetRevokedTokens sets the revoked token count.
func SetRevokedTokens(n int) {
	revokedTokens.Set(float64(n))
}

// RecordDirectoryOperation counts an admin directory change.
func RecordDirectoryOperation(op string) {
	directoryOperationsTotal.WithLabelValues(op).Inc()
}

// SetSubscribers sets the number of event subscribers.
func SetSubscribers(n int) {
	subscribersActive.Set(float64(n))
}

// RecordEvent records a published change event.
func RecordEvent(eventType string) {
	eventsTotal.WithLabelValues(eventType).Inc()
}

// RecordAccessDenied records a rejected request.
func RecordAccessDenied(action string) {
	accessDeniedTotal.WithLabelValues(action).Inc()
}

// RecordRateLimitHit records a throttled request.
func RecordRateLimitHit() {
	rateLimitHitsTotal.Inc()
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(rw.ResponseWriter).Hijack()
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware returns HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		RecordHTTPRequest(r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}
