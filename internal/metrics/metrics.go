// Package metrics provides Prometheus metrics for the breadbox server.
package metrics

import (
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
			Name: "breadbox_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "breadbox_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Store metrics
	storeMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breadbox_store_mutations_total",
			Help: "Total store mutations by store and operation",
		},
		[]string{"store", "op"},
	)

	storeLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breadbox_store_loads_total",
			Help: "Store rehydrations by result (ok, fallback_empty, fallback_corrupt)",
		},
		[]string{"store", "result"},
	)

	snapshotBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "breadbox_snapshot_bytes",
			Help: "Serialized size of the last persisted snapshot per store",
		},
		[]string{"store"},
	)

	// Persistence metrics
	persistWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breadbox_persist_writes_total",
			Help: "Total snapshot writes to the backend",
		},
		[]string{"backend", "status"},
	)

	persistWriteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "breadbox_persist_write_duration_seconds",
			Help:    "Snapshot write duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	persistPendingWrites = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "breadbox_persist_pending_writes",
			Help: "Dirty store keys waiting for the next writer flush",
		},
	)

	// Event metrics
	sseConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "breadbox_sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	eventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breadbox_events_published_total",
			Help: "Total change events published",
		},
		[]string{"type"},
	)

	eventsDroppedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "breadbox_events_dropped_total",
			Help: "Events dropped because a subscriber channel was full",
		},
	)

	natsPublishesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breadbox_nats_publishes_total",
			Help: "Events relayed to NATS",
		},
		[]string{"status"},
	)

	// Auth metrics
	authAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "breadbox_auth_attempts_total",
			Help: "Total authentication attempts",
		},
		[]string{"result"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordMutation records one store mutation.
func RecordMutation(store, op string) {
	storeMutationsTotal.WithLabelValues(store, op).Inc()
}

// RecordStoreLoad records a store rehydration result.
func RecordStoreLoad(store, result string) {
	storeLoadsTotal.WithLabelValues(store, result).Inc()
}

// SetSnapshotBytes sets the serialized snapshot size for a store.
func SetSnapshotBytes(store string, size int) {
	snapshotBytes.WithLabelValues(store).Set(float64(size))
}

// RecordPersistWrite records a backend write.
func RecordPersistWrite(backend string, duration time.Duration, success bool) {
	persistWriteDuration.WithLabelValues(backend).Observe(duration.Seconds())
	status := "success"
	if !success {
		status = "error"
	}
	persistWritesTotal.WithLabelValues(backend, status).Inc()
}

// SetPendingWrites sets the number of dirty keys awaiting flush.
func SetPendingWrites(count int) {
	persistPendingWrites.Set(float64(count))
}

// SetSSEConnectionsActive sets the number of active SSE connections.
func SetSSEConnectionsActive(count int64) {
	sseConnectionsActive.Set(float64(count))
}

// RecordEventPublished records a change event publication.
func RecordEventPublished(eventType string) {
	eventsPublishedTotal.WithLabelValues(eventType).Inc()
}

// RecordEventDropped records an event dropped for a slow subscriber.
func RecordEventDropped() {
	eventsDroppedTotal.Inc()
}

// RecordNATSPublish records an event relayed to NATS.
func RecordNATSPublish(success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	natsPublishesTotal.WithLabelValues(status).Inc()
}

// RecordAuthAttempt records an authentication attempt.
func RecordAuthAttempt(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	authAttemptsTotal.WithLabelValues(result).Inc()
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
