package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "alertrag"
	// labelHandler partitions metrics by logical endpoint name rather than
	// the raw URL path, which carries session IDs.
	labelHandler = "handler"
)

// serverMetrics holds all Prometheus metrics owned by the HTTP server.
// A single instance is created in New so that tests can inject a fresh
// prometheus.Registry without polluting the default one.
type serverMetrics struct {
	// ragRequestsTotal counts finished answer requests by handler and outcome.
	ragRequestsTotal *prometheus.CounterVec

	// ragDurationSeconds records the time spent inside the answer flow.
	ragDurationSeconds *prometheus.HistogramVec

	// ragInFlight is the number of answer flows currently running.
	ragInFlight prometheus.Gauge

	// routeIntentsTotal counts the intents chosen by POST /api/rag/route.
	routeIntentsTotal *prometheus.CounterVec

	httpRequestsTotal   *prometheus.CounterVec
	httpDurationSeconds *prometheus.HistogramVec
}

// newServerMetrics registers all server metrics against reg.
func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)

	return &serverMetrics{
		ragRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "rag",
			Name:      "requests_total",
			Help:      "Total number of answer requests completed, partitioned by handler and outcome.",
		}, []string{labelHandler, "outcome"}),

		ragDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "rag",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of the answer flow, from retrieval to parsed response.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 100},
		}, []string{labelHandler, "outcome"}),

		ragInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "rag",
			Name:      "in_flight",
			Help:      "Number of answer flows currently running.",
		}),

		routeIntentsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "router",
			Name:      "intents_total",
			Help:      "Intents chosen for routed questions.",
		}, []string{"intent"}),

		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled by the server, partitioned by method, handler, and status code.",
		}, []string{"method", labelHandler, "code"}),

		httpDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "duration_seconds",
			Help:      "Latency of HTTP requests handled by the server.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", labelHandler}),
	}
}

// instrument records request count and latency for next under handler.
func (s *Server) instrument(handler string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rw, r)
		s.metrics.httpRequestsTotal.WithLabelValues(r.Method, handler, strconv.Itoa(rw.status)).Inc()
		s.metrics.httpDurationSeconds.WithLabelValues(r.Method, handler).Observe(time.Since(start).Seconds())
	})
}
