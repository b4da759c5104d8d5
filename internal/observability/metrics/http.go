package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	turnsTotal          *prometheus.CounterVec
	turnDuration        *prometheus.HistogramVec
	subTasksTotal       *prometheus.CounterVec
	routerFallbackTotal *prometheus.CounterVec
	retrievalHitTotal   *prometheus.CounterVec
	noContextTotal      *prometheus.CounterVec
	retrievedItems      *prometheus.HistogramVec
	structuredFailTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopai",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shopai",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "shopai",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	turnsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopai",
			Subsystem: "chat",
			Name:      "turns_total",
			Help:      "Total completed chat turns by status.",
		},
		[]string{"service", "channel", "status"},
	)
	turnDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shopai",
			Subsystem: "chat",
			Name:      "turn_duration_seconds",
			Help:      "End-to-end chat turn duration in seconds.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"service", "channel"},
	)
	subTasksTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopai",
			Subsystem: "chat",
			Name:      "subtasks_total",
			Help:      "Total routed sub-queries by intent.",
		},
		[]string{"service", "intent"},
	)
	routerFallbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopai",
			Subsystem: "chat",
			Name:      "router_fallback_total",
			Help:      "Total turns where the router output was unusable.",
		},
		[]string{"service"},
	)
	retrievalHitTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopai",
			Subsystem: "retrieval",
			Name:      "hit_total",
			Help:      "Total semantic searches with at least one result.",
		},
		[]string{"service", "collection"},
	)
	noContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopai",
			Subsystem: "retrieval",
			Name:      "no_context_total",
			Help:      "Total semantic searches without results.",
		},
		[]string{"service", "collection"},
	)
	retrievedItems := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shopai",
			Subsystem: "retrieval",
			Name:      "retrieved_items",
			Help:      "Distribution of retrieved rows per semantic search.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service", "collection"},
	)
	structuredFailTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopai",
			Subsystem: "structured",
			Name:      "query_failures_total",
			Help:      "Total generated queries that were rejected or failed to execute.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		turnsTotal,
		turnDuration,
		subTasksTotal,
		routerFallbackTotal,
		retrievalHitTotal,
		noContextTotal,
		retrievedItems,
		structuredFailTotal,
	)

	return &HTTPServerMetrics{
		registry:            registry,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		turnsTotal:          turnsTotal,
		turnDuration:        turnDuration,
		subTasksTotal:       subTasksTotal,
		routerFallbackTotal: routerFallbackTotal,
		retrievalHitTotal:   retrievalHitTotal,
		noContextTotal:      noContextTotal,
		retrievedItems:      retrievedItems,
		structuredFailTotal: structuredFailTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/admin/ingest/"):
		return "/admin/ingest/{document}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordTurn(service, channel string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.turnsTotal.WithLabelValues(service, channel, status).Inc()
	m.turnDuration.WithLabelValues(service, channel).Observe(duration.Seconds())
}

func (m *HTTPServerMetrics) RecordSubTask(service, intent string) {
	if intent == "" {
		intent = "unknown"
	}
	m.subTasksTotal.WithLabelValues(service, intent).Inc()
}

func (m *HTTPServerMetrics) RecordRouterFallback(service string) {
	m.routerFallbackTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordRetrieval(service, collection string, resultCount int) {
	m.retrievedItems.WithLabelValues(service, collection).Observe(float64(resultCount))
	if resultCount > 0 {
		m.retrievalHitTotal.WithLabelValues(service, collection).Inc()
		return
	}
	m.noContextTotal.WithLabelValues(service, collection).Inc()
}

func (m *HTTPServerMetrics) RecordStructuredFailure(service string) {
	m.structuredFailTotal.WithLabelValues(service).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
