package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	jobsTotal        *prometheus.CounterVec
	jobDuration      *prometheus.HistogramVec
	jobsInFlight     prometheus.Gauge
	fragmentsIndexed *prometheus.CounterVec
	rowsBackfilled   *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	jobsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopai",
			Subsystem: "worker",
			Name:      "jobs_total",
			Help:      "Total processed pipeline jobs by kind and status.",
		},
		[]string{"service", "kind", "status"},
	)
	jobDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shopai",
			Subsystem: "worker",
			Name:      "job_duration_seconds",
			Help:      "Pipeline job duration in seconds by kind and status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "kind", "status"},
	)
	jobsInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "shopai",
			Subsystem: "worker",
			Name:      "jobs_in_flight",
			Help:      "Number of in-flight pipeline jobs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	fragmentsIndexed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopai",
			Subsystem: "worker",
			Name:      "fragments_indexed_total",
			Help:      "Total document fragments written to the vector store.",
		},
		[]string{"service"},
	)
	rowsBackfilled := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shopai",
			Subsystem: "worker",
			Name:      "products_backfilled_total",
			Help:      "Total product rows that received an embedding.",
		},
		[]string{"service"},
	)

	registry.MustRegister(jobsTotal, jobDuration, jobsInFlight, fragmentsIndexed, rowsBackfilled)

	return &WorkerMetrics{
		registry:         registry,
		jobsTotal:        jobsTotal,
		jobDuration:      jobDuration,
		jobsInFlight:     jobsInFlight,
		fragmentsIndexed: fragmentsIndexed,
		rowsBackfilled:   rowsBackfilled,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartJob() {
	m.jobsInFlight.Inc()
}

func (m *WorkerMetrics) FinishJob(service, kind string, duration time.Duration, err error) {
	m.jobsInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}
	m.jobsTotal.WithLabelValues(service, kind, status).Inc()
	m.jobDuration.WithLabelValues(service, kind, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) AddFragmentsIndexed(service string, count int) {
	if count <= 0 {
		return
	}
	m.fragmentsIndexed.WithLabelValues(service).Add(float64(count))
}

func (m *WorkerMetrics) AddProductsBackfilled(service string, count int) {
	if count <= 0 {
		return
	}
	m.rowsBackfilled.WithLabelValues(service).Add(float64(count))
}
