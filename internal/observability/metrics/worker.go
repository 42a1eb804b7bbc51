package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	processTotal     *prometheus.CounterVec
	processDuration  *prometheus.HistogramVec
	processInFlight  prometheus.Gauge
	chunksPerPage    prometheus.Histogram
	chunkDegradation *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webrag",
			Subsystem: "worker",
			Name:      "page_process_total",
			Help:      "Total processed pages by status.",
		},
		[]string{"service", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "webrag",
			Subsystem: "worker",
			Name:      "page_process_duration_seconds",
			Help:      "Page processing duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "webrag",
			Subsystem: "worker",
			Name:      "page_process_in_flight",
			Help:      "Number of in-flight page processing tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	chunksPerPage := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "webrag",
			Subsystem: "worker",
			Name:      "chunks_per_page",
			Help:      "Number of chunks produced per processed page.",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 250, 500, 1000},
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	chunkDegradation := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "webrag",
			Subsystem: "worker",
			Name:      "chunking_degradation_total",
			Help:      "Recoverable chunking degradations by kind (config clamp, tokenizer fallback, window cap).",
		},
		[]string{"service", "kind"},
	)

	registry.MustRegister(processTotal, processDuration, processInFlight, chunksPerPage, chunkDegradation)

	return &WorkerMetrics{
		registry:         registry,
		processTotal:     processTotal,
		processDuration:  processDuration,
		processInFlight:  processInFlight,
		chunksPerPage:    chunksPerPage,
		chunkDegradation: chunkDegradation,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartPage() {
	m.processInFlight.Inc()
}

func (m *WorkerMetrics) FinishPage(service string, duration time.Duration, err error) {
	m.processInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.processTotal.WithLabelValues(service, status).Inc()
	m.processDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveChunks(count int) {
	m.chunksPerPage.Observe(float64(count))
}

func (m *WorkerMetrics) ChunkingDegraded(service, kind string) {
	m.chunkDegradation.WithLabelValues(service, kind).Inc()
}
