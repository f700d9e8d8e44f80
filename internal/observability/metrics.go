package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	itemsImportedTotal *prometheus.CounterVec
	importErrorsTotal  *prometheus.CounterVec
	importDuration     *prometheus.HistogramVec
	jobsTotal          *prometheus.CounterVec

	embedDecisionsTotal *prometheus.CounterVec
	embedDuration       prometheus.Histogram
	embeddingsTotal     *prometheus.GaugeVec

	searchDuration prometheus.Histogram
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			itemsImportedTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "items_imported_total",
					Help: "Total tracked items imported by project and category.",
				},
				[]string{"project", "category"},
			),
			importErrorsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "import_errors_total",
					Help: "Total import errors by project and error kind.",
				},
				[]string{"project", "kind"},
			),
			importDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "import_duration_seconds",
					Help:    "Import run duration in seconds by kind.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"kind"},
			),
			jobsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "import_jobs_total",
					Help: "Total import jobs by kind and terminal status.",
				},
				[]string{"kind", "status"},
			),
			embedDecisionsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "embed_decisions_total",
					Help: "Total embedding store decisions by action.",
				},
				[]string{"action"},
			),
			embedDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "embed_duration_seconds",
					Help:    "Embedding generation duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
			embeddingsTotal: prometheus.NewGaugeVec(
				prometheus.GaugeOpts{
					Name: "embeddings_total",
					Help: "Total stored embeddings by source type.",
				},
				[]string{"source_type"},
			),
			searchDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "vector_search_duration_seconds",
					Help:    "Vector search duration in seconds.",
					Buckets: prometheus.DefBuckets,
				},
			),
		}

		prometheus.MustRegister(
			m.itemsImportedTotal,
			m.importErrorsTotal,
			m.importDuration,
			m.jobsTotal,
			m.embedDecisionsTotal,
			m.embedDuration,
			m.embeddingsTotal,
			m.searchDuration,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

// MetricsHandler returns an http.Handler exposing the prometheus metrics.
func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

// RecordItemImported increments the imported-items counter.
func RecordItemImported(project, category string) {
	getMetrics().itemsImportedTotal.WithLabelValues(project, category).Inc()
}

// RecordImportError increments the import-errors counter.
func RecordImportError(project, kind string) {
	getMetrics().importErrorsTotal.WithLabelValues(project, kind).Inc()
}

// RecordImportRun records the duration of a completed import run.
func RecordImportRun(kind string, d time.Duration) {
	getMetrics().importDuration.WithLabelValues(kind).Observe(d.Seconds())
}

// RecordJobFinished increments the jobs counter for a terminal status.
func RecordJobFinished(kind, status string) {
	getMetrics().jobsTotal.WithLabelValues(kind, status).Inc()
}

// RecordEmbedDecision increments the embed-decisions counter.
func RecordEmbedDecision(action string) {
	getMetrics().embedDecisionsTotal.WithLabelValues(action).Inc()
}

// RecordEmbedDuration records the duration of an embedding generation call.
func RecordEmbedDuration(d time.Duration) {
	getMetrics().embedDuration.Observe(d.Seconds())
}

// SetEmbeddingsTotal sets the stored-embeddings gauge for a source type.
func SetEmbeddingsTotal(sourceType string, n int) {
	getMetrics().embeddingsTotal.WithLabelValues(sourceType).Set(float64(n))
}

// RecordSearch records the duration of a vector search.
func RecordSearch(d time.Duration) {
	getMetrics().searchDuration.Observe(d.Seconds())
}
