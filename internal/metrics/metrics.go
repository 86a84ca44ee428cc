// Package metrics exposes Prometheus counters for routing and pipeline runs.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry              *prometheus.Registry
	backendSelected       *prometheus.CounterVec
	backendSkipped        *prometheus.CounterVec
	transcriptionFailures *prometheus.CounterVec
	chunkExtractions      *prometheus.CounterVec
	runs                  *prometheus.CounterVec
	runDuration           prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		backendSelected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meeting_backend_selected_total",
			Help: "Transcription backend selections by backend.",
		}, []string{"backend"}),
		backendSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meeting_backend_skipped_total",
			Help: "Backends skipped during routing, by reason.",
		}, []string{"backend", "reason"}),
		transcriptionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meeting_transcription_failures_total",
			Help: "Transcription failures by backend and error kind.",
		}, []string{"backend", "kind"}),
		chunkExtractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meeting_chunk_extractions_total",
			Help: "Per-chunk action item extractions by outcome.",
		}, []string{"outcome"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "meeting_pipeline_runs_total",
			Help: "Pipeline runs by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "meeting_pipeline_duration_seconds",
			Help:    "End-to-end pipeline duration.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
	}
	m.registry.MustRegister(m.backendSelected, m.backendSkipped, m.transcriptionFailures,
		m.chunkExtractions, m.runs, m.runDuration)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) BackendSelected(backend string) {
	if m == nil {
		return
	}
	m.backendSelected.WithLabelValues(backend).Inc()
}

func (m *Metrics) BackendSkipped(backend, reason string) {
	if m == nil {
		return
	}
	m.backendSkipped.WithLabelValues(backend, reason).Inc()
}

func (m *Metrics) TranscriptionFailed(backend, kind string) {
	if m == nil {
		return
	}
	m.transcriptionFailures.WithLabelValues(backend, kind).Inc()
}

func (m *Metrics) ChunkExtracted(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.chunkExtractions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RunFinished(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(d.Seconds())
}
