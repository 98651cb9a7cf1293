// Package metrics exposes prometheus collectors for ingestion, answering and LLM calls.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Answer paths.
const (
	PathNoContent   = "no_content"
	PathEmbedFailed = "embed_failed"
	PathLLM         = "llm"
	PathFallback    = "fallback"
	PathError       = "error"
)

// Metrics holds the collectors on a private registry. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry    *prometheus.Registry
	ingestions  *prometheus.CounterVec
	answers     *prometheus.CounterVec
	llmDuration *prometheus.HistogramVec
}

// New creates and registers all collectors, plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ingestions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kotae_ingestions_total",
			Help: "Document ingestions by outcome.",
		}, []string{"outcome"}),
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "kotae_answers_total",
			Help: "Answered questions by the path that produced the answer.",
		}, []string{"path"}),
		llmDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kotae_llm_request_duration_seconds",
			Help:    "Duration of requests to the LLM endpoint.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"op", "result"}),
	}
	m.registry.MustRegister(
		m.ingestions,
		m.answers,
		m.llmDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IngestionDone counts one finished ingestion.
func (m *Metrics) IngestionDone(outcome string) {
	if m == nil {
		return
	}
	m.ingestions.WithLabelValues(outcome).Inc()
}

// Answered counts one answer.
func (m *Metrics) Answered(path string) {
	if m == nil {
		return
	}
	m.answers.WithLabelValues(path).Inc()
}

// ObserveLLM records one LLM request. Its signature matches llm.Observer.
func (m *Metrics) ObserveLLM(op string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.llmDuration.WithLabelValues(op, result).Observe(elapsed.Seconds())
}
