package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the filter's collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	Sentences     *prometheus.CounterVec
	ScoreDuration prometheus.Histogram
	ScoreFailures *prometheus.CounterVec
	Documents     *prometheus.CounterVec
	ModelLoads    *prometheus.CounterVec
	CacheLookups  *prometheus.CounterVec

	registry *prometheus.Registry
}

func New() *Metrics {
	m := &Metrics{
		Sentences: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pplx_sentences_total",
				Help: "Sentences classified, by label",
			},
			[]string{"label"},
		),
		ScoreDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pplx_score_duration_seconds",
				Help:    "Time spent scoring one sentence",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),
		ScoreFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pplx_score_failures_total",
				Help: "Sentences whose score could not be produced",
			},
			[]string{"kind"},
		),
		Documents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pplx_documents_total",
				Help: "Documents analyzed, by outcome",
			},
			[]string{"outcome"},
		),
		ModelLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pplx_model_loads_total",
				Help: "Model load attempts",
			},
			[]string{"model", "status"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pplx_score_cache_lookups_total",
				Help: "Score cache lookups, by result",
			},
			[]string{"result"},
		),
		registry: prometheus.NewRegistry(),
	}
	m.registry.MustRegister(
		m.Sentences,
		m.ScoreDuration,
		m.ScoreFailures,
		m.Documents,
		m.ModelLoads,
		m.CacheLookups,
		collectors.NewGoCollector(),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveSentence(label string) {
	if m == nil {
		return
	}
	m.Sentences.WithLabelValues(label).Inc()
}

func (m *Metrics) ObserveScore(d time.Duration) {
	if m == nil {
		return
	}
	m.ScoreDuration.Observe(d.Seconds())
}

func (m *Metrics) ObserveScoreFailure(kind string) {
	if m == nil {
		return
	}
	m.ScoreFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveDocument(outcome string) {
	if m == nil {
		return
	}
	m.Documents.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveModelLoad(modelID string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ModelLoads.WithLabelValues(modelID, status).Inc()
}

func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}
