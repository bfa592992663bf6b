// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics exposes Prometheus instruments for the search pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics implements search.Observer on top of a private registry.
type Metrics struct {
	registry *prometheus.Registry

	sourceDuration *prometheus.HistogramVec
	sourceResults  *prometheus.CounterVec
	sourceFailures *prometheus.CounterVec
	searchDuration prometheus.Histogram
	searchResults  prometheus.Histogram
}

// New registers the pipeline instruments on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		sourceDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "docsearch_source_duration_seconds",
				Help:    "Time spent in one source adapter call",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"source"},
		),
		sourceResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docsearch_source_results_total",
				Help: "Normalized results returned per source",
			},
			[]string{"source"},
		),
		sourceFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docsearch_source_failures_total",
				Help: "Source calls that failed and contributed no results",
			},
			[]string{"source"},
		),
		searchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "docsearch_search_duration_seconds",
			Help:    "End-to-end time of an aggregated search",
			Buckets: []float64{.25, .5, 1, 2, 4, 8, 16, 32},
		}),
		searchResults: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "docsearch_search_results",
			Help:    "Results returned per aggregated search",
			Buckets: []float64{0, 1, 5, 10, 20, 30, 50},
		}),
	}
	m.registry.MustRegister(
		m.sourceDuration,
		m.sourceResults,
		m.sourceFailures,
		m.searchDuration,
		m.searchResults,
		collectors.NewGoCollector(),
	)
	return m
}

// ObserveSource records one adapter call.
func (m *Metrics) ObserveSource(source string, elapsed time.Duration, results int, failed bool) {
	m.sourceDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	m.sourceResults.WithLabelValues(source).Add(float64(results))
	if failed {
		m.sourceFailures.WithLabelValues(source).Inc()
	}
}

// ObserveSearch records one aggregated search.
func (m *Metrics) ObserveSearch(elapsed time.Duration, results int) {
	m.searchDuration.Observe(elapsed.Seconds())
	m.searchResults.Observe(float64(results))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
