// Copyright 2025 Certen Protocol
//
// Metrics tracks forest operations on a private prometheus.Registry, served
// over HTTP separately from the node's main listener so a scrape never
// competes with request traffic.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the counters and histograms a forestlog node reports.
type Metrics struct {
	registry *prometheus.Registry

	Adds                    prometheus.Counter
	Merges                  prometheus.Counter
	InclusionProofsBuilt    prometheus.Counter
	InclusionProofsVerified prometheus.Counter
	ExclusionProofsBuilt    prometheus.Counter
	ExclusionProofsVerified prometheus.Counter
	MergeDuration           prometheus.Histogram
	ForestCardinality       prometheus.Gauge
}

// New registers a fresh set of forestlog collectors on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Adds: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "forestlog",
			Name:      "entries_added_total",
			Help:      "Total number of entries added to the forest.",
		}),
		Merges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "forestlog",
			Name:      "tree_merges_total",
			Help:      "Total number of carry merges performed while adding entries.",
		}),
		InclusionProofsBuilt: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "forestlog",
			Name:      "inclusion_proofs_built_total",
			Help:      "Total number of inclusion proofs generated.",
		}),
		InclusionProofsVerified: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "forestlog",
			Name:      "inclusion_proofs_verified_total",
			Help:      "Total number of inclusion proofs verified.",
		}),
		ExclusionProofsBuilt: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "forestlog",
			Name:      "exclusion_proofs_built_total",
			Help:      "Total number of exclusion proofs generated.",
		}),
		ExclusionProofsVerified: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "forestlog",
			Name:      "exclusion_proofs_verified_total",
			Help:      "Total number of exclusion proofs verified.",
		}),
		MergeDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "forestlog",
			Name:      "merge_duration_seconds",
			Help:      "Time spent in one forest Add, including any carry merges it performs.",
			Buckets:   prometheus.DefBuckets,
		}),
		ForestCardinality: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "forestlog",
			Name:      "forest_cardinality",
			Help:      "Number of entries currently held by the forest.",
		}),
	}
}

// Handler returns the HTTP handler that serves this registry's metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
