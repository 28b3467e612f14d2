package observability

import "github.com/prometheus/client_golang/prometheus"

// Metrics are the bin's planning and rebuild collectors.
type Metrics struct {
	PlanningPasses     prometheus.Counter
	ChainsTested       prometheus.Counter
	ProposalsGenerated prometheus.Counter
	RebuildSeconds     prometheus.Histogram
	PlanCacheHits      prometheus.Counter
	PlanCacheMisses    prometheus.Counter
}

// NewMetrics builds and registers the collectors. A nil registerer falls
// back to the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		PlanningPasses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "switchyard",
			Name:      "planning_passes_total",
			Help:      "Planning passes executed.",
		}),
		ChainsTested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "switchyard",
			Name:      "chains_tested_total",
			Help:      "Candidate chains instantiated in the sandbox.",
		}),
		ProposalsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "switchyard",
			Name:      "proposals_generated_total",
			Help:      "Costed proposals produced by planning passes.",
		}),
		RebuildSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "switchyard",
			Name:      "rebuild_duration_seconds",
			Help:      "Time spent planning and committing a graph.",
			Buckets:   prometheus.DefBuckets,
		}),
		PlanCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "switchyard",
			Name:      "plan_cache_hits_total",
			Help:      "Planning passes answered from the plan store.",
		}),
		PlanCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "switchyard",
			Name:      "plan_cache_misses_total",
			Help:      "Planning passes that had to search.",
		}),
	}

	reg.MustRegister(
		m.PlanningPasses,
		m.ChainsTested,
		m.ProposalsGenerated,
		m.RebuildSeconds,
		m.PlanCacheHits,
		m.PlanCacheMisses,
	)
	return m
}
