package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once        sync.Once
	includes    *prom.CounterVec
	anchorMiss  prom.Counter
	panels      prom.Counter
	runDuration *prom.HistogramVec
	runOutcome  *prom.CounterVec
	cacheHits   prom.Counter
	cacheMisses prom.Counter
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.includes = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docweave",
			Name:      "includes_resolved_total",
			Help:      "Resolved include directives by kind",
		}, []string{"kind"})
		pr.anchorMiss = prom.NewCounter(prom.CounterOpts{
			Namespace: "docweave",
			Name:      "anchor_misses_total",
			Help:      "Anchor-qualified includes whose anchor matched no element",
		})
		pr.panels = prom.NewCounter(prom.CounterOpts{
			Namespace: "docweave",
			Name:      "dynamic_panels_total",
			Help:      "Materialized dynamic panels",
		})
		pr.runDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "docweave",
			Name:      "run_duration_seconds",
			Help:      "Duration of top-level include/render operations",
			Buckets:   prom.DefBuckets,
		}, []string{"mode"})
		pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docweave",
			Name:      "run_outcomes_total",
			Help:      "Top-level operation outcomes by mode and result",
		}, []string{"mode", "outcome"})
		pr.cacheHits = prom.NewCounter(prom.CounterOpts{
			Namespace: "docweave",
			Name:      "file_cache_hits_total",
			Help:      "File cache hits observed at run completion",
		})
		pr.cacheMisses = prom.NewCounter(prom.CounterOpts{
			Namespace: "docweave",
			Name:      "file_cache_misses_total",
			Help:      "File cache misses observed at run completion",
		})

		reg.MustRegister(pr.includes, pr.anchorMiss, pr.panels, pr.runDuration, pr.runOutcome, pr.cacheHits, pr.cacheMisses)
	})
	return pr
}

func (pr *PrometheusRecorder) IncludeResolved(kind string) {
	pr.includes.WithLabelValues(kind).Inc()
}

func (pr *PrometheusRecorder) AnchorMiss() {
	pr.anchorMiss.Inc()
}

func (pr *PrometheusRecorder) DynamicPanel() {
	pr.panels.Inc()
}

func (pr *PrometheusRecorder) RunCompleted(mode, outcome string, d time.Duration) {
	pr.runDuration.WithLabelValues(mode).Observe(d.Seconds())
	pr.runOutcome.WithLabelValues(mode, outcome).Inc()
}

func (pr *PrometheusRecorder) CacheAccess(hits, misses int64) {
	pr.cacheHits.Add(float64(hits))
	pr.cacheMisses.Add(float64(misses))
}
