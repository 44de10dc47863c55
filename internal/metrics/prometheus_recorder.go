package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "refdocs"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry        *prom.Registry
	stageDuration   *prom.HistogramVec
	runDuration     prom.Histogram
	stageResults    *prom.CounterVec
	runOutcome      *prom.CounterVec
	pagesWritten    *prom.CounterVec
	pageFailures    prom.Counter
	collisions      prom.Counter
	namespaceParses prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		registry: reg,
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual generation stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		runDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total generation run duration",
			Buckets:   prom.DefBuckets,
		}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"}),
		runOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Run outcomes by final status",
		}, []string{"outcome"}),
		pagesWritten: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "pages_written_total",
			Help:      "Pages written by section",
		}, []string{"section"}),
		pageFailures: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "page_failures_total",
			Help:      "Pages whose rendering failed",
		}),
		collisions: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "path_collisions_total",
			Help:      "Output paths claimed by more than one page",
		}),
		namespaceParses: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "namespace_parses",
			Help:      "Library namespaces parsed during the last run",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.runDuration, pr.stageResults, pr.runOutcome,
		pr.pagesWritten, pr.pageFailures, pr.collisions, pr.namespaceParses)
	return pr
}

// Registry returns the registry the metrics are registered with.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.registry }

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome string) {
	if p == nil {
		return
	}
	p.runOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) AddPagesWritten(section string, n int) {
	if p == nil {
		return
	}
	p.pagesWritten.WithLabelValues(section).Add(float64(n))
}

func (p *PrometheusRecorder) AddPageFailures(n int) {
	if p == nil {
		return
	}
	p.pageFailures.Add(float64(n))
}

func (p *PrometheusRecorder) AddCollisions(n int) {
	if p == nil {
		return
	}
	p.collisions.Add(float64(n))
}

func (p *PrometheusRecorder) SetNamespaceParses(n int) {
	if p == nil {
		return
	}
	p.namespaceParses.Set(float64(n))
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, p.registry)
}
