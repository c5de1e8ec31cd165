package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "crateman"

// Metrics is a [ResolveHooks] implementation that records Prometheus
// metrics.
type Metrics struct {
	passes         *prometheus.CounterVec
	passDuration   prometheus.Histogram
	dependencies   *prometheus.CounterVec
	warnings       *prometheus.CounterVec
	workspaceLoads *prometheus.CounterVec
	loadDuration   prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_passes_total",
			Help:      "Manifest resolution passes by document kind and outcome.",
		}, []string{"kind", "outcome"}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "resolve_duration_seconds",
			Help:      "Duration of manifest resolution passes.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		dependencies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dependencies_total",
			Help:      "Resolved direct dependencies by kind and source kind.",
		}, []string{"kind", "source"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "warnings_total",
			Help:      "Warnings attached to successful passes by severity.",
		}, []string{"severity"}),
		workspaceLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workspace_root_loads_total",
			Help:      "Workspace root manifest reads by outcome.",
		}, []string{"outcome"}),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workspace_root_load_duration_seconds",
			Help:      "Duration of workspace root manifest reads.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.passes, m.passDuration, m.dependencies, m.warnings, m.workspaceLoads, m.loadDuration)
	}
	return m
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// OnResolveStart implements [ResolveHooks].
func (m *Metrics) OnResolveStart(string) {}

// OnResolveComplete implements [ResolveHooks].
func (m *Metrics) OnResolveComplete(_ string, res Result, duration time.Duration, err error) {
	kind := "package"
	if res.Virtual {
		kind = "virtual"
	}
	m.passes.WithLabelValues(kind, outcome(err)).Inc()
	m.passDuration.Observe(duration.Seconds())
	if err == nil {
		m.warnings.WithLabelValues("warning").Add(float64(res.Warnings))
		m.warnings.WithLabelValues("critical").Add(float64(res.Critical))
	}
}

// OnWorkspaceLoad implements [ResolveHooks].
func (m *Metrics) OnWorkspaceLoad(_ string, duration time.Duration, err error) {
	m.workspaceLoads.WithLabelValues(outcome(err)).Inc()
	m.loadDuration.Observe(duration.Seconds())
}

// OnDependency implements [ResolveHooks].
func (m *Metrics) OnDependency(kind, source string) {
	m.dependencies.WithLabelValues(kind, source).Inc()
}
