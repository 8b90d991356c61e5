package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cellstack/cellstack/pkg/domain"
)

// Metrics exposes stack activity as Prometheus collectors: per-cell step
// and build counters, and a build-pass counter for the stack itself.
type Metrics struct {
	cellSteps  *prometheus.CounterVec
	cellBuilds *prometheus.CounterVec
	buildPass  prometheus.Counter
}

// NewMetrics creates unregistered collectors with the given namespace.
// An empty namespace defaults to "cellstack".
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "cellstack"
	}
	return &Metrics{
		cellSteps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cell_steps_total",
				Help:      "Total cell step invocations.",
			},
			[]string{"cell_type", "training"},
		),
		cellBuilds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cell_builds_total",
				Help:      "Total cell build invocations.",
			},
			[]string{"cell_type"},
		),
		buildPass: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "build_passes_total",
				Help:      "Total completed stack build passes.",
			},
		),
	}
}

// Register registers the collectors with a Prometheus registerer.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{m.cellSteps, m.cellBuilds, m.buildPass} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnCellBuild: func(_ context.Context, e *domain.BuildEvent) {
			m.cellBuilds.WithLabelValues(e.CellType).Inc()
		},
		OnBuildEnd: func(_ context.Context, e *domain.BuildEvent) {
			m.buildPass.Inc()
		},
		OnCellStep: func(_ context.Context, e *domain.StepEvent) {
			training := "false"
			if e.Training {
				training = "true"
			}
			m.cellSteps.WithLabelValues(e.CellType, training).Inc()
		},
	}
}
