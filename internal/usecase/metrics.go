package usecase

import (
	"careers-ui-suite/internal/entity"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type scenarioMetrics struct {
	runs     *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// newScenarioMetrics returns nil when reg is nil; a nil *scenarioMetrics
// records nothing.
func newScenarioMetrics(reg prometheus.Registerer) *scenarioMetrics {
	if reg == nil {
		return nil
	}

	factory := promauto.With(reg)

	return &scenarioMetrics{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "careers_suite",
			Subsystem: "scenario",
			Name:      "runs_total",
			Help:      "Scenario runs by outcome.",
		}, []string{"scenario", "status", "error_kind"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "careers_suite",
			Subsystem: "scenario",
			Name:      "duration_seconds",
			Help:      "Wall time of one scenario including session setup.",
			Buckets:   []float64{1, 5, 10, 20, 30, 60, 120},
		}, []string{"scenario"}),
	}
}

func (m *scenarioMetrics) record(r entity.ScenarioResult) {
	if m == nil {
		return
	}

	m.runs.WithLabelValues(r.Name, string(r.Status), string(r.ErrorKind)).Inc()
	m.duration.WithLabelValues(r.Name).Observe(r.Duration.Seconds())
}
