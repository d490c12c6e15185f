package engine

import (
	"careers-ui-suite/internal/entity"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts engine actions. A nil *Metrics records nothing.
type Metrics struct {
	actions   *prometheus.CounterVec
	durations *prometheus.HistogramVec
	waits     *prometheus.HistogramVec
	fallbacks prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		actions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "careers_suite",
			Name:      "engine_actions_total",
			Help:      "Engine actions by type and outcome.",
		}, []string{"action", "outcome"}),
		durations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "careers_suite",
			Name:      "engine_action_duration_seconds",
			Help:      "Wall time of engine actions, waits included.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"action"}),
		waits: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "careers_suite",
			Name:      "wait_resolution_seconds",
			Help:      "Time spent polling a wait condition.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"condition", "outcome"}),
		fallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "careers_suite",
			Name:      "engine_click_fallbacks_total",
			Help:      "Native clicks replaced by a programmatic click because the target was occluded.",
		}),
	}
}

func (m *Metrics) recordAction(r entity.InteractionResult) {
	if m == nil {
		return
	}

	outcome := "ok"
	if !r.Success {
		outcome = string(r.ErrorKind)
	}

	m.actions.WithLabelValues(string(r.Action), outcome).Inc()
	m.durations.WithLabelValues(string(r.Action)).Observe(r.Elapsed.Seconds())
}

func (m *Metrics) recordWait(condition string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}

	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}

	m.waits.WithLabelValues(condition, outcome).Observe(elapsed.Seconds())
}

func (m *Metrics) recordFallback() {
	if m == nil {
		return
	}

	m.fallbacks.Inc()
}
