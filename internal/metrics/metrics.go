package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const OutcomeOK = "ok"

// Metrics owns its registry so several instances can live in one process (tests).
type Metrics struct {
	registry       *prometheus.Registry
	coupleActions  *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec
	identityChecks *prometheus.CounterVec
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		coupleActions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cozy_couple_actions_total",
				Help: "Couple actions handled, by action and outcome",
			},
			[]string{"action", "outcome"},
		),
		actionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cozy_couple_action_duration_seconds",
				Help:    "Duration of couple actions",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2},
			},
			[]string{"action"},
		),
		identityChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cozy_identity_checks_total",
				Help: "Session verifications, by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// ObserveAction is safe on a nil receiver.
func (m *Metrics) ObserveAction(action, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.coupleActions.WithLabelValues(action, outcome).Inc()
	m.actionDuration.WithLabelValues(action).Observe(elapsed.Seconds())
}

func (m *Metrics) ObserveIdentity(outcome string) {
	if m == nil {
		return
	}
	m.identityChecks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
