package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks tier status transitions.
type Metrics struct {
	TierTransitions *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		TierTransitions: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "accessgate_tier_transitions_total",
			Help: "Tier status transitions by tier and target status",
		}, []string{"tier", "to"}),
	}
}

func (m *Metrics) IncrementTransition(tier, to string) {
	m.TierTransitions.WithLabelValues(tier, to).Inc()
}
