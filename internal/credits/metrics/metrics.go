package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operations and outcomes.
const (
	OpCreate       = "create"
	OpExtend       = "extend"
	OpBypass       = "bypass"
	OpExpiringSoon = "expiring_soon"
	OpExpire       = "expire"

	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

type Metrics struct {
	Operations *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Operations: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "accessgate_credits_operations_total",
			Help: "Initial credit operations by operation and outcome",
		}, []string{"op", "outcome"}),
	}
}

func (m *Metrics) IncrementOperation(op, outcome string) {
	m.Operations.WithLabelValues(op, outcome).Inc()
}
