package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
)

type Metrics struct {
	Users       *prometheus.CounterVec
	RunDuration prometheus.Histogram
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Users: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "accessgate_reconcile_users_total",
			Help: "Users processed by reconciliation runs by outcome",
		}, []string{"outcome"}),
		RunDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "accessgate_reconcile_run_duration_seconds",
			Help:    "Duration of full reconciliation runs",
			Buckets: []float64{1, 5, 15, 60, 300, 900, 3600},
		}),
	}
}

func (m *Metrics) IncrementUser(outcome string) {
	m.Users.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRun(d time.Duration) {
	m.RunDuration.Observe(d.Seconds())
}
