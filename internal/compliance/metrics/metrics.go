package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSynced  = "synced"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

type Metrics struct {
	SyncTotal    *prometheus.CounterVec
	SyncDuration *prometheus.HistogramVec
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		SyncTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "accessgate_sync_total",
			Help: "Compliance synchronizer runs by evaluator key and outcome",
		}, []string{"key", "outcome"}),
		SyncDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "accessgate_sync_duration_seconds",
			Help:    "Compliance synchronizer latency by evaluator key",
			Buckets: prometheus.DefBuckets,
		}, []string{"key"}),
	}
}

func (m *Metrics) ObserveSync(key, outcome string, d time.Duration) {
	m.SyncTotal.WithLabelValues(key, outcome).Inc()
	m.SyncDuration.WithLabelValues(key).Observe(d.Seconds())
}
