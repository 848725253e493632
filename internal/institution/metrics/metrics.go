package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Inconsistency kinds.
const (
	KindMultipleAffiliations = "multiple_affiliations"
	KindMissingInstitution   = "missing_institution"
)

// Metrics counts data inconsistencies found while matching affiliations.
// Each one is treated as ineligible, so a rising counter means users are
// being denied on bad data.
type Metrics struct {
	DataInconsistencies *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		DataInconsistencies: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "accessgate_data_inconsistencies_total",
			Help: "Inconsistent records found during eligibility checks, by kind",
		}, []string{"kind"}),
	}
}

func (m *Metrics) IncrementInconsistency(kind string) {
	m.DataInconsistencies.WithLabelValues(kind).Inc()
}
