package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"accessgate/internal/access/models"
)

// Change labels for module updates.
const (
	ChangeCompleted  = "completed"
	ChangeCleared    = "cleared"
	ChangeBypassed   = "bypassed"
	ChangeUnbypassed = "unbypassed"
	ChangeCredential = "credential"
	ChangeConflict   = "conflict"
)

// Metrics tracks per-user module state changes.
type Metrics struct {
	ModuleUpdates *prometheus.CounterVec
}

func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers against reg; tests pass a fresh registry.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ModuleUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "accessgate_module_updates_total",
			Help: "Per-user module state changes by module and kind of change",
		}, []string{"module", "change"}),
	}
}

func (m *Metrics) IncrementModuleUpdate(module models.ModuleName, change string) {
	m.ModuleUpdates.WithLabelValues(string(module), change).Inc()
}
