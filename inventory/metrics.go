package inventory

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts engine passes and order transitions. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	movements   *prometheus.CounterVec
	transitions *prometheus.CounterVec
}

// NewMetrics builds the collectors and registers them on reg when reg is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warehouse",
			Subsystem: "inventory",
			Name:      "movements_total",
			Help:      "Composition rows processed by the inventory engine, by direction and outcome.",
		}, []string{"direction", "outcome"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "warehouse",
			Name:      "order_transitions_total",
			Help:      "Order lifecycle operations committed, by transition.",
		}, []string{"transition"}),
	}
	if reg != nil {
		reg.MustRegister(m.movements, m.transitions)
	}
	return m
}

func (m *Metrics) observeEffect(res *EffectResult) {
	if m == nil || res == nil {
		return
	}
	for _, e := range res.Entries {
		m.movements.WithLabelValues(string(res.Direction), string(e.Outcome)).Inc()
	}
}

func (m *Metrics) observeTransition(transition string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(transition).Inc()
}
