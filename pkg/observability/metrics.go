package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/cavity/pkg/domain"
)

// Metrics groups the collectors updated by a run.
type Metrics struct {
	Iterations  *prometheus.GaugeVec
	MinDensity  *prometheus.GaugeVec
	MaxDensity  *prometheus.GaugeVec
	ActiveCells *prometheus.GaugeVec
	Activations *prometheus.CounterVec
	Contacts    *prometheus.CounterVec
	Snapshots   *prometheus.CounterVec
	Phases      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Iterations: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cavity_iteration",
			Help: "Last iteration reported by a run",
		}, []string{"run_id"}),
		MinDensity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cavity_density_min",
			Help: "Minimum fluid density at the last progress report",
		}, []string{"run_id"}),
		MaxDensity: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cavity_density_max",
			Help: "Maximum fluid density at the last progress report",
		}, []string{"run_id"}),
		ActiveCells: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cavity_active_wall_cells",
			Help: "Wall cells carrying their contact-angle density",
		}, []string{"run_id"}),
		Activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cavity_activations_total",
			Help: "Wall cells activated, by surface region",
		}, []string{"run_id", "region"}),
		Contacts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cavity_contacts_total",
			Help: "Runs whose droplet reached the well bottom",
		}, []string{"run_id"}),
		Snapshots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cavity_snapshots_total",
			Help: "Density snapshots written",
		}, []string{"run_id"}),
		Phases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cavity_phase_transitions_total",
			Help: "Phases entered, by phase",
		}, []string{"run_id", "phase"}),
	}
	if reg != nil {
		reg.MustRegister(m.collectors()...)
	}
	return m
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Iterations, m.MinDensity, m.MaxDensity, m.ActiveCells,
		m.Activations, m.Contacts, m.Snapshots, m.Phases,
	}
}

// Hooks returns lifecycle hooks that record run events.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPhaseEnter: func(_ context.Context, e *domain.PhaseEvent) {
			m.Phases.WithLabelValues(e.RunID, string(e.Phase)).Inc()
		},
		OnProgress: func(_ context.Context, e *domain.ProgressEvent) {
			m.Iterations.WithLabelValues(e.RunID).Set(float64(e.Iteration))
			m.MinDensity.WithLabelValues(e.RunID).Set(e.MinDensity)
			m.MaxDensity.WithLabelValues(e.RunID).Set(e.MaxDensity)
			m.ActiveCells.WithLabelValues(e.RunID).Set(float64(e.Active))
		},
		OnContact: func(_ context.Context, e *domain.ContactEvent) {
			m.Contacts.WithLabelValues(e.RunID).Inc()
		},
		OnActivation: func(_ context.Context, e *domain.ActivationEvent) {
			for _, a := range e.Assignments {
				m.Activations.WithLabelValues(e.RunID, a.Region.String()).Inc()
			}
			m.ActiveCells.WithLabelValues(e.RunID).Set(float64(e.Total))
		},
		OnSnapshot: func(_ context.Context, e *domain.SnapshotEvent) {
			m.Snapshots.WithLabelValues(e.RunID).Inc()
		},
	}
}
