package runtime

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/cavity/pkg/domain"
)

// Status is a point-in-time view of a run.
type Status struct {
	RunID            string       `json:"run_id"`
	Phase            domain.Phase `json:"phase"`
	Iteration        int          `json:"iteration"`
	MinDensity       float64      `json:"min_density"`
	MaxDensity       float64      `json:"max_density"`
	ActiveCells      int          `json:"active_cells"`
	Contact          bool         `json:"contact"`
	ContactIteration int          `json:"contact_iteration"`
	Snapshots        int          `json:"snapshots"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// Monitor keeps the latest Status of a run. It is fed by lifecycle hooks and
// read concurrently, e.g. by the HTTP status endpoint.
type Monitor struct {
	mu     sync.RWMutex
	status Status
}

// NewMonitor returns an empty monitor.
func NewMonitor() *Monitor {
	return &Monitor{}
}

// Status returns a copy of the current view.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) update(base domain.EventBase, fn func(*Status)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status.RunID = base.RunID
	m.status.Iteration = base.Iteration
	m.status.UpdatedAt = base.Timestamp
	fn(&m.status)
}

// Hooks returns the lifecycle hooks that keep the monitor current.
func (m *Monitor) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPhaseEnter: func(_ context.Context, e *domain.PhaseEvent) {
			m.update(e.EventBase, func(s *Status) { s.Phase = e.Phase })
		},
		OnProgress: func(_ context.Context, e *domain.ProgressEvent) {
			m.update(e.EventBase, func(s *Status) {
				s.MinDensity = e.MinDensity
				s.MaxDensity = e.MaxDensity
				s.ActiveCells = e.Active
			})
		},
		OnContact: func(_ context.Context, e *domain.ContactEvent) {
			m.update(e.EventBase, func(s *Status) {
				s.Contact = true
				s.ContactIteration = e.Iteration
			})
		},
		OnActivation: func(_ context.Context, e *domain.ActivationEvent) {
			m.update(e.EventBase, func(s *Status) { s.ActiveCells = e.Total })
		},
		OnSnapshot: func(_ context.Context, e *domain.SnapshotEvent) {
			m.update(e.EventBase, func(s *Status) { s.Snapshots++ })
		},
	}
}
