package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventPhaseEnter EventType = "phase_enter"
	EventPhaseLeave EventType = "phase_leave"
	EventProgress   EventType = "progress"
	EventContact    EventType = "contact"
	EventActivation EventType = "activation"
	EventSnapshot   EventType = "snapshot"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
	Iteration int       `json:"iteration"`
}

// NewEventBase stamps an event with the current time.
func NewEventBase(t EventType, runID string, iteration int) EventBase {
	return EventBase{Timestamp: time.Now(), Type: t, RunID: runID, Iteration: iteration}
}

// PhaseEvent marks entry into or exit from a run phase.
type PhaseEvent struct {
	EventBase
	Phase Phase `json:"phase"`
}

// ProgressEvent carries the periodic density diagnostics.
type ProgressEvent struct {
	EventBase
	Phase      Phase   `json:"phase"`
	MinDensity float64 `json:"min_density"`
	MaxDensity float64 `json:"max_density"`
	Active     int     `json:"active_cells"`
}

// ContactEvent is emitted once, when liquid first reaches the well bottom.
type ContactEvent struct {
	EventBase
	Threshold float64 `json:"threshold"`
	X         int     `json:"x"`
	Density   float64 `json:"density"`
}

// ActivationEvent reports the wall cells that received their contact-angle
// density during one scan.
type ActivationEvent struct {
	EventBase
	Assignments []Assignment `json:"assignments"`
	Total       int          `json:"total"`
}

// SnapshotEvent reports a density snapshot handed to the output port.
type SnapshotEvent struct {
	EventBase
	MinDensity float64 `json:"min_density"`
	MaxDensity float64 `json:"max_density"`
}

// LifecycleHooks defines callbacks for run observability.
type LifecycleHooks struct {
	OnPhaseEnter func(context.Context, *PhaseEvent)
	OnPhaseLeave func(context.Context, *PhaseEvent)
	OnProgress   func(context.Context, *ProgressEvent)
	OnContact    func(context.Context, *ContactEvent)
	OnActivation func(context.Context, *ActivationEvent)
	OnSnapshot   func(context.Context, *SnapshotEvent)
}

// MergeHooks combines several hook sets; callbacks fire in argument order.
func MergeHooks(sets ...LifecycleHooks) LifecycleHooks {
	var merged LifecycleHooks
	for _, h := range sets {
		merged.OnPhaseEnter = chain(merged.OnPhaseEnter, h.OnPhaseEnter)
		merged.OnPhaseLeave = chain(merged.OnPhaseLeave, h.OnPhaseLeave)
		merged.OnProgress = chain(merged.OnProgress, h.OnProgress)
		merged.OnContact = chain(merged.OnContact, h.OnContact)
		merged.OnActivation = chain(merged.OnActivation, h.OnActivation)
		merged.OnSnapshot = chain(merged.OnSnapshot, h.OnSnapshot)
	}
	return merged
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
