package runtime

import (
	"log/slog"
	"time"

	"github.com/aretw0/cavity/pkg/domain"
	"github.com/aretw0/cavity/pkg/ports"
)

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithStore persists the run record at start and at the end of the run.
func WithStore(store ports.RunStore) EngineOption {
	return func(e *Engine) {
		e.store = store
	}
}

// WithSnapshotWriter receives the density snapshots.
func WithSnapshotWriter(w ports.SnapshotWriter) EngineOption {
	return func(e *Engine) {
		e.snapshots = w
	}
}

// WithLocker serialises wetting scans with a distributed lock.
func WithLocker(l ports.DistributedLocker) EngineOption {
	return func(e *Engine) {
		e.locker = l
	}
}

// WithRunID overrides the generated run ID.
func WithRunID(id string) EngineOption {
	return func(e *Engine) {
		if id != "" {
			e.runID = id
		}
	}
}

// WithClock replaces time.Now for run timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}
