package cavity

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/cavity/internal/adapters/shanchen"
	"github.com/aretw0/cavity/internal/logging"
	"github.com/aretw0/cavity/internal/runtime"
	"github.com/aretw0/cavity/pkg/domain"
	"github.com/aretw0/cavity/pkg/ports"
)

// Engine is the high-level entry point for the cavity library.
// It wraps the internal runtime and provides a simplified API for consumers.
type Engine struct {
	runtime *runtime.Engine
	solver  ports.Solver
	params  domain.RunParams
	monitor *runtime.Monitor

	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	workers     int
	writers     []ports.SnapshotWriter
	runtimeOpts []runtime.EngineOption
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithSolver injects a lattice solver, bypassing the built-in Shan-Chen one.
// Its lattice must match the geometry.
func WithSolver(s ports.Solver) Option {
	return func(e *Engine) {
		e.solver = s
	}
}

// WithWorkers sets how many goroutines the built-in solver uses.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		e.workers = n
	}
}

// WithLifecycleHooks registers observability hooks. Repeated calls combine.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = domain.MergeHooks(e.hooks, hooks)
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithStore persists the run record.
func WithStore(store ports.RunStore) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithStore(store))
	}
}

// WithSnapshotWriter receives density snapshots. Repeated calls fan out.
func WithSnapshotWriter(w ports.SnapshotWriter) Option {
	return func(e *Engine) {
		e.writers = append(e.writers, w)
	}
}

// WithLocker serialises wetting scans with a distributed lock.
func WithLocker(l ports.DistributedLocker) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithLocker(l))
	}
}

// WithRunID overrides the generated run ID.
func WithRunID(id string) Option {
	return func(e *Engine) {
		e.runtimeOpts = append(e.runtimeOpts, runtime.WithRunID(id))
	}
}

// New validates params and prepares a run.
func New(params domain.RunParams, opts ...Option) (*Engine, error) {
	eng := &Engine{params: params}
	for _, opt := range opts {
		opt(eng)
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}

	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}

	if eng.solver == nil {
		s, err := shanchen.New(shanchen.Config{
			Width:          params.Geometry.Width,
			Height:         params.Geometry.Height,
			G:              params.Fluid.G,
			Psi0:           params.Fluid.Psi0,
			Rho0:           params.Fluid.Rho0,
			Tau:            params.Fluid.Tau,
			InitialDensity: params.Droplet.RhoOut,
			Workers:        eng.workers,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create solver: %w", err)
		}
		eng.solver = s
	}

	eng.monitor = runtime.NewMonitor()
	rtOpts := []runtime.EngineOption{
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(domain.MergeHooks(eng.monitor.Hooks(), eng.hooks)),
	}
	switch len(eng.writers) {
	case 0:
	case 1:
		rtOpts = append(rtOpts, runtime.WithSnapshotWriter(eng.writers[0]))
	default:
		rtOpts = append(rtOpts, runtime.WithSnapshotWriter(ports.MultiSnapshotWriter(eng.writers)))
	}
	rtOpts = append(rtOpts, eng.runtimeOpts...)

	eng.runtime = runtime.NewEngine(eng.solver, params, rtOpts...)
	return eng, nil
}

// Run executes the whole run and returns its record. The record is returned
// even when the run fails or is canceled.
func (e *Engine) Run(ctx context.Context) (*domain.RunRecord, error) {
	return e.runtime.Run(ctx)
}

// RunID returns the identifier of the run.
func (e *Engine) RunID() string { return e.runtime.RunID() }

// Params returns the run parameters.
func (e *Engine) Params() domain.RunParams { return e.params }

// Solver returns the lattice solver driven by the engine.
func (e *Engine) Solver() ports.Solver { return e.solver }

// Status returns the live view of the run. Safe for concurrent use.
func (e *Engine) Status() runtime.Status { return e.monitor.Status() }

// Monitor returns the live status source, e.g. for the HTTP adapter.
func (e *Engine) Monitor() *runtime.Monitor { return e.monitor }
