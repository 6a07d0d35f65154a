package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/floats"

	"github.com/aretw0/cavity/internal/logging"
	"github.com/aretw0/cavity/pkg/domain"
	"github.com/aretw0/cavity/pkg/ports"
	"github.com/aretw0/cavity/pkg/rheology"
	"github.com/aretw0/cavity/pkg/wetting"
)

// Engine sequences one run: neutral walls and a seeded droplet, a Newtonian
// warm-up without gravity, calibration of the phase densities, then the
// production loop with gravity, rheology and progressive wetting.
type Engine struct {
	solver ports.Solver
	params domain.RunParams
	runID  string

	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	store     ports.RunStore
	snapshots ports.SnapshotWriter
	locker    ports.DistributedLocker
	now       func() time.Time

	iteration  int
	produced   int
	phases     domain.PhaseDensities
	table      *wetting.Table
	controller *Controller
	corrector  *rheology.Corrector
	densities  []float64
}

// NewEngine creates an engine driving solver with params.
func NewEngine(solver ports.Solver, params domain.RunParams, opts ...EngineOption) *Engine {
	e := &Engine{
		solver: solver,
		params: params,
		runID:  uuid.NewString(),
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("run_id", e.runID)
	return e
}

// RunID returns the identifier of the run.
func (e *Engine) RunID() string { return e.runID }

// Controller returns the wetting controller, nil before calibration.
func (e *Engine) Controller() *Controller { return e.controller }

// Table returns the wall density table, nil before calibration.
func (e *Engine) Table() *wetting.Table { return e.table }

// Run executes the whole run. Parameters are validated before the solver is
// touched. The returned record is also saved to the store, when one is set,
// whatever the outcome.
func (e *Engine) Run(ctx context.Context) (rec *domain.RunRecord, err error) {
	if err := e.params.Validate(); err != nil {
		return nil, err
	}
	g := e.params.Geometry
	if nx, ny := e.solver.Dims(); nx != g.Width || ny != g.Height {
		return nil, fmt.Errorf("%w: solver lattice %dx%d does not match geometry %dx%d",
			domain.ErrInvalidGeometry, nx, ny, g.Width, g.Height)
	}

	rec = &domain.RunRecord{
		ID:     e.runID,
		Params: e.params,
		Outcome: domain.RunOutcome{
			Status:    domain.StatusRunning,
			StartedAt: e.now(),
		},
	}
	e.save(ctx, rec)
	defer func() { e.finish(ctx, rec, err) }()

	if err = e.phase(ctx, domain.PhaseSetup, e.setup); err != nil {
		return rec, err
	}
	if err = e.phase(ctx, domain.PhaseWarmup, e.warmup); err != nil {
		return rec, err
	}
	if err = e.phase(ctx, domain.PhaseCalibrate, func(ctx context.Context) error {
		return e.calibrate(ctx, rec)
	}); err != nil {
		return rec, err
	}
	err = e.phase(ctx, domain.PhaseProduction, e.production)
	return rec, err
}

func (e *Engine) phase(ctx context.Context, p domain.Phase, fn func(context.Context) error) error {
	e.logger.Info("phase started", "phase", p, "iteration", e.iteration)
	if e.hooks.OnPhaseEnter != nil {
		e.hooks.OnPhaseEnter(ctx, &domain.PhaseEvent{
			EventBase: domain.NewEventBase(domain.EventPhaseEnter, e.runID, e.iteration),
			Phase:     p,
		})
	}
	err := fn(ctx)
	if e.hooks.OnPhaseLeave != nil {
		e.hooks.OnPhaseLeave(ctx, &domain.PhaseEvent{
			EventBase: domain.NewEventBase(domain.EventPhaseLeave, e.runID, e.iteration),
			Phase:     p,
		})
	}
	return err
}

// setup makes every wall a neutral no-slip cell and seeds the droplet.
func (e *Engine) setup(_ context.Context) error {
	g := e.params.Geometry
	neutral := e.params.Wetting.NeutralDensity
	walls := 0
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if g.Classify(x, y).IsWall() {
				e.solver.AssignBoundary(x, y, ports.NoSlip, neutral)
				walls++
			}
		}
	}
	d := e.params.Droplet
	e.solver.InitializeDroplet(d.CenterX, d.CenterY, d.Radius, d.RhoIn, d.RhoOut)
	e.solver.SetGravity(0, 0)
	e.logger.Debug("walls assigned", "cells", walls, "density", neutral)
	return nil
}

func (e *Engine) warmup(ctx context.Context) error {
	every := e.params.Schedule.ProgressEvery
	for i := 0; i < e.params.Schedule.WarmupIter; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.solver.Step()
		e.iteration = i
		if every > 0 && i%every == 0 {
			e.progress(ctx, domain.PhaseWarmup)
		}
	}
	return nil
}

// calibrate measures the coexisting densities, builds the wall table and the
// components that depend on it, and writes the first snapshot.
func (e *Engine) calibrate(ctx context.Context, rec *domain.RunRecord) error {
	lo, hi := e.densityRange()
	e.phases = domain.PhaseDensities{Gas: lo, Liquid: hi}
	rec.Outcome.Phases = e.phases
	if err := e.phases.Validate(); err != nil {
		return err
	}
	e.logger.Info("equilibrium", "gas", lo, "liquid", hi)

	table, err := wetting.NewTable(e.params.Angles, e.phases, e.params.Wetting.NeutralDensity)
	if err != nil {
		return err
	}
	e.table = table
	rec.Outcome.WallDensities = table.Surfaces()
	for _, r := range domain.Regions {
		if d, ok := rec.Outcome.WallDensities[r]; ok {
			e.logger.Info("wall density", "region", r, "density", d)
		}
	}

	copts := []ControllerOption{
		WithControllerHooks(e.hooks),
		WithControllerLogger(e.logger),
	}
	if e.locker != nil {
		copts = append(copts, WithScanLocker(e.locker, DefaultScanLockTTL))
	}
	e.controller = NewController(e.runID, e.params.Geometry, e.params.Wetting, table, e.solver, copts...)
	e.corrector = rheology.NewCorrector(rheology.NewModel(e.params.Carreau), e.params.Fluid.Omega())
	if e.corrector.Model().Enabled() {
		e.logger.Info("carreau rheology enabled", "eta0", e.params.Carreau.Eta0, "eta_inf", e.params.Carreau.EtaInf)
	}

	e.iteration = 0
	return e.snapshot(ctx)
}

func (e *Engine) production(ctx context.Context) error {
	e.solver.SetGravity(0, e.params.Fluid.Gravity)
	s := e.params.Schedule
	for iter := 1; iter <= s.MaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.solver.Step()
		e.iteration = iter
		e.produced = iter
		if _, err := e.corrector.Apply(ctx, e.solver); err != nil {
			return err
		}
		if iter%s.ScanEvery == 0 {
			if _, err := e.controller.Scan(ctx, iter); err != nil {
				return err
			}
		}
		if iter%s.SaveEvery == 0 {
			e.progress(ctx, domain.PhaseProduction)
			if err := e.snapshot(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// densityRange returns the extreme densities over fluid cells.
func (e *Engine) densityRange() (lo, hi float64) {
	g := e.params.Geometry
	e.densities = e.densities[:0]
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if !e.solver.IsBoundary(x, y) {
				e.densities = append(e.densities, e.solver.Density(x, y))
			}
		}
	}
	if len(e.densities) == 0 {
		return 0, 0
	}
	return floats.Min(e.densities), floats.Max(e.densities)
}

func (e *Engine) activeCount() int {
	if e.controller == nil {
		return 0
	}
	return e.controller.ActiveCount()
}

func (e *Engine) progress(ctx context.Context, p domain.Phase) {
	lo, hi := e.densityRange()
	if e.hooks.OnProgress != nil {
		e.hooks.OnProgress(ctx, &domain.ProgressEvent{
			EventBase:  domain.NewEventBase(domain.EventProgress, e.runID, e.iteration),
			Phase:      p,
			MinDensity: lo,
			MaxDensity: hi,
			Active:     e.activeCount(),
		})
	}
}

// snapshot exports the density field with internal solids masked by the gas
// density.
func (e *Engine) snapshot(ctx context.Context) error {
	if e.snapshots == nil && e.hooks.OnSnapshot == nil {
		return nil
	}
	g := e.params.Geometry
	field := make([]float64, g.Cells())
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			field[g.Index(x, y)] = e.solver.Density(x, y)
		}
	}
	g.MaskSolids(field, e.phases.Gas)

	snap := &domain.Snapshot{
		RunID:     e.runID,
		Iteration: e.iteration,
		Width:     g.Width,
		Height:    g.Height,
		Density:   field,
	}
	if e.snapshots != nil {
		if err := e.snapshots.WriteSnapshot(ctx, snap); err != nil {
			return fmt.Errorf("write snapshot %d: %w", e.iteration, err)
		}
	}
	if e.hooks.OnSnapshot != nil {
		e.hooks.OnSnapshot(ctx, &domain.SnapshotEvent{
			EventBase:  domain.NewEventBase(domain.EventSnapshot, e.runID, e.iteration),
			MinDensity: floats.Min(field),
			MaxDensity: floats.Max(field),
		})
	}
	return nil
}

func (e *Engine) finish(ctx context.Context, rec *domain.RunRecord, err error) {
	out := &rec.Outcome
	out.FinishedAt = e.now()
	out.Iterations = e.produced
	if e.controller != nil {
		_, out.ContactIteration = e.controller.Contact()
		out.ActivatedCells = e.controller.ActiveCount()
	}

	switch {
	case err == nil:
		out.Status = domain.StatusDone
		if e.hooks.OnPhaseEnter != nil {
			e.hooks.OnPhaseEnter(ctx, &domain.PhaseEvent{
				EventBase: domain.NewEventBase(domain.EventPhaseEnter, e.runID, e.iteration),
				Phase:     domain.PhaseDone,
			})
		}
		e.logger.Info("run finished", "iterations", out.Iterations, "activated", out.ActivatedCells, "contact_iter", out.ContactIteration)
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		out.Status = domain.StatusCanceled
		out.Error = err.Error()
		e.logger.Warn("run canceled", "iteration", e.iteration)
	default:
		out.Status = domain.StatusFailed
		out.Error = err.Error()
		e.logger.Error("run failed", "iteration", e.iteration, "error", err)
	}
	e.save(context.WithoutCancel(ctx), rec)
}

func (e *Engine) save(ctx context.Context, rec *domain.RunRecord) {
	if e.store == nil {
		return
	}
	if err := e.store.Save(ctx, rec); err != nil {
		e.logger.Error("save run record", "error", err)
	}
}
