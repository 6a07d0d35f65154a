package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/cavity/internal/logging"
	"github.com/aretw0/cavity/pkg/domain"
	"github.com/aretw0/cavity/pkg/ports"
	"github.com/aretw0/cavity/pkg/wetting"
)

// DefaultScanLockTTL bounds how long a distributed scan lock is held.
const DefaultScanLockTTL = 30 * time.Second

// candidate is a wall cell that can be activated, with the fluid cells around it.
type candidate struct {
	cell       domain.Cell
	region     domain.Region
	density    float64
	neighbours []domain.Cell
}

// ScanResult reports what a single scan changed.
type ScanResult struct {
	Contact   bool                // contact was detected during this scan
	Activated []domain.Assignment // cells assigned during this scan
}

// Controller is the progressive wetting controller. Walls start neutral; once
// liquid touches the well bottom, each surface cell receives its contact-angle
// density the first time liquid is found next to it.
type Controller struct {
	mu sync.Mutex

	runID    string
	geometry domain.Geometry
	params   domain.WettingParams
	table    *wetting.Table
	solver   ports.Solver

	contactThreshold float64
	liquidThreshold  float64
	probeRow         int

	state       *ActivationState
	candidates  []candidate
	contact     bool
	contactIter int
	assignments []domain.Assignment

	locker  ports.DistributedLocker
	lockTTL time.Duration
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithScanLocker serialises scans through a distributed lock keyed on the run ID.
func WithScanLocker(l ports.DistributedLocker, ttl time.Duration) ControllerOption {
	return func(c *Controller) {
		c.locker = l
		if ttl > 0 {
			c.lockTTL = ttl
		}
	}
}

// WithControllerHooks sets the callbacks fired on contact and activation.
func WithControllerHooks(h domain.LifecycleHooks) ControllerOption {
	return func(c *Controller) {
		c.hooks = h
	}
}

// WithControllerLogger sets the logger.
func WithControllerLogger(l *slog.Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewController builds a controller for one run. The wall density table must
// already hold the calibrated phases.
func NewController(runID string, g domain.Geometry, params domain.WettingParams, table *wetting.Table, solver ports.Solver, opts ...ControllerOption) *Controller {
	phases := table.Phases()
	c := &Controller{
		runID:            runID,
		geometry:         g,
		params:           params,
		table:            table,
		solver:           solver,
		contactThreshold: phases.Midpoint(),
		liquidThreshold:  phases.Fraction(params.LiquidFraction),
		probeRow:         g.BottomLevel() + params.ContactProbeOffset,
		state:            NewActivationState(g),
		lockTTL:          DefaultScanLockTTL,
		logger:           logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.candidates = c.collectCandidates()
	return c
}

// collectCandidates lists the activatable wall cells that touch at least one
// fluid cell. Cells buried in walls can never see liquid and are left out.
func (c *Controller) collectCandidates() []candidate {
	g := c.geometry
	var out []candidate
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			region := g.Classify(x, y)
			if !region.IsActivatable() {
				continue
			}
			var fluid []domain.Cell
			for dx := -1; dx <= 1; dx++ {
				for dy := -1; dy <= 1; dy++ {
					if dx == 0 && dy == 0 {
						continue
					}
					nx, ny := x+dx, y+dy
					if g.Contains(nx, ny) && g.Classify(nx, ny) == domain.RegionNone {
						fluid = append(fluid, domain.Cell{X: nx, Y: ny})
					}
				}
			}
			if len(fluid) == 0 {
				continue
			}
			density, err := c.table.Lookup(region)
			if err != nil {
				continue
			}
			out = append(out, candidate{
				cell:       domain.Cell{X: x, Y: y},
				region:     region,
				density:    density,
				neighbours: fluid,
			})
		}
	}
	return out
}

// Scan runs contact detection and then, once contact has happened, the
// activation sweep. Scans never interleave.
func (c *Controller) Scan(ctx context.Context, iteration int) (ScanResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.locker != nil {
		unlock, err := c.locker.Lock(ctx, "cavity:scan:"+c.runID, c.lockTTL)
		if err != nil {
			return ScanResult{}, fmt.Errorf("acquire scan lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				c.logger.Warn("release scan lock", "error", err)
			}
		}()
	}

	var res ScanResult
	if !c.contact {
		res.Contact = c.detectContact(ctx, iteration)
	}
	if c.contact {
		res.Activated = c.sweep(iteration)
		if len(res.Activated) > 0 && c.hooks.OnActivation != nil {
			c.hooks.OnActivation(ctx, &domain.ActivationEvent{
				EventBase:   domain.NewEventBase(domain.EventActivation, c.runID, iteration),
				Assignments: res.Activated,
				Total:       c.state.Count(),
			})
		}
	}
	return res, nil
}

func (c *Controller) detectContact(ctx context.Context, iteration int) bool {
	g := c.geometry
	for x := g.WellStartX + 1; x < g.WellEndX; x++ {
		rho := c.solver.Density(x, c.probeRow)
		if rho <= c.contactThreshold {
			continue
		}
		c.contact = true
		c.contactIter = iteration
		c.logger.Info("contact detected", "iteration", iteration, "x", x, "density", rho)
		if c.hooks.OnContact != nil {
			c.hooks.OnContact(ctx, &domain.ContactEvent{
				EventBase: domain.NewEventBase(domain.EventContact, c.runID, iteration),
				Threshold: c.contactThreshold,
				X:         x,
				Density:   rho,
			})
		}
		return true
	}
	return false
}

func (c *Controller) sweep(iteration int) []domain.Assignment {
	var activated []domain.Assignment
	for _, cand := range c.candidates {
		if c.state.IsActive(cand.cell.X, cand.cell.Y) || !c.liquidNearby(cand) {
			continue
		}
		c.solver.AssignBoundary(cand.cell.X, cand.cell.Y, ports.NoSlip, cand.density)
		c.state.activate(cand.cell.X, cand.cell.Y)
		a := domain.Assignment{
			Cell:      cand.cell,
			Region:    cand.region,
			Density:   cand.density,
			Iteration: iteration,
		}
		c.assignments = append(c.assignments, a)
		activated = append(activated, a)
	}
	return activated
}

func (c *Controller) liquidNearby(cand candidate) bool {
	for _, n := range cand.neighbours {
		if c.solver.Density(n.X, n.Y) > c.liquidThreshold {
			return true
		}
	}
	return false
}

// Contact reports whether contact was detected and at which iteration.
func (c *Controller) Contact() (bool, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.contact, c.contactIter
}

// IsActive reports whether (x, y) has been activated.
func (c *Controller) IsActive(x, y int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.IsActive(x, y)
}

// ActiveCount returns the number of activated cells.
func (c *Controller) ActiveCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Count()
}

// Assignments returns a copy of every boundary assignment issued so far.
func (c *Controller) Assignments() []domain.Assignment {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Assignment, len(c.assignments))
	copy(out, c.assignments)
	return out
}
