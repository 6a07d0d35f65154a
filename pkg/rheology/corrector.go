package rheology

import (
	"context"
	"math"

	"github.com/aretw0/cavity/pkg/lattice"
)

// Field is the per-cell state the corrector reads and rewrites.
type Field interface {
	Dims() (nx, ny int)
	IsBoundary(x, y int) bool
	Density(x, y int) float64
	Velocity(x, y int) (vx, vy float64)
	Distribution(x, y int, dst []float64) []float64
	SetDistribution(x, y int, f []float64)
}

// Tolerance below which a local rate is treated as equal to the reference rate.
const Tolerance = 1e-10

// Corrector applies the Carreau relaxation rate after a collision that used a
// fixed reference rate. The solver collides with omegaRef first; the corrector
// then rescales the non-equilibrium part of each fluid cell so that, to first
// order, the cell relaxed at its own rate instead.
type Corrector struct {
	model    *Model
	omegaRef float64
	tol      float64

	f    []float64
	fneq []float64
}

// NewCorrector builds a corrector for a solver running at omegaRef.
func NewCorrector(model *Model, omegaRef float64) *Corrector {
	return &Corrector{
		model:    model,
		omegaRef: omegaRef,
		tol:      Tolerance,
		f:        make([]float64, lattice.Q),
		fneq:     make([]float64, lattice.Q),
	}
}

// Model returns the viscosity model.
func (c *Corrector) Model() *Model { return c.model }

// Correct rewrites f in place and returns the local relaxation rate and
// whether any population changed.
func (c *Corrector) Correct(f []float64, rho, ux, uy float64) (omega float64, changed bool) {
	if !c.model.Enabled() {
		return c.omegaRef, false
	}
	stress := NonEquilibriumStress(f, rho, ux, uy, c.fneq)
	omega = c.model.Omega(stress.Magnitude(rho, c.omegaRef))
	if math.Abs(omega-c.omegaRef) <= c.tol {
		return omega, false
	}
	k := (1/omega - 1/c.omegaRef) * c.omegaRef
	for i := 0; i < lattice.Q; i++ {
		f[i] += k * c.fneq[i]
	}
	return omega, true
}

// Apply corrects every non-boundary cell of the field and returns the number
// of cells rewritten. A disabled model leaves the field untouched.
func (c *Corrector) Apply(ctx context.Context, field Field) (int, error) {
	if !c.model.Enabled() {
		return 0, nil
	}
	nx, ny := field.Dims()
	corrected := 0
	for y := 0; y < ny; y++ {
		if err := ctx.Err(); err != nil {
			return corrected, err
		}
		for x := 0; x < nx; x++ {
			if field.IsBoundary(x, y) {
				continue
			}
			rho := field.Density(x, y)
			if rho <= 0 {
				continue
			}
			ux, uy := field.Velocity(x, y)
			c.f = field.Distribution(x, y, c.f)
			if _, changed := c.Correct(c.f, rho, ux, uy); changed {
				field.SetDistribution(x, y, c.f)
				corrected++
			}
		}
	}
	return corrected, nil
}
