// Package shanchen is an in-process D2Q9 single-component Shan-Chen solver.
// It implements ports.Solver so runs can execute without an external library.
package shanchen

import (
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/aretw0/cavity/pkg/lattice"
	"github.com/aretw0/cavity/pkg/ports"
)

// InterfaceWidth is the width, in cells, of the seeded droplet interface.
const InterfaceWidth = 4.0

// Config sizes the lattice and sets the fluid model.
type Config struct {
	Width  int
	Height int

	G    float64 // interaction strength, negative for attraction
	Psi0 float64
	Rho0 float64
	Tau  float64

	InitialDensity float64 // density of every fluid cell before seeding
	Workers        int     // row bands processed in parallel, NumCPU when zero
}

// Solver advances the field with BGK collision, the Shan-Chen velocity shift
// and pull streaming. Wall cells bounce populations back and expose their
// target density to the pseudo-potential, which sets the wetting. Edges that
// are not walls reflect populations and see a zero-gradient pseudo-potential.
//
// Step parallelises internally; the other methods must not run concurrently
// with it.
type Solver struct {
	nx, ny  int
	cfg     Config
	omega   float64
	workers int

	f, next []float64 // (y*nx+x)*Q + i
	rho     []float64
	psi     []float64
	fx, fy  []float64
	wall    []bool
	wallRho []float64
	gx, gy  float64
}

// New allocates a solver with every cell fluid at the initial density.
func New(cfg Config) (*Solver, error) {
	if cfg.Width < 3 || cfg.Height < 3 {
		return nil, fmt.Errorf("lattice %dx%d too small", cfg.Width, cfg.Height)
	}
	if cfg.Tau <= 0.5 {
		return nil, fmt.Errorf("tau %g must exceed 0.5", cfg.Tau)
	}
	if cfg.InitialDensity <= 0 {
		cfg.InitialDensity = 1
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	n := cfg.Width * cfg.Height
	s := &Solver{
		nx:      cfg.Width,
		ny:      cfg.Height,
		cfg:     cfg,
		omega:   1 / cfg.Tau,
		workers: min(workers, cfg.Height),
		f:       make([]float64, n*lattice.Q),
		next:    make([]float64, n*lattice.Q),
		rho:     make([]float64, n),
		psi:     make([]float64, n),
		fx:      make([]float64, n),
		fy:      make([]float64, n),
		wall:    make([]bool, n),
		wallRho: make([]float64, n),
	}
	for c := 0; c < n; c++ {
		s.setEquilibrium(c, cfg.InitialDensity)
	}
	return s, nil
}

func (s *Solver) cell(x, y int) int { return y*s.nx + x }

func (s *Solver) pops(c int) []float64 {
	return s.f[c*lattice.Q : (c+1)*lattice.Q]
}

func (s *Solver) setEquilibrium(c int, rho float64) {
	lattice.EquilibriumAll(s.pops(c), rho, 0, 0)
}

func (s *Solver) Dims() (int, int) { return s.nx, s.ny }

func (s *Solver) Density(x, y int) float64 {
	c := s.cell(x, y)
	if s.wall[c] {
		return s.wallRho[c]
	}
	rho, _, _ := lattice.Moments(s.pops(c))
	return rho
}

// Velocity returns the force-corrected velocity (j + F/2)/rho.
func (s *Solver) Velocity(x, y int) (float64, float64) {
	c := s.cell(x, y)
	if s.wall[c] {
		return 0, 0
	}
	rho, jx, jy := lattice.Moments(s.pops(c))
	if rho <= 0 {
		return 0, 0
	}
	return (jx + 0.5*s.fx[c]) / rho, (jy + 0.5*s.fy[c]) / rho
}

func (s *Solver) Distribution(x, y int, dst []float64) []float64 {
	if len(dst) < lattice.Q {
		dst = make([]float64, lattice.Q)
	}
	copy(dst, s.pops(s.cell(x, y)))
	return dst
}

func (s *Solver) SetDistribution(x, y int, f []float64) {
	copy(s.pops(s.cell(x, y)), f[:lattice.Q])
}

func (s *Solver) IsBoundary(x, y int) bool { return s.wall[s.cell(x, y)] }

// AssignBoundary turns (x, y) into a bounce-back wall with the given target
// density. Only NoSlip is supported.
func (s *Solver) AssignBoundary(x, y int, kind ports.BoundaryKind, targetDensity float64) {
	if kind != ports.NoSlip {
		panic(fmt.Sprintf("shanchen: unsupported boundary kind %s", kind))
	}
	c := s.cell(x, y)
	s.wall[c] = true
	s.wallRho[c] = targetDensity
	s.setEquilibrium(c, targetDensity)
}

// InitializeDroplet seeds rho = rhoOut + (rhoIn-rhoOut)/2 * (1 - tanh(2(d-R)/W))
// on every fluid cell, at rest.
func (s *Solver) InitializeDroplet(centerX, centerY, radius, rhoIn, rhoOut float64) {
	for y := 0; y < s.ny; y++ {
		for x := 0; x < s.nx; x++ {
			c := s.cell(x, y)
			if s.wall[c] {
				continue
			}
			d := math.Hypot(float64(x)-centerX, float64(y)-centerY)
			rho := rhoOut + 0.5*(rhoIn-rhoOut)*(1-math.Tanh(2*(d-radius)/InterfaceWidth))
			s.setEquilibrium(c, rho)
		}
	}
}

func (s *Solver) SetGravity(gx, gy float64) {
	s.gx, s.gy = gx, gy
}

// Step runs one collide-and-stream cycle.
func (s *Solver) Step() {
	s.bands(s.macroscopic)
	s.bands(s.forces)
	s.bands(s.collide)
	s.bands(s.stream)
	s.f, s.next = s.next, s.f
}

// bands splits the rows over the workers and waits for all of them.
func (s *Solver) bands(fn func(y0, y1 int)) {
	var g errgroup.Group
	chunk := (s.ny + s.workers - 1) / s.workers
	for y0 := 0; y0 < s.ny; y0 += chunk {
		y1 := min(y0+chunk, s.ny)
		g.Go(func() error {
			fn(y0, y1)
			return nil
		})
	}
	_ = g.Wait()
}

func (s *Solver) potential(rho float64) float64 {
	if rho <= 0 {
		return 0
	}
	return s.cfg.Psi0 * math.Exp(-s.cfg.Rho0/rho)
}

func (s *Solver) macroscopic(y0, y1 int) {
	for y := y0; y < y1; y++ {
		for x := 0; x < s.nx; x++ {
			c := s.cell(x, y)
			if s.wall[c] {
				s.rho[c] = s.wallRho[c]
			} else {
				s.rho[c], _, _ = lattice.Moments(s.pops(c))
			}
			s.psi[c] = s.potential(s.rho[c])
		}
	}
}

// forces computes F = -G psi(x) sum_i w_i psi(x+c_i) c_i + rho g. Neighbours
// outside the lattice reuse the nearest cell inside it.
func (s *Solver) forces(y0, y1 int) {
	for y := y0; y < y1; y++ {
		for x := 0; x < s.nx; x++ {
			c := s.cell(x, y)
			if s.wall[c] {
				s.fx[c], s.fy[c] = 0, 0
				continue
			}
			var sx, sy float64
			for i := 1; i < lattice.Q; i++ {
				nx := clamp(x+lattice.Cx[i], s.nx)
				ny := clamp(y+lattice.Cy[i], s.ny)
				p := lattice.W[i] * s.psi[s.cell(nx, ny)]
				sx += p * float64(lattice.Cx[i])
				sy += p * float64(lattice.Cy[i])
			}
			k := -s.cfg.G * s.psi[c]
			s.fx[c] = k*sx + s.rho[c]*s.gx
			s.fy[c] = k*sy + s.rho[c]*s.gy
		}
	}
}

func (s *Solver) collide(y0, y1 int) {
	tau := s.cfg.Tau
	for y := y0; y < y1; y++ {
		for x := 0; x < s.nx; x++ {
			c := s.cell(x, y)
			if s.wall[c] {
				continue
			}
			f := s.pops(c)
			rho, jx, jy := lattice.Moments(f)
			if rho <= 0 {
				continue
			}
			ux := (jx + tau*s.fx[c]) / rho
			uy := (jy + tau*s.fy[c]) / rho
			for i := 0; i < lattice.Q; i++ {
				f[i] += s.omega * (lattice.Equilibrium(i, rho, ux, uy) - f[i])
			}
		}
	}
}

// stream pulls populations from upstream cells. A wall upstream reflects the
// population back into the cell it came from. The lattice edge reflects too:
// a population that would stream out returns to its cell reversed, so open
// edges such as the top outlet keep the fluid mass.
func (s *Solver) stream(y0, y1 int) {
	for y := y0; y < y1; y++ {
		for x := 0; x < s.nx; x++ {
			c := s.cell(x, y)
			dst := s.next[c*lattice.Q : (c+1)*lattice.Q]
			if s.wall[c] {
				copy(dst, s.pops(c))
				continue
			}
			for i := 0; i < lattice.Q; i++ {
				ux := x - lattice.Cx[i]
				uy := y - lattice.Cy[i]
				outside := ux < 0 || ux >= s.nx || uy < 0 || uy >= s.ny
				if outside || s.wall[s.cell(ux, uy)] {
					dst[i] = s.f[c*lattice.Q+lattice.Opposite[i]]
					continue
				}
				dst[i] = s.f[s.cell(ux, uy)*lattice.Q+i]
			}
		}
	}
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}
