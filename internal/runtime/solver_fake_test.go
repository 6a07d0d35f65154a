package runtime_test

import (
	"math"
	"sync"

	"github.com/aretw0/cavity/pkg/domain"
	"github.com/aretw0/cavity/pkg/lattice"
	"github.com/aretw0/cavity/pkg/ports"
)

// fakeSolver is a scripted lattice: densities only change when the test or
// the onStep callback changes them.
type fakeSolver struct {
	mu sync.Mutex

	nx, ny   int
	density  []float64
	boundary []bool
	assigned map[domain.Cell][]float64

	steps      int
	gx, gy     float64
	setDistrib int
	onStep     func(s *fakeSolver)
}

func newFakeSolver(nx, ny int) *fakeSolver {
	return &fakeSolver{
		nx:       nx,
		ny:       ny,
		density:  make([]float64, nx*ny),
		boundary: make([]bool, nx*ny),
		assigned: make(map[domain.Cell][]float64),
	}
}

func (s *fakeSolver) Dims() (int, int) { return s.nx, s.ny }

func (s *fakeSolver) Density(x, y int) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.density[y*s.nx+x]
}

func (s *fakeSolver) Velocity(x, y int) (float64, float64) { return 0, 0 }

func (s *fakeSolver) Distribution(x, y int, dst []float64) []float64 {
	f := lattice.EquilibriumAll(dst, s.Density(x, y), 0, 0)
	f[1] += 0.01
	return f
}

func (s *fakeSolver) SetDistribution(x, y int, f []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setDistrib++
}

func (s *fakeSolver) IsBoundary(x, y int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boundary[y*s.nx+x]
}

func (s *fakeSolver) AssignBoundary(x, y int, kind ports.BoundaryKind, target float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := y*s.nx + x
	s.boundary[i] = true
	s.density[i] = target
	c := domain.Cell{X: x, Y: y}
	s.assigned[c] = append(s.assigned[c], target)
}

func (s *fakeSolver) InitializeDroplet(cx, cy, r, rhoIn, rhoOut float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for y := 0; y < s.ny; y++ {
		for x := 0; x < s.nx; x++ {
			i := y*s.nx + x
			if s.boundary[i] {
				continue
			}
			if math.Hypot(float64(x)-cx, float64(y)-cy) <= r {
				s.density[i] = rhoIn
			} else {
				s.density[i] = rhoOut
			}
		}
	}
}

func (s *fakeSolver) SetGravity(gx, gy float64) {
	s.gx, s.gy = gx, gy
}

func (s *fakeSolver) Step() {
	s.steps++
	if s.onStep != nil {
		s.onStep(s)
	}
}

// fill sets every fluid cell to rho.
func (s *fakeSolver) fill(rho float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.density {
		if !s.boundary[i] {
			s.density[i] = rho
		}
	}
}

func (s *fakeSolver) set(x, y int, rho float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.density[y*s.nx+x] = rho
}

// assignmentsAt returns every target density assigned to c, in order.
func (s *fakeSolver) assignmentsAt(c domain.Cell) []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.assigned[c]...)
}
