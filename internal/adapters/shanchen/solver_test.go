package shanchen

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/aretw0/cavity/pkg/domain"
	"github.com/aretw0/cavity/pkg/lattice"
	"github.com/aretw0/cavity/pkg/ports"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// closedBox returns a solver with a wall ring of the given density.
func closedBox(t *testing.T, cfg Config, wallDensity float64) *Solver {
	t.Helper()
	s, err := New(cfg)
	require.NoError(t, err)
	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			if x == 0 || y == 0 || x == cfg.Width-1 || y == cfg.Height-1 {
				s.AssignBoundary(x, y, ports.NoSlip, wallDensity)
			}
		}
	}
	return s
}

func fluidMass(s *Solver) float64 {
	total := 0.0
	for y := 0; y < s.ny; y++ {
		for x := 0; x < s.nx; x++ {
			if !s.IsBoundary(x, y) {
				total += s.Density(x, y)
			}
		}
	}
	return total
}

func TestNew_Validates(t *testing.T) {
	_, err := New(Config{Width: 2, Height: 10, Tau: 1})
	assert.Error(t, err)
	_, err = New(Config{Width: 10, Height: 10, Tau: 0.5})
	assert.Error(t, err)

	s, err := New(Config{Width: 10, Height: 6, Tau: 1})
	require.NoError(t, err)
	nx, ny := s.Dims()
	assert.Equal(t, 10, nx)
	assert.Equal(t, 6, ny)
	assert.InDelta(t, 1.0, s.Density(3, 3), 1e-12)
}

func TestUniformRestStateIsStationary(t *testing.T) {
	cfg := Config{Width: 16, Height: 12, G: -112, Psi0: 4, Rho0: 200, Tau: 1, InitialDensity: 90, Workers: 3}
	s := closedBox(t, cfg, 90)

	for i := 0; i < 20; i++ {
		s.Step()
	}
	for y := 1; y < cfg.Height-1; y++ {
		for x := 1; x < cfg.Width-1; x++ {
			assert.InDelta(t, 90.0, s.Density(x, y), 1e-9)
			vx, vy := s.Velocity(x, y)
			assert.InDelta(t, 0, vx, 1e-12)
			assert.InDelta(t, 0, vy, 1e-12)
		}
	}
}

func TestClosedBoxConservesMass(t *testing.T) {
	cfg := Config{Width: 30, Height: 24, G: -1, Psi0: 4, Rho0: 200, Tau: 1, InitialDensity: 85, Workers: 4}
	s := closedBox(t, cfg, 90)
	s.InitializeDroplet(15, 12, 6, 530, 85)
	s.SetGravity(0, -1e-5)

	before := fluidMass(s)
	for i := 0; i < 30; i++ {
		s.Step()
	}
	after := fluidMass(s)
	assert.InEpsilon(t, before, after, 1e-9)

	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			require.False(t, math.IsNaN(s.Density(x, y)), "cell (%d,%d)", x, y)
		}
	}
}

// cavity returns a solver walled like the stepped cavity: sides, platforms
// and well are walls, the top row stays open.
func cavity(t *testing.T, g domain.Geometry, cfg Config, wallDensity float64) *Solver {
	t.Helper()
	cfg.Width, cfg.Height = g.Width, g.Height
	s, err := New(cfg)
	require.NoError(t, err)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if g.Classify(x, y).IsWall() {
				s.AssignBoundary(x, y, ports.NoSlip, wallDensity)
			}
		}
	}
	return s
}

func maxFluidDensity(s *Solver) float64 {
	hi := 0.0
	for y := 0; y < s.ny; y++ {
		for x := 0; x < s.nx; x++ {
			if !s.IsBoundary(x, y) {
				hi = max(hi, s.Density(x, y))
			}
		}
	}
	return hi
}

func TestOpenTopConservesMass(t *testing.T) {
	g := domain.Geometry{Width: 40, Height: 30, WellStartX: 8, WellEndX: 32, WellDepth: 6}
	cfg := Config{G: -112, Psi0: 4, Rho0: 200, Tau: 1, InitialDensity: 85, Workers: 3}
	s := cavity(t, g, cfg, 90)
	s.InitializeDroplet(20, 18, 7, 530, 85)
	s.SetGravity(0, -5e-5)

	before := fluidMass(s)
	for i := 0; i < 200; i++ {
		s.Step()
	}
	assert.InEpsilon(t, before, fluidMass(s), 1e-9)

	// Populations leaving through the top come back reversed.
	for x := 1; x < g.Width-1; x++ {
		vx, vy := s.Velocity(x, g.Height-1)
		require.False(t, math.IsNaN(vx) || math.IsNaN(vy), "top cell %d", x)
	}
}

func TestReferenceCavityKeepsDropletThroughWarmup(t *testing.T) {
	if testing.Short() {
		t.Skip("reference-scale warm-up")
	}
	g := domain.Geometry{Width: 240, Height: 126, WellStartX: 40, WellEndX: 200, WellDepth: 26}
	cfg := Config{G: -112, Psi0: 4, Rho0: 200, Tau: 1, InitialDensity: 85}
	s := cavity(t, g, cfg, 90)
	s.InitializeDroplet(120, 86, 30, 530, 85)

	before := fluidMass(s)
	for i := 0; i < 1500; i++ {
		s.Step()
	}
	assert.InEpsilon(t, before, fluidMass(s), 1e-8)
	assert.Greater(t, maxFluidDensity(s), (530+85)/2.0, "liquid phase must survive warm-up")
	assert.Greater(t, s.Density(120, 86), (530+85)/2.0, "droplet centre stays liquid")
}

func TestGravityPullsFluidDown(t *testing.T) {
	cfg := Config{Width: 12, Height: 12, Tau: 1, InitialDensity: 100, Workers: 2}
	s := closedBox(t, cfg, 100)
	s.SetGravity(0, -1e-4)
	for i := 0; i < 5; i++ {
		s.Step()
	}
	_, vy := s.Velocity(6, 6)
	assert.Less(t, vy, 0.0)
}

func TestInitializeDroplet(t *testing.T) {
	s, err := New(Config{Width: 40, Height: 40, Tau: 1})
	require.NoError(t, err)
	s.AssignBoundary(20, 20, ports.NoSlip, 90)
	s.InitializeDroplet(20, 20, 10, 530, 85)

	assert.Equal(t, 90.0, s.Density(20, 20), "walls are not seeded")
	assert.InDelta(t, 530, s.Density(21, 20), 0.1)
	assert.InDelta(t, 85, s.Density(0, 0), 1e-3)
	assert.InDelta(t, (530+85)/2.0, s.Density(30, 20), 1e-9, "interface midpoint at the radius")
}

func TestBoundaryAndDistribution(t *testing.T) {
	s, err := New(Config{Width: 8, Height: 8, Tau: 1})
	require.NoError(t, err)

	assert.False(t, s.IsBoundary(2, 3))
	s.AssignBoundary(2, 3, ports.NoSlip, 381.5)
	assert.True(t, s.IsBoundary(2, 3))
	assert.Equal(t, 381.5, s.Density(2, 3))

	f := lattice.EquilibriumAll(nil, 2, 0.01, 0)
	s.SetDistribution(5, 5, f)
	got := s.Distribution(5, 5, nil)
	assert.Equal(t, f, got)
	assert.InDelta(t, 2.0, s.Density(5, 5), 1e-12)

	assert.Panics(t, func() { s.AssignBoundary(1, 1, ports.BoundaryKind(7), 1) })
}
