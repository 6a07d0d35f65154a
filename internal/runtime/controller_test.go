package runtime_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/cavity/internal/runtime"
	"github.com/aretw0/cavity/pkg/domain"
	"github.com/aretw0/cavity/pkg/ports"
	"github.com/aretw0/cavity/pkg/wetting"
)

const (
	gasDensity    = 85.0
	liquidDensity = 530.0
	neutral       = 90.0
)

func smallGeometry() domain.Geometry {
	return domain.Geometry{Width: 40, Height: 30, WellStartX: 8, WellEndX: 32, WellDepth: 6}
}

func wettingParams() domain.WettingParams {
	return domain.WettingParams{NeutralDensity: neutral, LiquidFraction: 0.15, ContactProbeOffset: 2}
}

// newWalledSolver returns a solver whose walls hold the neutral density.
func newWalledSolver(g domain.Geometry) *fakeSolver {
	s := newFakeSolver(g.Width, g.Height)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if g.Classify(x, y).IsWall() {
				s.AssignBoundary(x, y, ports.NoSlip, neutral)
			}
		}
	}
	return s
}

func newController(t *testing.T, g domain.Geometry, s *fakeSolver, opts ...runtime.ControllerOption) *runtime.Controller {
	t.Helper()
	table, err := wetting.NewTable(domain.DefaultContactAngles(),
		domain.PhaseDensities{Gas: gasDensity, Liquid: liquidDensity}, neutral)
	require.NoError(t, err)
	return runtime.NewController("run-1", g, wettingParams(), table, s, opts...)
}

func TestController_NoActivationBeforeContact(t *testing.T) {
	g := smallGeometry()
	s := newWalledSolver(g)
	s.fill(liquidDensity)
	for x := g.WellStartX + 1; x < g.WellEndX; x++ {
		s.set(x, 2, gasDensity)
	}
	c := newController(t, g, s)

	res, err := c.Scan(context.Background(), 10)
	require.NoError(t, err)
	assert.False(t, res.Contact)
	assert.Empty(t, res.Activated)
	assert.Zero(t, c.ActiveCount())

	s.set(20, 2, liquidDensity)
	res, err = c.Scan(context.Background(), 20)
	require.NoError(t, err)
	assert.True(t, res.Contact)
	assert.NotEmpty(t, res.Activated, "activation runs in the same scan as detection")

	contact, iter := c.Contact()
	assert.True(t, contact)
	assert.Equal(t, 20, iter)
}

func TestController_ActivatesOnlyNextToLiquid(t *testing.T) {
	g := smallGeometry()
	s := newWalledSolver(g)
	s.fill(gasDensity)
	s.set(20, 2, liquidDensity)
	c := newController(t, g, s)

	res, err := c.Scan(context.Background(), 10)
	require.NoError(t, err)
	assert.True(t, res.Contact)
	assert.Empty(t, res.Activated)

	s.set(20, 1, liquidDensity)
	res, err = c.Scan(context.Background(), 20)
	require.NoError(t, err)
	require.Len(t, res.Activated, 3)
	for _, a := range res.Activated {
		assert.Equal(t, domain.RegionWellBottom, a.Region)
		assert.Equal(t, 0, a.Y)
		assert.InDelta(t, 20, a.X, 1)
		assert.InDelta(t, 381.6666666, a.Density, 1e-6)
		assert.Equal(t, 20, a.Iteration)
	}
}

func TestController_SolidCellsNeverActivate(t *testing.T) {
	g := smallGeometry()
	s := newWalledSolver(g)
	s.fill(liquidDensity)
	c := newController(t, g, s)

	for iter := 10; iter <= 50; iter += 10 {
		_, err := c.Scan(context.Background(), iter)
		require.NoError(t, err)
	}

	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			region := g.Classify(x, y)
			if region.IsSolid() {
				assert.False(t, c.IsActive(x, y), "solid cell (%d,%d)", x, y)
				assert.Equal(t, []float64{neutral}, s.assignmentsAt(domain.Cell{X: x, Y: y}))
			}
			if region == domain.RegionTopOutlet || region == domain.RegionNone {
				assert.False(t, c.IsActive(x, y), "open cell (%d,%d)", x, y)
			}
		}
	}

	assert.True(t, c.IsActive(20, 0))
	assert.True(t, c.IsActive(g.WellStartX, 3))
	assert.True(t, c.IsActive(g.WellEndX, 3))
	assert.True(t, c.IsActive(4, g.WellDepth))
	assert.True(t, c.IsActive(0, 10))
	assert.False(t, c.IsActive(0, 3), "side cell surrounded by walls")

	assert.Equal(t, []float64{neutral, 85}, s.assignmentsAt(domain.Cell{X: g.WellEndX, Y: 3}))
	assert.Equal(t, []float64{neutral, neutral}, s.assignmentsAt(domain.Cell{X: 0, Y: 10}))
}

func TestController_TopOutletStaysOpen(t *testing.T) {
	g := smallGeometry()
	s := newWalledSolver(g)
	s.fill(liquidDensity)
	c := newController(t, g, s)

	for iter := 10; iter <= 30; iter += 10 {
		res, err := c.Scan(context.Background(), iter)
		require.NoError(t, err)
		for _, a := range res.Activated {
			assert.NotEqual(t, domain.RegionTopOutlet, a.Region, "cell (%d,%d)", a.X, a.Y)
		}
	}

	top := g.Height - 1
	for x := 0; x < g.Width; x++ {
		require.Equal(t, domain.RegionTopOutlet, g.Classify(x, top))
		assert.False(t, c.IsActive(x, top), "top cell %d", x)
		assert.False(t, s.IsBoundary(x, top), "top cell %d", x)
		assert.Empty(t, s.assignmentsAt(domain.Cell{X: x, Y: top}))
	}
	// The side walls just below the outlet still wet.
	assert.True(t, c.IsActive(0, top-1))
	assert.True(t, c.IsActive(g.Width-1, top-1))
}

func TestController_ActivationIsMonotone(t *testing.T) {
	g := smallGeometry()
	s := newWalledSolver(g)
	s.fill(liquidDensity)
	c := newController(t, g, s)

	_, err := c.Scan(context.Background(), 10)
	require.NoError(t, err)
	first := c.ActiveCount()
	require.Positive(t, first)

	s.fill(gasDensity)
	res, err := c.Scan(context.Background(), 20)
	require.NoError(t, err)
	assert.Empty(t, res.Activated)
	assert.Equal(t, first, c.ActiveCount())
	for _, a := range c.Assignments() {
		assert.True(t, c.IsActive(a.X, a.Y))
	}

	s.fill(liquidDensity)
	res, err = c.Scan(context.Background(), 30)
	require.NoError(t, err)
	assert.Empty(t, res.Activated, "active cells are never reassigned")
	assert.Len(t, c.Assignments(), first)
}

func TestController_ConcurrentScansAssignOnce(t *testing.T) {
	g := smallGeometry()
	s := newWalledSolver(g)
	s.fill(liquidDensity)
	c := newController(t, g, s)

	var wg sync.WaitGroup
	for i := 1; i <= 8; i++ {
		wg.Add(1)
		go func(iter int) {
			defer wg.Done()
			_, err := c.Scan(context.Background(), iter*10)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, c.ActiveCount(), len(c.Assignments()))
	for _, a := range c.Assignments() {
		assert.Len(t, s.assignmentsAt(a.Cell), 2, "cell %v", a.Cell)
	}
}

func TestController_Hooks(t *testing.T) {
	g := smallGeometry()
	s := newWalledSolver(g)
	s.fill(liquidDensity)

	var contacts, lastTotal, activations int
	hooks := domain.LifecycleHooks{
		OnContact: func(_ context.Context, e *domain.ContactEvent) {
			contacts++
			assert.Equal(t, 307.5, e.Threshold)
			assert.Equal(t, "run-1", e.RunID)
		},
		OnActivation: func(_ context.Context, e *domain.ActivationEvent) {
			activations++
			lastTotal = e.Total
		},
	}
	c := newController(t, g, s, runtime.WithControllerHooks(hooks))

	for iter := 10; iter <= 30; iter += 10 {
		_, err := c.Scan(context.Background(), iter)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, contacts)
	assert.Equal(t, 1, activations)
	assert.Equal(t, c.ActiveCount(), lastTotal)
}

type countingLocker struct {
	mu      sync.Mutex
	keys    []string
	unlocks int
}

func (l *countingLocker) Lock(_ context.Context, key string, _ time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocks++
		return nil
	}, nil
}

func TestController_ScanLocker(t *testing.T) {
	g := smallGeometry()
	s := newWalledSolver(g)
	s.fill(gasDensity)
	locker := &countingLocker{}
	c := newController(t, g, s, runtime.WithScanLocker(locker, time.Second))

	for iter := 10; iter <= 30; iter += 10 {
		_, err := c.Scan(context.Background(), iter)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"cavity:scan:run-1", "cavity:scan:run-1", "cavity:scan:run-1"}, locker.keys)
	assert.Equal(t, 3, locker.unlocks)
}
