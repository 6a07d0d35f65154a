package ports

// BoundaryKind selects the dynamics a solver installs on a boundary cell.
type BoundaryKind int

const (
	// NoSlip is a bounce-back wall whose target density sets the wetting.
	NoSlip BoundaryKind = iota
)

func (k BoundaryKind) String() string {
	if k == NoSlip {
		return "no-slip"
	}
	return "unknown"
}

// Solver is the lattice-fluid engine the orchestrator drives.
// Coordinates are lattice cells with (0, 0) at the bottom-left corner.
type Solver interface {
	// Dims returns the lattice size.
	Dims() (nx, ny int)

	Density(x, y int) float64
	Velocity(x, y int) (vx, vy float64)

	// Distribution copies the populations of (x, y) into dst, allocating when
	// dst is shorter than the velocity set, and returns it.
	Distribution(x, y int, dst []float64) []float64
	SetDistribution(x, y int, f []float64)

	IsBoundary(x, y int) bool

	// AssignBoundary replaces the dynamics of (x, y). The change takes effect
	// before the next Step.
	AssignBoundary(x, y int, kind BoundaryKind, targetDensity float64)

	// InitializeDroplet seeds a circular droplet with a smooth tanh interface.
	// Boundary cells are left untouched.
	InitializeDroplet(centerX, centerY, radius, rhoIn, rhoOut float64)

	SetGravity(gx, gy float64)

	// Step advances the field by one time unit.
	Step()
}
