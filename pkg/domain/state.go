package domain

import "time"

// Phase is a stage of the run lifecycle.
type Phase string

const (
	PhaseSetup      Phase = "setup"      // walls assigned neutral, droplet seeded
	PhaseWarmup     Phase = "warmup"     // no gravity, Newtonian, neutral walls
	PhaseCalibrate  Phase = "calibrate"  // equilibrium densities measured, wall table built
	PhaseProduction Phase = "production" // gravity, rheology and progressive wetting active
	PhaseDone       Phase = "done"
)

// RunStatus is the outcome recorded for a run.
type RunStatus string

const (
	StatusRunning  RunStatus = "running"
	StatusDone     RunStatus = "done"
	StatusFailed   RunStatus = "failed"
	StatusCanceled RunStatus = "canceled"
)

// Cell addresses one lattice cell.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Assignment records one boundary reassignment issued to the solver.
type Assignment struct {
	Cell
	Region    Region  `json:"region"`
	Density   float64 `json:"density"`
	Iteration int     `json:"iteration"`
}

// Snapshot is a row-major density field exported at an iteration.
type Snapshot struct {
	RunID     string    `json:"run_id"`
	Iteration int       `json:"iteration"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	Density   []float64 `json:"density"`
}

// At returns the density of cell (x, y).
func (s *Snapshot) At(x, y int) float64 {
	return s.Density[y*s.Width+x]
}

// RunOutcome summarises what happened during a run.
type RunOutcome struct {
	Status           RunStatus          `json:"status"`
	Phases           PhaseDensities     `json:"phases"`
	WallDensities    map[Region]float64 `json:"wall_densities,omitempty"`
	ContactIteration int                `json:"contact_iteration"` // 0 when liquid never reached the bottom
	ActivatedCells   int                `json:"activated_cells"`
	Iterations       int                `json:"iterations"`
	StartedAt        time.Time          `json:"started_at"`
	FinishedAt       time.Time          `json:"finished_at"`
	Error            string             `json:"error,omitempty"`
}
