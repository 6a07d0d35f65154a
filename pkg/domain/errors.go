package domain

import "errors"

// ErrInvalidGeometry is returned when the cavity dimensions violate the
// geometry invariants. It is fatal: no simulation step is taken.
var ErrInvalidGeometry = errors.New("invalid geometry")

// ErrDegeneratePhases is returned when the measured gas and liquid densities
// did not separate after warm-up (interaction strength too weak).
var ErrDegeneratePhases = errors.New("degenerate phase separation")

// ErrInvalidConfig is returned when run parameters are out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrRunNotFound is returned when a run ID cannot be found in the store.
var ErrRunNotFound = errors.New("run not found")
