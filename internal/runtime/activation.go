package runtime

import "github.com/aretw0/cavity/pkg/domain"

// ActivationState records which wall cells have received their contact-angle
// density. Flags only ever go from false to true.
type ActivationState struct {
	width  int
	height int
	flags  []bool
	count  int
}

// NewActivationState returns an all-false grid sized to the geometry.
func NewActivationState(g domain.Geometry) *ActivationState {
	return &ActivationState{
		width:  g.Width,
		height: g.Height,
		flags:  make([]bool, g.Cells()),
	}
}

// IsActive reports whether (x, y) was activated. Cells outside the grid are not.
func (s *ActivationState) IsActive(x, y int) bool {
	if x < 0 || x >= s.width || y < 0 || y >= s.height {
		return false
	}
	return s.flags[y*s.width+x]
}

// Count returns the number of activated cells.
func (s *ActivationState) Count() int { return s.count }

// activate sets the flag of (x, y) and reports whether it changed.
func (s *ActivationState) activate(x, y int) bool {
	i := y*s.width + x
	if s.flags[i] {
		return false
	}
	s.flags[i] = true
	s.count++
	return true
}
