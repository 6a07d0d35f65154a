package domain

import "fmt"

// ContactAngles holds the wetting angle, in degrees, of each surface region.
type ContactAngles struct {
	WellBottom    float64 `json:"well_bottom"`
	LeftWall      float64 `json:"left_wall"`
	RightWall     float64 `json:"right_wall"`
	LeftPlatform  float64 `json:"left_platform"`
	RightPlatform float64 `json:"right_platform"`
}

// DefaultContactAngles returns the angles of the reference ink/substrate pair.
func DefaultContactAngles() ContactAngles {
	return ContactAngles{
		WellBottom:    30,
		LeftWall:      45,
		RightWall:     90,
		LeftPlatform:  41,
		RightPlatform: 90,
	}
}

// ForRegion returns the angle assigned to a surface region.
// ok is false for regions that carry no contact angle.
func (a ContactAngles) ForRegion(r Region) (angle float64, ok bool) {
	switch r {
	case RegionWellBottom:
		return a.WellBottom, true
	case RegionLeftVertical:
		return a.LeftWall, true
	case RegionRightVertical:
		return a.RightWall, true
	case RegionLeftPlatform:
		return a.LeftPlatform, true
	case RegionRightPlatform:
		return a.RightPlatform, true
	}
	return 0, false
}

// Validate checks every angle lies in [0, 180].
func (a ContactAngles) Validate() error {
	for _, r := range []Region{RegionWellBottom, RegionLeftVertical, RegionRightVertical, RegionLeftPlatform, RegionRightPlatform} {
		angle, _ := a.ForRegion(r)
		if angle < 0 || angle > 180 {
			return fmt.Errorf("%w: contact angle %g for %s outside [0, 180]", ErrInvalidConfig, angle, r)
		}
	}
	return nil
}

// PhaseDensities are the coexisting gas and liquid densities measured once the
// warm-up has equilibrated.
type PhaseDensities struct {
	Gas    float64 `json:"gas"`
	Liquid float64 `json:"liquid"`
}

// Validate asserts the two phases separated: Gas < Liquid.
func (p PhaseDensities) Validate() error {
	if !(p.Gas < p.Liquid) {
		return fmt.Errorf("%w: gas=%g liquid=%g", ErrDegeneratePhases, p.Gas, p.Liquid)
	}
	return nil
}

// Midpoint is the density halfway between the phases.
func (p PhaseDensities) Midpoint() float64 {
	return (p.Gas + p.Liquid) / 2
}

// Fraction returns the density at the given liquid fraction between the phases.
func (p PhaseDensities) Fraction(f float64) float64 {
	return p.Gas + f*(p.Liquid-p.Gas)
}
