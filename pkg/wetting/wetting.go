// Package wetting maps contact angles to the wall densities that impose them on
// a pseudo-potential fluid.
package wetting

import (
	"fmt"

	"github.com/aretw0/cavity/pkg/domain"
)

// WallDensity returns the virtual wall density that produces the given contact
// angle, in degrees. Hydrophobic angles (>= 90) scale the gas density down to
// zero at 180; hydrophilic angles interpolate from gas at 90 to liquid at 0.
// The mapping is continuous at 90 and decreasing in the angle.
func WallDensity(angle, gas, liquid float64) float64 {
	if angle >= 90 {
		return gas * (180 - angle) / 90
	}
	return gas + (liquid-gas)*(90-angle)/90
}

// Table holds the wall density of every activatable region. It is built once
// after warm-up and never modified.
type Table struct {
	phases  domain.PhaseDensities
	neutral float64
	density map[domain.Region]float64
}

// NewTable evaluates WallDensity for each contact surface. Side walls take the
// neutral density.
func NewTable(angles domain.ContactAngles, phases domain.PhaseDensities, neutral float64) (*Table, error) {
	if err := phases.Validate(); err != nil {
		return nil, err
	}
	if err := angles.Validate(); err != nil {
		return nil, err
	}
	t := &Table{
		phases:  phases,
		neutral: neutral,
		density: make(map[domain.Region]float64, len(domain.Regions)),
	}
	for _, r := range domain.Regions {
		if angle, ok := angles.ForRegion(r); ok {
			t.density[r] = WallDensity(angle, phases.Gas, phases.Liquid)
		}
	}
	t.density[domain.RegionSide] = neutral
	return t, nil
}

// Lookup returns the wall density for a region.
func (t *Table) Lookup(r domain.Region) (float64, error) {
	d, ok := t.density[r]
	if !ok {
		return 0, fmt.Errorf("no wall density for region %s", r)
	}
	return d, nil
}

// Phases returns the reference densities the table was built from.
func (t *Table) Phases() domain.PhaseDensities { return t.phases }

// Surfaces returns the densities of the five contact surfaces.
func (t *Table) Surfaces() map[domain.Region]float64 {
	out := make(map[domain.Region]float64, 5)
	for r, d := range t.density {
		if r != domain.RegionSide {
			out[r] = d
		}
	}
	return out
}
