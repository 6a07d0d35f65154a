// Package rheology implements the Carreau shear-thinning viscosity model and
// the post-collision correction that applies it cell by cell.
package rheology

import (
	"math"

	"github.com/aretw0/cavity/pkg/domain"
)

// NewtonianNu is the kinematic viscosity of a BGK fluid relaxed with tau = 1.
const NewtonianNu = 1.0 / 6.0

// Model evaluates the Carreau viscosity law. It is immutable once built.
type Model struct {
	params domain.CarreauParams
	nu0    float64
	nuInf  float64
}

// NewModel builds a model from its physical parameters. Viscosities are
// converted to kinematic values with the reference density.
func NewModel(p domain.CarreauParams) *Model {
	m := &Model{params: p}
	if p.RhoRef > 0 {
		m.nu0 = p.Eta0 / p.RhoRef
		m.nuInf = p.EtaInf / p.RhoRef
	}
	return m
}

// Enabled reports whether the model is active.
func (m *Model) Enabled() bool { return m.params.Enabled }

// Params returns the parameters the model was built from.
func (m *Model) Params() domain.CarreauParams { return m.params }

// Nu returns the kinematic viscosity at strain rate gamma.
func (m *Model) Nu(gamma float64) float64 {
	if !m.params.Enabled {
		return NewtonianNu
	}
	lg := m.params.Lambda * gamma
	return m.nuInf + (m.nu0-m.nuInf)*math.Pow(1+lg*lg, (m.params.N-1)/2)
}

// Tau returns the relaxation time at strain rate gamma, clamped to
// [TauMin, TauMax]. A disabled model always returns 1.
func (m *Model) Tau(gamma float64) float64 {
	if !m.params.Enabled {
		return 1
	}
	tau := 3*m.Nu(gamma) + 0.5
	if math.IsNaN(tau) {
		return m.params.TauMax
	}
	return math.Min(math.Max(tau, m.params.TauMin), m.params.TauMax)
}

// Omega returns 1/Tau(gamma).
func (m *Model) Omega(gamma float64) float64 {
	return 1 / m.Tau(gamma)
}
