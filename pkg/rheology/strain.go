package rheology

import (
	"math"

	"github.com/aretw0/cavity/pkg/lattice"
)

// Stress is the symmetric non-equilibrium momentum flux of one cell.
type Stress struct {
	XX, YY, XY float64
}

// NonEquilibriumStress returns the second velocity moment of f - feq, writing
// the non-equilibrium populations into fneq when it holds Q values.
func NonEquilibriumStress(f []float64, rho, ux, uy float64, fneq []float64) Stress {
	var s Stress
	for i := 0; i < lattice.Q; i++ {
		ne := f[i] - lattice.Equilibrium(i, rho, ux, uy)
		if len(fneq) >= lattice.Q {
			fneq[i] = ne
		}
		cx := float64(lattice.Cx[i])
		cy := float64(lattice.Cy[i])
		s.XX += cx * cx * ne
		s.YY += cy * cy * ne
		s.XY += cx * cy * ne
	}
	return s
}

// Magnitude converts a stress to the scalar strain rate of a fluid that was
// just relaxed at rate omegaRef: S = -1.5*omegaRef*Pi/rho and
// gamma = sqrt(2(Sxx^2 + Syy^2 + 2Sxy^2)).
func (s Stress) Magnitude(rho, omegaRef float64) float64 {
	if rho <= 0 {
		return 0
	}
	k := -1.5 * omegaRef / rho
	sxx, syy, sxy := k*s.XX, k*s.YY, k*s.XY
	return math.Sqrt(2 * (sxx*sxx + syy*syy + 2*sxy*sxy))
}

// StrainRate reconstructs the local strain-rate magnitude from a cell's
// populations.
func StrainRate(f []float64, rho, ux, uy, omegaRef float64) float64 {
	return NonEquilibriumStress(f, rho, ux, uy, nil).Magnitude(rho, omegaRef)
}
