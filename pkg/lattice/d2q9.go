package lattice

// Q is the number of discrete velocities of the D2Q9 model.
const Q = 9

// CsSqr is the squared lattice speed of sound.
const CsSqr = 1.0 / 3.0

// Discrete velocity set. Index 0 is the rest population, 1-4 the axis
// directions and 5-8 the diagonals.
var (
	Cx = [Q]int{0, 1, 0, -1, 0, 1, -1, -1, 1}
	Cy = [Q]int{0, 0, 1, 0, -1, 1, 1, -1, -1}

	// W holds the quadrature weights.
	W = [Q]float64{
		4.0 / 9.0,
		1.0 / 9.0, 1.0 / 9.0, 1.0 / 9.0, 1.0 / 9.0,
		1.0 / 36.0, 1.0 / 36.0, 1.0 / 36.0, 1.0 / 36.0,
	}

	// Opposite maps a direction to the one pointing the other way.
	Opposite = [Q]int{0, 3, 4, 1, 2, 7, 8, 5, 6}
)

// Equilibrium returns the second-order equilibrium population for direction i.
func Equilibrium(i int, rho, ux, uy float64) float64 {
	cu := float64(Cx[i])*ux + float64(Cy[i])*uy
	u2 := ux*ux + uy*uy
	return W[i] * rho * (1.0 + 3.0*cu + 4.5*cu*cu - 1.5*u2)
}

// EquilibriumAll fills dst with the equilibrium populations and returns it.
// dst is allocated when it is shorter than Q.
func EquilibriumAll(dst []float64, rho, ux, uy float64) []float64 {
	if len(dst) < Q {
		dst = make([]float64, Q)
	}
	for i := 0; i < Q; i++ {
		dst[i] = Equilibrium(i, rho, ux, uy)
	}
	return dst
}

// Moments returns the density and momentum of a set of populations.
func Moments(f []float64) (rho, jx, jy float64) {
	for i := 0; i < Q; i++ {
		rho += f[i]
		jx += float64(Cx[i]) * f[i]
		jy += float64(Cy[i]) * f[i]
	}
	return rho, jx, jy
}
