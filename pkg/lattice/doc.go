/*
Package lattice describes the D2Q9 discrete-velocity model shared by the
rheology corrector and the reference solver: velocity set, weights,
opposite directions and the second-order equilibrium.
*/
package lattice
