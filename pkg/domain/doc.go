/*
Package domain contains the core models of the cavity wetting simulation.

It defines the stepped-cavity geometry and its region classifier, the contact
angle set, the measured two-phase densities, the run parameters and the run
record persisted at the end of a simulation. This package is kept pure and
free of external dependencies like I/O or the lattice solver, following
Hexagonal Architecture principles.

# Key Entities

  - Geometry: lattice dimensions of the domain and the well, plus the Classify rule set.
  - Region: the tag every lattice cell receives (surface, internal solid, outlet, side, fluid).
  - ContactAngles: the five wetting angles, one per non-solid surface region.
  - PhaseDensities: gas and liquid densities measured after warm-up.
  - RunParams: everything the orchestrator needs to drive one run.
  - RunRecord: the key/value parameter summary and outcome of a run.
*/
package domain
