/*
Package ports defines the driven ports (interfaces) of the cavity engine.

These interfaces decouple the wetting and rheology control logic from the
lattice solver that advances the fluid and from the places results end up.

# Key Interfaces

  - Solver: per-cell fluid state, boundary assignment and time stepping.
  - RunStore: persists the parameter record of each run.
  - SnapshotWriter: receives density snapshots tagged by iteration.
  - DistributedLocker: serialises wetting scans across processes sharing a run.
*/
package ports
