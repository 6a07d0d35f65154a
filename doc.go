/*
Package cavity simulates a droplet settling into a stepped micro-cavity with
progressive wetting.

A pseudo-potential (Shan-Chen) lattice fluid is driven through a fixed
schedule: every wall starts neutral, the droplet equilibrates without gravity,
the coexisting gas and liquid densities are measured, and then gravity pulls
the droplet into the well. Once the liquid touches the well bottom, wall cells
next to liquid are switched, one scan at a time, to the density that imposes
their surface's contact angle. An optional Carreau model makes the liquid
shear-thinning.

# Usage

	params, _ := config.DefaultConfig().ToParams() // or build domain.RunParams directly

	eng, err := cavity.New(params,
		cavity.WithStore(file.New("output")),
		cavity.WithSnapshotWriter(file.NewSnapshotWriter("output")),
	)
	if err != nil {
		log.Fatal(err)
	}

	rec, err := eng.Run(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(rec.Outcome.ContactIteration, rec.Outcome.ActivatedCells)

The engine talks to the fluid through ports.Solver. The built-in solver is a
D2Q9 Shan-Chen implementation; WithSolver swaps in another one.

# Packages

  - pkg/domain: geometry, region classification, parameters, run records.
  - pkg/wetting: contact angle to wall density mapping.
  - pkg/rheology: Carreau viscosity and the post-collision correction.
  - pkg/lattice: D2Q9 constants and equilibrium.
  - pkg/ports: solver, store, snapshot and lock interfaces.
  - pkg/adapters: memory, redis, HTTP and MCP adapters.
  - pkg/observability: Prometheus metrics fed by lifecycle hooks.
*/
package cavity
