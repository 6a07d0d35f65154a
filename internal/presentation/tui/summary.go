package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/cavity/pkg/domain"
)

// Summary describes a finished run as markdown.
func Summary(rec *domain.RunRecord) string {
	var b strings.Builder
	p, o := rec.Params, rec.Outcome

	fmt.Fprintf(&b, "# Run %s\n\n", rec.ID)
	fmt.Fprintf(&b, "**Status:** %s", o.Status)
	if !o.StartedAt.IsZero() && !o.FinishedAt.IsZero() {
		fmt.Fprintf(&b, " in %s", o.FinishedAt.Sub(o.StartedAt).Round(1e6))
	}
	b.WriteString("\n\n")
	if o.Error != "" {
		fmt.Fprintf(&b, "> %s\n\n", o.Error)
	}

	b.WriteString("## Outcome\n\n")
	b.WriteString("| Quantity | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Iterations | %d / %d |\n", o.Iterations, p.Schedule.MaxIter)
	fmt.Fprintf(&b, "| Gas density | %.4g |\n", o.Phases.Gas)
	fmt.Fprintf(&b, "| Liquid density | %.4g |\n", o.Phases.Liquid)
	if o.ContactIteration > 0 {
		fmt.Fprintf(&b, "| Bottom contact | iteration %d |\n", o.ContactIteration)
	} else {
		b.WriteString("| Bottom contact | never |\n")
	}
	fmt.Fprintf(&b, "| Activated wall cells | %d |\n", o.ActivatedCells)

	if len(o.WallDensities) > 0 {
		b.WriteString("\n## Wall densities\n\n")
		b.WriteString("| Surface | Angle | Density |\n|---|---|---|\n")
		for _, r := range domain.Regions {
			d, ok := o.WallDensities[r]
			if !ok {
				continue
			}
			angle, _ := p.Angles.ForRegion(r)
			fmt.Fprintf(&b, "| %s | %g° | %.4g |\n", r, angle, d)
		}
	}

	b.WriteString("\n## Parameters\n\n")
	g := p.Geometry
	fmt.Fprintf(&b, "- Lattice %d x %d, well x in [%d, %d], depth %d\n", g.Width, g.Height, g.WellStartX, g.WellEndX, g.WellDepth)
	fmt.Fprintf(&b, "- G = %g, gravity = %g, tau = %g\n", p.Fluid.G, p.Fluid.Gravity, p.Fluid.Tau)
	fmt.Fprintf(&b, "- Droplet at (%.1f, %.1f), radius %g\n", p.Droplet.CenterX, p.Droplet.CenterY, p.Droplet.Radius)
	if c := p.Carreau; c.Enabled {
		fmt.Fprintf(&b, "- Carreau: eta0 = %g, eta_inf = %g, lambda = %g, n = %g, rho = %g, tau in [%g, %g]\n",
			c.Eta0, c.EtaInf, c.Lambda, c.N, c.RhoRef, c.TauMin, c.TauMax)
	} else {
		b.WriteString("- Newtonian\n")
	}
	return b.String()
}
