package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/cavity"
	"github.com/aretw0/cavity/internal/config"
	"github.com/aretw0/cavity/internal/presentation/tui"
	"github.com/aretw0/cavity/pkg/domain"
)

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	RunID     string
	LogFormat string // text or json
	Quiet     bool
	Out       io.Writer
}

// Run executes one simulation and prints its summary.
func Run(ctx context.Context, cfg *config.Config, opts RunOptions) (*domain.RunRecord, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := createLogger(cfg.LogLevel, opts.LogFormat, opts.Quiet)
	if err != nil {
		return nil, err
	}

	b, err := openBackends(cfg)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	eng, err := createEngine(cfg, b, logger, opts.RunID)
	if err != nil {
		return nil, err
	}

	tty := isTerminal(opts.Out)
	if !opts.Quiet && tty {
		tui.PrintBanner(opts.Out)
	}
	if !opts.Quiet {
		printSystemMessage(opts.Out, "Run %s writing to %s", eng.RunID(), cfg.Output)
	}

	rec, err := eng.Run(ctx)
	if rec != nil && !opts.Quiet {
		printSummary(opts.Out, rec, tty)
	}
	if errors.Is(err, context.Canceled) {
		if !opts.Quiet && rec != nil {
			printSystemMessage(opts.Out, "Interrupted at iteration %d.", rec.Outcome.Iterations)
		}
		return rec, nil
	}
	return rec, err
}

func printSummary(w io.Writer, rec *domain.RunRecord, tty bool) {
	render := tui.NewRenderer(!tty)
	out, err := render(tui.Summary(rec))
	if err != nil {
		out = tui.Summary(rec)
	}
	fmt.Fprintln(w, strings.TrimRight(out, "\n"))
}

// Validate checks the configuration without running and reports the lattice.
func Validate(cfg *config.Config, w io.Writer) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	params, err := cfg.ToParams()
	if err != nil {
		return err
	}
	g := params.Geometry
	fmt.Fprintf(w, "Lattice %dx%d, well x in [%d, %d], depth %d, droplet at (%.1f, %.1f) r=%g\n",
		g.Width, g.Height, g.WellStartX, g.WellEndX, g.WellDepth,
		params.Droplet.CenterX, params.Droplet.CenterY, params.Droplet.Radius)
	fmt.Fprintf(w, "cavity %s: configuration is valid\n", strings.TrimSpace(cavity.Version))
	return nil
}
