// Package plot renders density snapshots as PNG heat maps.
package plot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/aretw0/cavity/pkg/domain"
)

// grid adapts a Snapshot to plotter.GridXYZ.
type grid struct {
	snap *domain.Snapshot
}

func (g grid) Dims() (c, r int)   { return g.snap.Width, g.snap.Height }
func (g grid) Z(c, r int) float64 { return g.snap.At(c, r) }
func (g grid) X(c int) float64    { return float64(c) }
func (g grid) Y(r int) float64    { return float64(r) }

// HeatmapWriter implements ports.SnapshotWriter with one PNG per snapshot,
// named droplet_<iteration>.png in the run directory.
type HeatmapWriter struct {
	BasePath string
	Width    vg.Length
	Colors   int
}

// NewHeatmapWriter creates a writer rooted at basePath ("output" when empty).
func NewHeatmapWriter(basePath string) *HeatmapWriter {
	if basePath == "" {
		basePath = "output"
	}
	return &HeatmapWriter{BasePath: basePath, Width: 8 * vg.Inch, Colors: 64}
}

// Render builds the plot of a snapshot.
func (w *HeatmapWriter) Render(snap *domain.Snapshot) (*plot.Plot, error) {
	if snap.Width < 2 || snap.Height < 2 || len(snap.Density) != snap.Width*snap.Height {
		return nil, fmt.Errorf("snapshot %d: cannot plot a %dx%d field of %d values",
			snap.Iteration, snap.Width, snap.Height, len(snap.Density))
	}
	p := plot.New()
	p.Title.Text = fmt.Sprintf("density, iteration %d", snap.Iteration)
	p.X.Label.Text = "x (cells)"
	p.Y.Label.Text = "y (cells)"

	hm := plotter.NewHeatMap(grid{snap: snap}, palette.Heat(w.Colors, 1))
	hm.Min = floats.Min(snap.Density)
	hm.Max = floats.Max(snap.Density)
	if hm.Max == hm.Min {
		hm.Max = hm.Min + 1
	}
	p.Add(hm)
	return p, nil
}

func (w *HeatmapWriter) WriteSnapshot(ctx context.Context, snap *domain.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := w.Render(snap)
	if err != nil {
		return err
	}
	dir := w.BasePath
	if snap.RunID != "" {
		dir = filepath.Join(w.BasePath, snap.RunID)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to ensure snapshot directory: %w", err)
	}
	height := w.Width * vg.Length(snap.Height) / vg.Length(snap.Width)
	name := filepath.Join(dir, fmt.Sprintf("droplet_%d.png", snap.Iteration))
	if err := p.Save(w.Width, height+vg.Inch, name); err != nil {
		return fmt.Errorf("failed to save heat map: %w", err)
	}
	return nil
}
