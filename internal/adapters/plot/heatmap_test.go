package plot

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/cavity/pkg/domain"
)

func field(w, h int) *domain.Snapshot {
	d := make([]float64, w*h)
	for i := range d {
		d[i] = 85 + float64(i%w)*10
	}
	return &domain.Snapshot{RunID: "run-1", Iteration: 1000, Width: w, Height: h, Density: d}
}

func TestHeatmapWriter_WritesPNG(t *testing.T) {
	dir := t.TempDir()
	w := NewHeatmapWriter(dir)
	require.NoError(t, w.WriteSnapshot(context.Background(), field(24, 12)))

	data, err := os.ReadFile(filepath.Join(dir, "run-1", "droplet_1000.png"))
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(data[:4]))
}

func TestHeatmapWriter_Render(t *testing.T) {
	w := NewHeatmapWriter("")
	p, err := w.Render(field(5, 4))
	require.NoError(t, err)
	assert.Equal(t, "density, iteration 1000", p.Title.Text)

	_, err = w.Render(&domain.Snapshot{Width: 1, Height: 1, Density: []float64{1}})
	assert.Error(t, err)
}

func TestHeatmapWriter_UniformField(t *testing.T) {
	snap := &domain.Snapshot{Width: 3, Height: 3, Density: []float64{90, 90, 90, 90, 90, 90, 90, 90, 90}}
	_, err := NewHeatmapWriter("").Render(snap)
	assert.NoError(t, err)
}
