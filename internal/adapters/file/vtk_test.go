package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/cavity/pkg/domain"
)

func TestSnapshotWriter(t *testing.T) {
	dir := t.TempDir()
	w := NewSnapshotWriter(dir)
	snap := &domain.Snapshot{
		RunID:     "run-1",
		Iteration: 500,
		Width:     3,
		Height:    2,
		Density:   []float64{85, 90, 530, 1, 2.5, 3},
	}
	require.NoError(t, w.WriteSnapshot(context.Background(), snap))

	data, err := os.ReadFile(filepath.Join(dir, "run-1", "droplet_500.vtk"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "# vtk DataFile Version 3.0", lines[0])
	assert.Contains(t, lines, "DIMENSIONS 3 2 1")
	assert.Contains(t, lines, "POINT_DATA 6")
	assert.Equal(t, "85 90 530", lines[len(lines)-2])
	assert.Equal(t, "1 2.5 3", lines[len(lines)-1])
}

func TestSnapshotWriter_RejectsShortField(t *testing.T) {
	w := NewSnapshotWriter(t.TempDir())
	err := w.WriteSnapshot(context.Background(), &domain.Snapshot{Width: 4, Height: 4, Density: []float64{1}})
	assert.Error(t, err)
}
