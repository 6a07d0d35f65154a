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
	"github.com/aretw0/cavity/pkg/ports"
)

func TestStore_Contract(t *testing.T) {
	ports.RunRunStoreContract(t, New(t.TempDir()))
}

func TestStore_ParametersFormat(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	rec := &domain.RunRecord{
		ID: "run-7",
		Params: domain.RunParams{
			Geometry: domain.Geometry{Width: 240, Height: 126, WellStartX: 40, WellEndX: 200, WellDepth: 26},
			CellSize: 0.005,
			Angles:   domain.DefaultContactAngles(),
			Fluid:    domain.FluidParams{G: -112, Tau: 1, Gravity: -5e-5},
			Carreau:  domain.DefaultCarreauParams(),
		},
		Outcome: domain.RunOutcome{Status: domain.StatusDone},
	}
	require.NoError(t, store.Save(context.Background(), rec))

	data, err := os.ReadFile(filepath.Join(dir, "run-7", ParametersFile))
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "# Cavity droplet simulation\n"))
	assert.Contains(t, text, "G=-112\n")
	assert.Contains(t, text, "gravity=-5e-05\n")
	assert.Contains(t, text, "theta_bottom=30\n")
	assert.Contains(t, text, "wellWidth_lu=160\n")
	assert.Contains(t, text, "# Carreau rheology\ncarreau_enabled=false\n")
	assert.NotContains(t, text, "eta0=")

	entries, err := os.ReadDir(filepath.Join(dir, "run-7"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode([]byte("# header\nrun_id=x\nbroken line\n"))
	assert.Error(t, err)

	rec, err := Decode([]byte("\n# c\nrun_id = x \nG=-50\n"))
	require.NoError(t, err)
	assert.Equal(t, "x", rec.ID)
	assert.Equal(t, -50.0, rec.Params.Fluid.G)
}

func TestStore_DeleteKeepsSnapshots(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, &domain.RunRecord{ID: "r"}))
	require.NoError(t, NewSnapshotWriter(dir).WriteSnapshot(ctx, &domain.Snapshot{RunID: "r", Width: 1, Height: 1, Density: []float64{1}}))

	require.NoError(t, store.Delete(ctx, "r"))
	_, err := os.Stat(filepath.Join(dir, "r", "droplet_0.vtk"))
	assert.NoError(t, err)

	runs, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, runs)
}
