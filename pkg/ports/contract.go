package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/cavity/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractRecord(id string) *domain.RunRecord {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &domain.RunRecord{
		ID: id,
		Params: domain.RunParams{
			Geometry: domain.Geometry{Width: 240, Height: 126, WellStartX: 40, WellEndX: 200, WellDepth: 26},
			CellSize: 0.005,
			Angles:   domain.DefaultContactAngles(),
			Droplet:  domain.Droplet{CenterX: 120, CenterY: 86, Radius: 30, RhoIn: 530, RhoOut: 85},
			Fluid:    domain.FluidParams{G: -112, Psi0: 4, Rho0: 200, Tau: 1, Gravity: -5e-5},
			Schedule: domain.Schedule{MaxIter: 100, WarmupIter: 10, SaveEvery: 50, ScanEvery: 10},
			Wetting:  domain.WettingParams{NeutralDensity: 90, LiquidFraction: 0.15, ContactProbeOffset: 2},
			Carreau:  domain.DefaultCarreauParams(),
		},
		Outcome: domain.RunOutcome{
			Status:           domain.StatusDone,
			Phases:           domain.PhaseDensities{Gas: 85, Liquid: 530},
			WallDensities:    map[domain.Region]float64{domain.RegionWellBottom: 381.5},
			ContactIteration: 40,
			ActivatedCells:   12,
			Iterations:       100,
			StartedAt:        started,
			FinishedAt:       started.Add(time.Second),
		},
	}
}

// RunRunStoreContract runs a suite of tests to verify that a RunStore implementation
// adheres to the defined interface contract.
func RunRunStoreContract(t *testing.T, store RunStore) {
	ctx := context.Background()
	runID := "contract-test-run-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		rec := contractRecord(runID)

		err := store.Save(ctx, rec)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, rec.ID, loaded.ID)
		assert.Equal(t, rec.Params.Geometry, loaded.Params.Geometry)
		assert.Equal(t, rec.Params.Angles, loaded.Params.Angles)
		assert.Equal(t, rec.Outcome.Status, loaded.Outcome.Status)
		assert.Equal(t, rec.Outcome.ContactIteration, loaded.Outcome.ContactIteration)
		assert.Equal(t, rec.Outcome.WallDensities, loaded.Outcome.WallDensities)
		assert.True(t, rec.Outcome.FinishedAt.Equal(loaded.Outcome.FinishedAt))
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		rec := contractRecord(runID)
		rec.Outcome.ActivatedCells = 99
		require.NoError(t, store.Save(ctx, rec))

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, 99, loaded.Outcome.ActivatedCells)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, contractRecord(runID))
		require.NoError(t, err)

		err = store.Delete(ctx, runID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		_ = store.Save(ctx, contractRecord(id1))
		_ = store.Save(ctx, contractRecord(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		runs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, runs, id1)
		assert.Contains(t, runs, id2)
	})
}
