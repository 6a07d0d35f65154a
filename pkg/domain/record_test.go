package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRecord_PairsOrderAndCarreau(t *testing.T) {
	rec := RunRecord{ID: "run-1", Params: validParams()}
	m := rec.Map()

	assert.Equal(t, "-112", m["G"])
	assert.Equal(t, "26", m["wellDepth_lu"])
	assert.Equal(t, "160", m["wellWidth_lu"])
	assert.Equal(t, "false", m["carreau_enabled"])
	assert.NotContains(t, m, "eta0")

	pairs := rec.Pairs()
	require.NotEmpty(t, pairs)
	assert.Equal(t, "run_id", pairs[0].Key)

	rec.Params.Carreau.Enabled = true
	m = rec.Map()
	assert.Equal(t, "1.5", m["eta0"])
	assert.Equal(t, "3000", m["rho_phys"])
}

func TestDecodeRecord_RoundTrip(t *testing.T) {
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	params := validParams()
	params.Carreau.Enabled = true
	rec := RunRecord{
		ID:     "run-2",
		Params: params,
		Outcome: RunOutcome{
			Status:           StatusDone,
			Phases:           PhaseDensities{Gas: 84.5, Liquid: 527.25},
			WallDensities:    map[Region]float64{RegionWellBottom: 380.5, RegionRightVertical: 84.5},
			ContactIteration: 3210,
			ActivatedCells:   57,
			Iterations:       50000,
			StartedAt:        started,
			FinishedAt:       started.Add(time.Minute),
		},
	}

	got, err := DecodeRecord(rec.Map())
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Params.Geometry, got.Params.Geometry)
	assert.Equal(t, rec.Params.Carreau, got.Params.Carreau)
	assert.Equal(t, rec.Params.Angles, got.Params.Angles)
	assert.Equal(t, rec.Outcome.WallDensities, got.Outcome.WallDensities)
	assert.Equal(t, rec.Outcome.ContactIteration, got.Outcome.ContactIteration)
	assert.True(t, rec.Outcome.FinishedAt.Equal(got.Outcome.FinishedAt))
	assert.Equal(t, StatusDone, got.Outcome.Status)
}

func TestDecodeRecord_Errors(t *testing.T) {
	_, err := DecodeRecord(map[string]string{"G": "-112"})
	assert.Error(t, err)

	_, err = DecodeRecord(map[string]string{"run_id": "x", "maxIter": "lots"})
	assert.Error(t, err)
}
