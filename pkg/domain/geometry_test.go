package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func referenceGeometry() Geometry {
	return Geometry{Width: 240, Height: 126, WellStartX: 40, WellEndX: 200, WellDepth: 26}
}

func TestPhysicalLayout_Geometry(t *testing.T) {
	layout := PhysicalLayout{
		CellSize:  0.005,
		Width:     1.2,
		Height:    0.63,
		WellStart: 0.2,
		WellEnd:   1.0,
		WellDepth: 0.13,
	}
	g, err := layout.Geometry()
	require.NoError(t, err)
	assert.Equal(t, referenceGeometry(), g)
}

func TestPhysicalLayout_RejectsZeroCellSize(t *testing.T) {
	_, err := PhysicalLayout{Width: 1, Height: 1}.Geometry()
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestGeometry_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Geometry)
	}{
		{"start at zero", func(g *Geometry) { g.WellStartX = 0 }},
		{"end before start", func(g *Geometry) { g.WellEndX = g.WellStartX }},
		{"end past width", func(g *Geometry) { g.WellEndX = g.Width }},
		{"no depth", func(g *Geometry) { g.WellDepth = 0 }},
		{"depth reaches top", func(g *Geometry) { g.WellDepth = g.Height }},
		{"empty domain", func(g *Geometry) { g.Width = 0 }},
	}
	require.NoError(t, referenceGeometry().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := referenceGeometry()
			tt.mutate(&g)
			assert.ErrorIs(t, g.Validate(), ErrInvalidGeometry)
		})
	}
}

func TestGeometry_Classify(t *testing.T) {
	g := referenceGeometry()
	tests := []struct {
		x, y int
		want Region
	}{
		{0, 125, RegionTopOutlet},
		{120, 125, RegionTopOutlet},
		{239, 125, RegionTopOutlet},
		{0, 50, RegionSide},
		{239, 0, RegionSide},
		{0, 26, RegionSide},
		{40, 26, RegionLeftPlatform},
		{10, 26, RegionLeftPlatform},
		{200, 26, RegionRightPlatform},
		{230, 26, RegionRightPlatform},
		{41, 0, RegionWellBottom},
		{199, 0, RegionWellBottom},
		{40, 0, RegionLeftVertical},
		{40, 25, RegionLeftVertical},
		{200, 0, RegionRightVertical},
		{200, 10, RegionRightVertical},
		{20, 10, RegionLeftPlatformSolid},
		{1, 0, RegionLeftPlatformSolid},
		{220, 10, RegionRightPlatformSolid},
		{120, 10, RegionNone},
		{120, 26, RegionNone},
		{120, 100, RegionNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, g.Classify(tt.x, tt.y), "cell (%d,%d)", tt.x, tt.y)
	}
}

func TestGeometry_ClassifyIsTotalAndStable(t *testing.T) {
	g := referenceGeometry()
	counts := make(map[Region]int)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			r := g.Classify(x, y)
			require.Contains(t, Regions, r)
			require.Equal(t, r, g.Classify(x, y))
			counts[r]++
		}
	}
	assert.Equal(t, g.Width, counts[RegionTopOutlet])
	assert.Equal(t, g.WellEndX-g.WellStartX-1, counts[RegionWellBottom])
	assert.Equal(t, g.WellDepth, counts[RegionLeftVertical])
	assert.Equal(t, g.WellDepth, counts[RegionRightVertical])
	assert.Equal(t, g.Cells(), func() int {
		total := 0
		for _, c := range counts {
			total += c
		}
		return total
	}())
}

func TestGeometry_MaskSolids(t *testing.T) {
	g := referenceGeometry()
	field := make([]float64, g.Cells())
	for i := range field {
		field[i] = 500
	}
	g.MaskSolids(field, 85)

	assert.Equal(t, 85.0, field[g.Index(20, 10)])
	assert.Equal(t, 85.0, field[g.Index(220, 10)])
	assert.Equal(t, 500.0, field[g.Index(120, 10)])
	assert.Equal(t, 500.0, field[g.Index(40, 10)], "vertical walls are not solid")
	assert.Equal(t, 500.0, field[g.Index(20, 26)], "platform surface is not solid")
}

func TestRegion_Predicates(t *testing.T) {
	assert.True(t, RegionLeftPlatformSolid.IsSolid())
	assert.False(t, RegionLeftPlatformSolid.IsActivatable())
	assert.True(t, RegionWellBottom.IsActivatable())
	assert.True(t, RegionSide.IsActivatable())
	assert.False(t, RegionTopOutlet.IsWall())
	assert.False(t, RegionNone.IsWall())
}

func TestRegion_TextRoundTrip(t *testing.T) {
	for _, r := range Regions {
		text, err := r.MarshalText()
		require.NoError(t, err)
		var back Region
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, r, back)
	}
	_, err := ParseRegion("ceiling")
	assert.Error(t, err)
}
