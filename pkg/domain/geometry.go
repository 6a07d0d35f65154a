package domain

import (
	"fmt"
	"math"
)

// Geometry holds the lattice dimensions of the stepped cavity.
// Row 0 is the well bottom and row WellDepth is the platform level.
type Geometry struct {
	Width      int `json:"width"`
	Height     int `json:"height"`
	WellStartX int `json:"well_start_x"`
	WellEndX   int `json:"well_end_x"`
	WellDepth  int `json:"well_depth"`
}

// PhysicalLayout describes the cavity in millimetres.
type PhysicalLayout struct {
	CellSize  float64 // mm per lattice cell
	Width     float64
	Height    float64
	WellStart float64
	WellEnd   float64
	WellDepth float64
}

// toCells converts a length in millimetres to a whole number of cells.
func (p PhysicalLayout) toCells(mm float64) int {
	return int(math.Round(mm / p.CellSize))
}

// Geometry converts the physical layout to lattice coordinates.
func (p PhysicalLayout) Geometry() (Geometry, error) {
	if p.CellSize <= 0 {
		return Geometry{}, fmt.Errorf("%w: cell size must be positive, got %g", ErrInvalidGeometry, p.CellSize)
	}
	g := Geometry{
		Width:      p.toCells(p.Width),
		Height:     p.toCells(p.Height),
		WellStartX: p.toCells(p.WellStart),
		WellEndX:   p.toCells(p.WellEnd),
		WellDepth:  p.toCells(p.WellDepth),
	}
	return g, g.Validate()
}

// Validate checks the invariants 0 < WellStartX < WellEndX < Width and
// 0 < WellDepth < Height.
func (g Geometry) Validate() error {
	switch {
	case g.Width <= 0 || g.Height <= 0:
		return fmt.Errorf("%w: domain %dx%d", ErrInvalidGeometry, g.Width, g.Height)
	case g.WellStartX <= 0:
		return fmt.Errorf("%w: well start x=%d must be positive", ErrInvalidGeometry, g.WellStartX)
	case g.WellEndX <= g.WellStartX:
		return fmt.Errorf("%w: well end x=%d must exceed well start x=%d", ErrInvalidGeometry, g.WellEndX, g.WellStartX)
	case g.WellEndX >= g.Width:
		return fmt.Errorf("%w: well end x=%d outside domain width %d", ErrInvalidGeometry, g.WellEndX, g.Width)
	case g.WellDepth <= 0:
		return fmt.Errorf("%w: well depth %d must be positive", ErrInvalidGeometry, g.WellDepth)
	case g.WellDepth >= g.Height:
		return fmt.Errorf("%w: well depth %d not below domain height %d", ErrInvalidGeometry, g.WellDepth, g.Height)
	}
	return nil
}

// PlatformLevel is the row of the two platform surfaces.
func (g Geometry) PlatformLevel() int { return g.WellDepth }

// BottomLevel is the row of the well bottom.
func (g Geometry) BottomLevel() int { return 0 }

// Contains reports whether (x, y) lies inside the domain.
func (g Geometry) Contains(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// Classify returns the region of cell (x, y). Rules are evaluated in order and
// the first match wins. Platform-level cells on a well wall belong to the
// platform surface, not to the vertical wall.
func (g Geometry) Classify(x, y int) Region {
	platform := g.PlatformLevel()

	if y == g.Height-1 {
		return RegionTopOutlet
	}
	if x == 0 || x == g.Width-1 {
		return RegionSide
	}
	if y == platform && x <= g.WellStartX {
		return RegionLeftPlatform
	}
	if y == platform && x >= g.WellEndX {
		return RegionRightPlatform
	}
	if y == g.BottomLevel() && x > g.WellStartX && x < g.WellEndX {
		return RegionWellBottom
	}
	if x == g.WellStartX && y < platform {
		return RegionLeftVertical
	}
	if x == g.WellEndX && y < platform {
		return RegionRightVertical
	}
	if x < g.WellStartX && y < platform {
		return RegionLeftPlatformSolid
	}
	if x > g.WellEndX && y < platform {
		return RegionRightPlatformSolid
	}
	return RegionNone
}

// Index returns the row-major offset of (x, y) in a Width*Height field.
func (g Geometry) Index(x, y int) int {
	return y*g.Width + x
}

// Cells returns Width*Height.
func (g Geometry) Cells() int {
	return g.Width * g.Height
}

// MaskSolids overwrites internal solid cells of a row-major density field with
// fill, so they do not show up as liquid in exported snapshots.
func (g Geometry) MaskSolids(field []float64, fill float64) {
	for y := 0; y < g.WellDepth && y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if g.Classify(x, y).IsSolid() {
				field[g.Index(x, y)] = fill
			}
		}
	}
}
