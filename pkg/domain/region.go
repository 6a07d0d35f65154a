package domain

import "fmt"

// Region tags a lattice cell with the part of the cavity it belongs to.
type Region int

const (
	RegionNone Region = iota
	RegionLeftPlatform
	RegionLeftPlatformSolid
	RegionLeftVertical
	RegionWellBottom
	RegionRightVertical
	RegionRightPlatform
	RegionRightPlatformSolid
	RegionTopOutlet
	RegionSide
)

var regionNames = [...]string{
	RegionNone:               "none",
	RegionLeftPlatform:       "left-platform",
	RegionLeftPlatformSolid:  "left-platform-solid",
	RegionLeftVertical:       "left-vertical",
	RegionWellBottom:         "well-bottom",
	RegionRightVertical:      "right-vertical",
	RegionRightPlatform:      "right-platform",
	RegionRightPlatformSolid: "right-platform-solid",
	RegionTopOutlet:          "top-outlet",
	RegionSide:               "side",
}

// Regions lists every tag in declaration order.
var Regions = []Region{
	RegionNone,
	RegionLeftPlatform,
	RegionLeftPlatformSolid,
	RegionLeftVertical,
	RegionWellBottom,
	RegionRightVertical,
	RegionRightPlatform,
	RegionRightPlatformSolid,
	RegionTopOutlet,
	RegionSide,
}

func (r Region) String() string {
	if r < 0 || int(r) >= len(regionNames) {
		return "unknown"
	}
	return regionNames[r]
}

// IsSolid reports whether the region is internal solid below a platform.
// Solid cells are masked from output and never receive a wetting condition.
func (r Region) IsSolid() bool {
	return r == RegionLeftPlatformSolid || r == RegionRightPlatformSolid
}

// IsWall reports whether the cell is simulated as a no-slip wall.
// The top outlet stays open fluid.
func (r Region) IsWall() bool {
	return r != RegionNone && r != RegionTopOutlet
}

// IsActivatable reports whether the progressive wetting sweep may assign a
// boundary density to the cell: every wall except internal solids.
func (r Region) IsActivatable() bool {
	return r.IsWall() && !r.IsSolid()
}

// MarshalText encodes the region by name.
func (r Region) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a region name.
func (r *Region) UnmarshalText(text []byte) error {
	parsed, err := ParseRegion(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseRegion returns the region with the given name.
func ParseRegion(name string) (Region, error) {
	for i, n := range regionNames {
		if n == name {
			return Region(i), nil
		}
	}
	return RegionNone, fmt.Errorf("unknown region %q", name)
}
