package world

import (
	"image/color"

	"zonecaster/internal/mathutil"
)

// MaterialID is the value stored in every grid cell.
// 0 is empty space, any positive id names a wall material.
type MaterialID int

const (
	// Empty marks a walkable cell with no wall
	Empty MaterialID = 0
	// DefaultEdgeMaterial is returned for coordinates outside the grid
	DefaultEdgeMaterial MaterialID = 1
)

// NoZone is the zone id of cells not covered by any zone rectangle.
const NoZone = -1

// Face identifies which side of a cell a ray entered through.
type Face int

const (
	FaceWest  Face = iota // entered moving +X
	FaceEast              // entered moving -X
	FaceNorth             // entered moving +Y
	FaceSouth             // entered moving -Y
)

var faceNames = [...]string{"west", "east", "north", "south"}

func (f Face) String() string {
	if f < 0 || int(f) >= len(faceNames) {
		return "unknown"
	}
	return faceNames[f]
}

// ParseFace converts a YAML face key into a Face.
func ParseFace(name string) (Face, bool) {
	for i, n := range faceNames {
		if n == name {
			return Face(i), true
		}
	}
	return 0, false
}

// RGB is a YAML-friendly color triple, matching the [r, g, b] form used in level files.
type RGB [3]int

// RGBA converts the triple to an opaque color, clamping each channel.
func (c RGB) RGBA() color.RGBA {
	return color.RGBA{R: clampByte(c[0]), G: clampByte(c[1]), B: clampByte(c[2]), A: 255}
}

// IsZero reports whether the color was left unset.
func (c RGB) IsZero() bool {
	return c == RGB{}
}

// Or returns c, or fallback when c is unset.
func (c RGB) Or(fallback RGB) RGB {
	if c.IsZero() {
		return fallback
	}
	return c
}

func clampByte(v int) uint8 {
	return uint8(mathutil.IntClamp(v, 0, 255))
}
