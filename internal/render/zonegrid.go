package render

import "zonecaster/internal/world"

// ZoneGrid caches the owning zone id of every grid cell so per-pixel floor
// sampling is one slice lookup instead of a rectangle scan.
type ZoneGrid struct {
	width   int
	height  int
	ids     []int32
	version uint64
}

// Rebuild recomputes every cell owner. Zones are painted from the lowest
// priority (highest index) up so the lowest index wins overlaps.
func (zg *ZoneGrid) Rebuild(level *world.Level) {
	w, h := level.Width(), level.Height()
	if cap(zg.ids) < w*h {
		zg.ids = make([]int32, w*h)
	}
	zg.ids = zg.ids[:w*h]
	zg.width, zg.height = w, h
	for i := range zg.ids {
		zg.ids[i] = world.NoZone
	}

	zones := level.Zones()
	for id := len(zones) - 1; id >= 0; id-- {
		z := &zones[id]
		x0, y0 := max(z.X, 0), max(z.Y, 0)
		x1, y1 := min(z.X+z.W, w), min(z.Y+z.H, h)
		for y := y0; y < y1; y++ {
			row := zg.ids[y*w : (y+1)*w]
			for x := x0; x < x1; x++ {
				row[x] = int32(id)
			}
		}
	}
	zg.version = level.Version()
}

// At returns the zone id of cell (cx, cy), or NoZone outside the grid.
func (zg *ZoneGrid) At(cx, cy int) int {
	if cx < 0 || cy < 0 || cx >= zg.width || cy >= zg.height {
		return world.NoZone
	}
	return int(zg.ids[cy*zg.width+cx])
}

// AtPoint returns the zone id owning world point (x, y).
func (zg *ZoneGrid) AtPoint(x, y float64) int {
	if x < 0 || y < 0 {
		return world.NoZone
	}
	return zg.At(int(x), int(y))
}

// Version returns the level version the grid was built from
func (zg *ZoneGrid) Version() uint64 { return zg.version }

// Snapshot returns a copy of the cell owners, row-major.
func (zg *ZoneGrid) Snapshot() []int32 {
	return append([]int32(nil), zg.ids...)
}
