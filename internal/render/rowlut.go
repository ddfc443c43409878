package render

import (
	"math"

	"zonecaster/internal/world"
)

// RowLUT maps each screen row to the perpendicular distance at which the view
// ray through that row meets the floor (rows below the horizon) or the ceiling
// (rows above it). Zones with their own floor depth or ceiling height get
// override tables keyed by zone id.
type RowLUT struct {
	height  int
	horizon float64
	eyeZ    float64
	version uint64

	floor     []float64
	ceil      []float64
	zoneFloor map[int][]float64
	zoneCeil  map[int][]float64
	ceilIDs   []int // keys of zoneCeil in ascending order
}

// Stale reports whether the table no longer matches the given inputs.
func (l *RowLUT) Stale(height int, eyeZ float64, version uint64) bool {
	return l.floor == nil || l.height != height || l.eyeZ != eyeZ || l.version != version
}

// Rebuild recomputes the base tables and every zone override.
func (l *RowLUT) Rebuild(height int, eyeZ float64, level *world.Level) {
	l.height = height
	l.horizon = float64(height) / 2
	l.eyeZ = eyeZ
	l.version = level.Version()

	l.floor = resize(l.floor, height)
	l.ceil = resize(l.ceil, height)
	baseCeil := level.CeilingHeight
	l.fillFloor(l.floor, 0)
	l.fillCeil(l.ceil, baseCeil)

	l.zoneFloor = make(map[int][]float64)
	l.zoneCeil = make(map[int][]float64)
	l.ceilIDs = l.ceilIDs[:0]
	addOverrides := func(id int, z *world.Zone) {
		if z.FloorDepth != 0 {
			t := make([]float64, height)
			l.fillFloor(t, z.FloorDepth)
			l.zoneFloor[id] = t
		}
		if z.CeilingHeight != 0 && z.CeilingHeight != baseCeil {
			t := make([]float64, height)
			l.fillCeil(t, z.CeilingHeight)
			l.zoneCeil[id] = t
			l.ceilIDs = append(l.ceilIDs, id)
		}
	}
	addOverrides(world.NoZone, &level.DefaultZone)
	zones := level.Zones()
	for id := range zones {
		addOverrides(id, &zones[id])
	}
}

// fillFloor writes (eyeZ-floorZ)*H/(y+0.5-horizon) below the horizon and +Inf elsewhere.
func (l *RowLUT) fillFloor(dst []float64, floorZ float64) {
	dz := l.eyeZ - floorZ
	h := float64(l.height)
	for y := range dst {
		off := float64(y) + 0.5 - l.horizon
		if off <= 0 || dz <= 0 {
			dst[y] = math.Inf(1)
			continue
		}
		dst[y] = dz * h / off
	}
}

// fillCeil mirrors fillFloor above the horizon. A ceiling at or below the eye
// (including the open-sky height 0) yields +Inf.
func (l *RowLUT) fillCeil(dst []float64, ceilZ float64) {
	dz := ceilZ - l.eyeZ
	h := float64(l.height)
	for y := range dst {
		off := l.horizon - float64(y) - 0.5
		if off <= 0 || dz <= 0 {
			dst[y] = math.Inf(1)
			continue
		}
		dst[y] = dz * h / off
	}
}

// Horizon returns the horizon row as a float
func (l *RowLUT) Horizon() float64 { return l.horizon }

// Floor returns the base floor distance of row y
func (l *RowLUT) Floor(y int) float64 { return l.floor[y] }

// Ceiling returns the base ceiling distance of row y
func (l *RowLUT) Ceiling(y int) float64 { return l.ceil[y] }

// ZoneFloor returns the floor table for a zone, falling back to the base table.
func (l *RowLUT) ZoneFloor(id int) []float64 {
	if t, ok := l.zoneFloor[id]; ok {
		return t
	}
	return l.floor
}

// ZoneCeiling returns the ceiling table for a zone, falling back to the base table.
func (l *RowLUT) ZoneCeiling(id int) []float64 {
	if t, ok := l.zoneCeil[id]; ok {
		return t
	}
	return l.ceil
}

// HasZoneCeiling reports whether a zone has a ceiling table of its own
func (l *RowLUT) HasZoneCeiling(id int) bool {
	_, ok := l.zoneCeil[id]
	return ok
}

// CeilingZones returns the ids of zones with their own ceiling table, ascending.
func (l *RowLUT) CeilingZones() []int { return l.ceilIDs }

// Overrides returns the number of zone-specific floor and ceiling tables
func (l *RowLUT) Overrides() (floor, ceiling int) {
	return len(l.zoneFloor), len(l.zoneCeil)
}

func resize(s []float64, n int) []float64 {
	if cap(s) < n {
		return make([]float64, n)
	}
	return s[:n]
}
