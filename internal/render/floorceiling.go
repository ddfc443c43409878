package render

import (
	"image/color"
	"math"

	"zonecaster/internal/world"
)

// FloorCeilingRenderer paints floor and ceiling runs outside the wall
// silhouette. Each column is scanned with a stride that grows away from the
// horizon; a zone change between two samples is pinned down by binary search,
// so every uniform run is a single strip copy.
type FloorCeilingRenderer struct {
	LiquidBandPx  int
	BandScale     float64
	StrideDivisor int
	MaxStride     int
	DepthEpsilon  float64

	bands []band
}

type band struct {
	top, bottom int
	c           color.RGBA
}

// surfaceParams is the per-frame input for floor and ceiling painting.
type surfaceParams struct {
	fb      *Framebuffer
	depth   *DepthBuffer
	lut     *RowLUT
	zones   *ZoneGrid
	grads   *GradientCache
	level   *world.Level
	fog     FogCompositor
	basis   CameraBasis
	height  int
	horizon float64
	camZone int
	eyeZ    float64
	stats   *FrameStats
}

// surface describes one plane being scanned: pick resolves a row to the zone
// that shows there and the distance it is seen at, and level is the zone
// attribute that makes a boundary a step.
type surface struct {
	pick  func(y int) (zone int, d float64)
	level func(z *world.Zone) float64
}

// landing returns the zone under the point a column ray reaches at distance d.
func (p *surfaceParams) landing(rayX, rayY float64) func(d float64) int {
	return func(d float64) int {
		return p.zones.AtPoint(p.basis.PosX+rayX*d, p.basis.PosY+rayY*d)
	}
}

func (p *surfaceParams) floorSurface(rayX, rayY float64) surface {
	table := p.lut.floor
	if p.eyeZ <= 0 {
		// eye below the base plane: only the sunken zone around the camera is visible
		table = p.lut.ZoneFloor(p.camZone)
	}
	at := p.landing(rayX, rayY)
	return surface{
		pick: func(y int) (int, float64) {
			d := table[y]
			if math.IsInf(d, 1) {
				return p.camZone, d
			}
			return at(d), d
		},
		level: func(z *world.Zone) float64 { return z.FloorDepth },
	}
}

// ceilingSurface resolves every ceiling row to the nearest ceiling plane whose
// hit point lies inside a zone carrying that plane. The base plane belongs to
// every zone without a ceiling of its own. A row that meets no plane shows the
// sky of the zone the ray crosses at the camera zone's ceiling height.
func (p *surfaceParams) ceilingSurface(rayX, rayY float64) surface {
	base := p.level.CeilingHeight
	at := p.landing(rayX, rayY)
	lut := p.lut
	return surface{
		pick: func(y int) (int, float64) {
			zone, best := p.camZone, math.Inf(1)
			if d := lut.ceil[y]; !math.IsInf(d, 1) {
				if z := at(d); !lut.HasZoneCeiling(z) {
					zone, best = z, d
				}
			}
			for _, id := range lut.ceilIDs {
				d := lut.zoneCeil[id][y]
				if d < best && at(d) == id {
					zone, best = id, d
				}
			}
			if !math.IsInf(best, 1) {
				return zone, best
			}
			if d := lut.ZoneCeiling(p.camZone)[y]; !math.IsInf(d, 1) {
				return at(d), best
			}
			return p.camZone, best
		},
		level: func(z *world.Zone) float64 {
			if z.CeilingHeight != 0 {
				return z.CeilingHeight
			}
			if base == 0 {
				return math.Inf(1)
			}
			return base
		},
	}
}

// DrawFloor paints floor rows [y0, y1) of column col. edge is the row of the
// wall bottom the floor starts under.
func (r *FloorCeilingRenderer) DrawFloor(p *surfaceParams, col int, rayX, rayY float64, y0, y1, edge int) {
	y0 = max(y0, int(math.Ceil(p.horizon-0.5)))
	if y0 >= y1 {
		return
	}
	r.scan(p, p.floorSurface(rayX, rayY), col, y0, y1-1, 1, edge)
}

// DrawCeiling paints ceiling rows [y0, y1) of column col scanning upward from
// y1-1. edge is the row of the wall top the ceiling ends on.
func (r *FloorCeilingRenderer) DrawCeiling(p *surfaceParams, col int, rayX, rayY float64, y0, y1, edge int) {
	y1 = min(y1, int(math.Ceil(p.horizon-0.5)))
	if y0 >= y1 {
		return
	}
	r.scan(p, p.ceilingSurface(rayX, rayY), col, y1-1, y0, -1, edge)
}

// scan walks rows from first to last inclusive in direction dir.
func (r *FloorCeilingRenderer) scan(p *surfaceParams, s surface, col int, first, last, dir, edge int) {
	n := (last-first)*dir + 1
	row := func(i int) int { return first + i*dir }
	sample := func(i int) int {
		z, _ := s.pick(row(i))
		return z
	}
	paint := func(zone, from, to int) {
		a, b := row(from), row(to-1)
		if a > b {
			a, b = b, a
		}
		p.fb.CopyColumn(col, a, b+1, p.grads.Get(zone).Strip)
		p.stats.SurfaceRuns++
	}

	r.bands = r.bands[:0]
	cur := sample(0)
	runStart := 0
	i := 0
	for {
		stride := int(math.Abs(float64(row(i))-p.horizon)) / max(r.StrideDivisor, 1)
		stride = min(max(stride, 1), max(r.MaxStride, 1))
		next := min(i+stride, n-1)
		if next == i {
			break
		}
		if sample(next) == cur {
			i = next
			continue
		}

		// invariant: sample(lo) == cur, sample(hi) != cur
		lo, hi := i, next
		for hi-lo > 1 {
			mid := (lo + hi) / 2
			if sample(mid) == cur {
				lo = mid
			} else {
				hi = mid
			}
		}
		paint(cur, runStart, hi)
		nz, dNext := s.pick(row(hi))
		_, dPrev := s.pick(row(lo))
		// the step face stands at the nearer of the two planes
		r.addBand(p, col, s.level, cur, nz, row(hi), math.Min(dPrev, dNext), dir, edge)
		cur, runStart, i = nz, hi, hi
	}
	paint(cur, runStart, n)

	lo, hi := min(first, last), max(first, last)+1
	for _, b := range r.bands {
		p.fb.FillColumn(col, max(b.top, lo), min(b.bottom, hi), b.c)
		p.stats.Bands++
	}
}

// addBand queues the step face between two zones whose surface levels differ.
// Liquid edges get a fixed thickness; other steps are projected from the
// height difference. Bands on the wall edge or behind a wall are dropped, and
// open sky has no face to show.
func (r *FloorCeilingRenderer) addBand(p *surfaceParams, col int, level func(*world.Zone) float64, from, to, boundary int, d float64, dir, edge int) {
	zf, zt := p.level.Zone(from), p.level.Zone(to)
	delta := level(zt) - level(zf)
	if delta == 0 || math.IsInf(delta, 0) || math.IsNaN(delta) {
		return
	}
	if (dir > 0 && boundary <= edge) || (dir < 0 && boundary >= edge-1) {
		return
	}
	if math.IsInf(d, 1) {
		return
	}
	if p.depth.Occluded(col, boundary, d, r.DepthEpsilon) {
		return
	}

	var thickness int
	if zf.Liquid || zt.Liquid {
		thickness = r.LiquidBandPx
	} else {
		thickness = int(math.Round(float64(p.height) * math.Abs(delta) * r.BandScale / d))
	}
	thickness = max(thickness, 1)

	// the lower of the two surfaces shows the step face
	deeper := from
	if delta < 0 {
		deeper = to
	}
	pal := p.grads.Get(deeper).Palette
	c := p.fog.Apply(mix(pal.Base, color.RGBA{A: 255}, 0.4), pal.Fog, d)

	top, bottom := boundary, boundary+thickness
	if dir < 0 {
		top, bottom = boundary-thickness+1, boundary+1
	}
	r.bands = append(r.bands, band{top: top, bottom: bottom, c: c})
}

// PaintBackground fills the whole frame with one zone's gradient rows. It is
// the simplified-mode replacement for per-column floor and ceiling scans.
func PaintBackground(fb *Framebuffer, g *ZoneGradient) {
	for y := 0; y < fb.Height && y < len(g.Strip); y++ {
		fb.FillRow(y, g.Strip[y])
	}
}
