package render

import (
	"image"
	"math"

	"zonecaster/internal/mathutil"
	"zonecaster/internal/texture"
	"zonecaster/internal/world"
)

const (
	// rayEpsilon marks a ray direction as degenerate
	rayEpsilon = 1e-12
	// farDelta stands in for the per-cell delta of an axis the ray never crosses
	farDelta = 1e30
)

// Hit is one wall cell entered by a ray.
type Hit struct {
	MapX, MapY int
	Side       int     // 0 crossed a vertical grid line (x step), 1 a horizontal one
	Dist       float64 // perpendicular distance, clamped to the near plane
	WallX      float64 // texture u in [0,1)
	Material   world.MaterialID
	Face       world.Face
	FrontZone  int // zone of the open cell the ray left
}

// WallSegment is one textured vertical span drawn for a column.
type WallSegment struct {
	Top, Bottom int // rows [Top, Bottom)
	Material    world.MaterialID
	Texture     string
	Tier        int
	TexX        int
	V0, VStep   float64 // texel row at Top and per screen row
	Shade       float64
	ShadeIdx    int
	Dist        float64
}

type gapRange struct {
	top, bottom int
}

// columnTrace is the pure result of tracing one column: the first hit followed
// by periscope hits that rise above everything nearer.
type columnTrace struct {
	rayX, rayY float64
	hits       []Hit
	tops       []int // unclipped top row of each hit
	bottoms    []int // unclipped bottom row of each hit
	steps      int
}

// WallCaster traces one ray per column through the grid and draws the walls it hits.
type WallCaster struct {
	Shader           Shader
	Fog              FogCompositor
	Near             float64
	PeriscopeMaxHits int

	width, height int
	wallTop       []int
	wallBottom    []int
	gaps          [][]gapRange
	traces        []columnTrace
	segments      []WallSegment
}

// Resize reallocates the per-column buffers
func (wc *WallCaster) Resize(width, height int) {
	wc.width, wc.height = width, height
	wc.wallTop = make([]int, width)
	wc.wallBottom = make([]int, width)
	wc.gaps = make([][]gapRange, width)
	wc.traces = make([]columnTrace, width)
}

// StepGuard is the maximum number of DDA steps for a given sight distance.
func StepGuard(sight float64) int {
	return int(sight*4) + 8
}

// traceParams is the read-only input shared by every column of one frame.
type traceParams struct {
	level   *world.Level
	zones   *ZoneGrid
	basis   CameraBasis
	sight   float64
	eyeZ    float64
	horizon float64
	height  int
	near    float64
	maxHits int
}

// traceColumn runs the DDA for one column. It only reads shared state, so
// columns may be traced concurrently.
func (wc *WallCaster) traceColumn(p *traceParams, col int) {
	tr := &wc.traces[col]
	tr.hits = tr.hits[:0]
	tr.tops = tr.tops[:0]
	tr.bottoms = tr.bottoms[:0]
	tr.rayX, tr.rayY = p.basis.RayDir(col, wc.width)

	silhouette := math.MaxInt
	tr.steps = castRay(p.level, p.zones, p.basis.PosX, p.basis.PosY, tr.rayX, tr.rayY, p.sight, p.near, func(h Hit) bool {
		top, bottom := projectWall(p, &h)
		if len(tr.hits) == 0 || top < silhouette {
			tr.hits = append(tr.hits, h)
			tr.tops = append(tr.tops, top)
			tr.bottoms = append(tr.bottoms, bottom)
			silhouette = top
		}
		// maxHits counts periscope hits only, so a column holds at most maxHits+1
		if silhouette <= 0 || len(tr.hits) > p.maxHits {
			return false
		}
		return p.level.InBounds(h.MapX, h.MapY)
	})
}

// projectWall returns the unclipped screen rows covered by a hit. Walls rise
// from the base plane to their height; a wall seen from a sunken zone extends
// down to that zone's floor.
func projectWall(p *traceParams, h *Hit) (top, bottom int) {
	height := p.level.Materials.GetHeightMultiplier(h.Material)
	base := math.Min(0, p.level.Zone(h.FrontZone).FloorDepth)
	scale := float64(p.height) / h.Dist
	top = rowOf(p.horizon + (p.eyeZ-height)*scale)
	bottom = rowOf(p.horizon + (p.eyeZ-base)*scale)
	return top, bottom
}

// rowOf returns the first row whose center lies at or below screen y.
func rowOf(y float64) int {
	if y > 1e9 {
		return 1e9
	}
	if y < -1e9 {
		return -1e9
	}
	return int(math.Ceil(y - 0.5))
}

// castRay walks grid lines from (px, py) along (rx, ry), calling visit for every
// non-empty cell until visit returns false, the perpendicular distance exceeds
// sight, or the step guard runs out. It returns the number of steps taken.
// A degenerate ray visits nothing.
func castRay(level *world.Level, zones *ZoneGrid, px, py, rx, ry, sight, near float64, visit func(Hit) bool) int {
	if mathutil.NearlyZero(rx, rayEpsilon) && mathutil.NearlyZero(ry, rayEpsilon) {
		return 0
	}

	mapX, mapY := int(math.Floor(px)), int(math.Floor(py))
	deltaX, deltaY := farDelta, farDelta
	if rx != 0 {
		deltaX = math.Abs(1 / rx)
	}
	if ry != 0 {
		deltaY = math.Abs(1 / ry)
	}

	var stepX, stepY int
	var sideX, sideY float64
	if rx < 0 {
		stepX = -1
		sideX = (px - float64(mapX)) * deltaX
	} else {
		stepX = 1
		sideX = (float64(mapX) + 1 - px) * deltaX
	}
	if ry < 0 {
		stepY = -1
		sideY = (py - float64(mapY)) * deltaY
	} else {
		stepY = 1
		sideY = (float64(mapY) + 1 - py) * deltaY
	}

	front := zones.At(mapX, mapY)
	guard := StepGuard(sight)
	steps := 0
	for steps < guard {
		steps++
		var side int
		if sideX < sideY {
			sideX += deltaX
			mapX += stepX
			side = 0
		} else {
			sideY += deltaY
			mapY += stepY
			side = 1
		}

		var dist float64
		if side == 0 {
			dist = sideX - deltaX
		} else {
			dist = sideY - deltaY
		}
		if dist > sight {
			break
		}

		cell := level.Cell(mapX, mapY)
		if cell == world.Empty {
			front = zones.At(mapX, mapY)
			continue
		}

		dist = math.Max(dist, near)
		h := Hit{MapX: mapX, MapY: mapY, Side: side, Dist: dist, Material: cell, FrontZone: front}
		if side == 0 {
			h.WallX = py + dist*ry
			if stepX > 0 {
				h.Face = world.FaceWest
			} else {
				h.Face = world.FaceEast
			}
		} else {
			h.WallX = px + dist*rx
			if stepY > 0 {
				h.Face = world.FaceNorth
			} else {
				h.Face = world.FaceSouth
			}
		}
		h.WallX -= math.Floor(h.WallX)
		if (side == 0 && rx > 0) || (side == 1 && ry < 0) {
			h.WallX = 1 - h.WallX
		}

		if !visit(h) {
			break
		}
	}
	return steps
}

// CastRay returns the first wall hit along a ray, for gameplay queries such as
// line of sight. Zones are not consulted, so FrontZone is always NoZone.
func CastRay(level *world.Level, px, py, rx, ry, sight float64) (Hit, bool) {
	var first Hit
	found := false
	castRay(level, &ZoneGrid{}, px, py, rx, ry, sight, 0, func(h Hit) bool {
		first, found = h, true
		return false
	})
	return first, found
}

// drawParams carries the per-frame state the draw phase needs.
type drawParams struct {
	traceParams
	fb       *Framebuffer
	depth    *DepthBuffer
	textures *texture.Store
	grads    *GradientCache
	time     float64
	stats    *FrameStats
}

// drawColumn turns a traced column into wall segments, records the
// silhouette, and records the uncovered gaps between periscope walls.
func (wc *WallCaster) drawColumn(p *drawParams, col int) {
	tr := &wc.traces[col]
	wc.gaps[col] = wc.gaps[col][:0]
	horizonRow := int(p.horizon)
	wc.wallTop[col], wc.wallBottom[col] = horizonRow, horizonRow
	if len(tr.hits) == 0 {
		return
	}
	p.stats.ColumnsHit++

	silhouette := p.height
	for i := range tr.hits {
		h := &tr.hits[i]
		top := max(tr.tops[i], 0)
		bottom := min(tr.bottoms[i], p.height)
		if i == 0 {
			bottom = max(bottom, top)
			top = min(top, p.height)
			wc.wallTop[col], wc.wallBottom[col] = top, bottom
		} else {
			p.stats.PeriscopeHits++
			if bottom < silhouette {
				wc.gaps[col] = append(wc.gaps[col], gapRange{top: max(bottom, top, 0), bottom: silhouette})
			}
			bottom = min(bottom, silhouette)
		}
		if top < bottom {
			wc.drawHit(p, col, h, top, bottom)
		}
		silhouette = min(silhouette, top)
	}
	wc.wallTop[col] = min(silhouette, wc.wallTop[col])
}

// drawHit splits the visible rows of a hit into per-tier segments and draws them.
// Tier k covers world heights [k, k+1) and samples texel row texH*(k+1-z).
// Depth is written only under segments whose texture resolved.
func (wc *WallCaster) drawHit(p *drawParams, col int, h *Hit, top, bottom int) {
	mat, ok := p.level.Materials.Get(h.Material)
	if !ok {
		mat = &world.Material{ID: h.Material}
	}
	shade := wc.Shader.Factor(h.Dist, h.Side == 1, mat.Animated, p.time, float64(h.MapX*7+h.MapY*13))
	shadeIdx := wc.Shader.Index(shade)

	scale := float64(p.height) / h.Dist
	zAt := func(y int) float64 { return p.eyeZ - (float64(y)+0.5-p.horizon)/scale }

	topTier := int(math.Ceil(mat.HeightMultiplier())) - 1
	wc.segments = wc.segments[:0]
	y := top
	for y < bottom {
		tier := min(int(math.Floor(zAt(y))), topTier)
		// last row still inside this tier
		end := rowOf(p.horizon + (p.eyeZ-float64(tier))*scale)
		end = min(max(end, y+1), bottom)
		wc.segments = append(wc.segments, WallSegment{
			Top:      y,
			Bottom:   end,
			Material: h.Material,
			Texture:  mat.FaceTexture(h.Face, tier),
			Tier:     tier,
			V0:       float64(tier+1) - zAt(y),
			VStep:    1 / scale,
			Shade:    shade,
			ShadeIdx: shadeIdx,
			Dist:     h.Dist,
		})
		y = end
	}

	fogColor := p.grads.Get(h.FrontZone).Palette.Fog
	fogged := false
	for i := range wc.segments {
		seg := &wc.segments[i]
		ladder, ok := p.textures.Ladder(seg.Texture)
		if !ok {
			p.stats.SkippedDraws++
			continue
		}
		img := ladder.Level(seg.ShadeIdx)
		drawWallSlice(p.fb, col, seg, img, h.WallX)
		if wc.Fog.BlendSpan(p.fb, col, seg.Top, seg.Bottom, fogColor, h.Dist) {
			fogged = true
		}
		p.depth.SetColumn(col, seg.Top, seg.Bottom, h.Dist)
		p.stats.Segments++
	}
	if fogged {
		p.stats.FoggedSpans++
	}
}

// drawWallSlice copies one texel column of img into the framebuffer.
// V0 and VStep are in texture heights and are scaled to texels here.
func drawWallSlice(fb *Framebuffer, col int, seg *WallSegment, img *image.RGBA, u float64) {
	b := img.Bounds()
	texW, texH := b.Dx(), b.Dy()
	texX := int(u * float64(texW))
	if texX >= texW {
		texX = texW - 1
	}
	seg.TexX = texX

	v := seg.V0 * float64(texH)
	dv := seg.VStep * float64(texH)
	stride := fb.Width * 4
	i := (seg.Top*fb.Width + col) * 4
	for y := seg.Top; y < seg.Bottom; y++ {
		ty := int(v) % texH
		if ty < 0 {
			ty += texH
		}
		s := img.PixOffset(b.Min.X+texX, b.Min.Y+ty)
		copy(fb.Image.Pix[i:i+4], img.Pix[s:s+4])
		v += dv
		i += stride
	}
}

// WallTop returns the top of the wall silhouette in column x
func (wc *WallCaster) WallTop(x int) int { return wc.wallTop[x] }

// WallBottom returns the bottom of the nearest wall in column x
func (wc *WallCaster) WallBottom(x int) int { return wc.wallBottom[x] }
