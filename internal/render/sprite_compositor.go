package render

import (
	"image"
	"math"
	"sort"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/vector"

	"zonecaster/internal/texture"
	"zonecaster/internal/world"
)

// noInterval marks a column with no visible sprite rows in the scratch arena.
const noInterval = -1

// pretestOffsets are sample points in sprite-relative coordinates, center first.
var pretestOffsets = [...][2]float64{
	{0.5, 0.5},
	{0.25, 0.25}, {0.75, 0.25}, {0.25, 0.75}, {0.75, 0.75},
	{0.5, 0.15}, {0.5, 0.85}, {0.15, 0.5}, {0.85, 0.5},
}

// SpriteCompositor draws sprites back to front, clipped column by column
// against the depth buffer.
//
// The scratch arena (colTop, colBot, mask) is sized to the viewport at
// construction and on Resize. colTop and colBot are not cleared between uses:
// whoever fills a column range must first reset it with resetArena. The mask
// is kept fully transparent between runs.
type SpriteCompositor struct {
	Projector     SpriteProjector
	Shader        Shader
	Fog           FogCompositor
	DepthEpsilon  float64
	PretestPoints int
	Tints         *TintCache

	colTop []int
	colBot []int
	mask   *image.Alpha
	raster *vector.Rasterizer
	order  []depthSorted
}

type depthSorted struct {
	sprite *world.Sprite
	dist2  float64
}

// spriteParams is the per-frame input for compositing.
type spriteParams struct {
	fb       *Framebuffer
	depth    *DepthBuffer
	level    *world.Level
	zones    *ZoneGrid
	grads    *GradientCache
	textures *texture.Store
	basis    CameraBasis
	eyeZ     float64
	sight    float64
	stats    *FrameStats
}

// Resize reallocates the scratch arena for a new viewport
func (sc *SpriteCompositor) Resize(width, height int) {
	sc.Projector.Width, sc.Projector.Height = width, height
	sc.colTop = make([]int, width)
	sc.colBot = make([]int, width)
	sc.mask = image.NewAlpha(image.Rect(0, 0, width, height))
	sc.raster = vector.NewRasterizer(width, height)
}

// resetArena fills columns [x0, x1) of the interval arrays with the sentinel.
func (sc *SpriteCompositor) resetArena(x0, x1 int) {
	for x := x0; x < x1; x++ {
		sc.colTop[x] = noInterval
		sc.colBot[x] = noInterval
	}
}

// Composite draws every live sprite of the level, farthest first.
func (sc *SpriteCompositor) Composite(p *spriteParams) {
	sc.order = sc.order[:0]
	for _, s := range p.level.Sprites {
		if s == nil || !s.Alive {
			continue
		}
		dx, dy := s.X-p.basis.PosX, s.Y-p.basis.PosY
		sc.order = append(sc.order, depthSorted{sprite: s, dist2: dx*dx + dy*dy})
	}
	sort.SliceStable(sc.order, func(i, j int) bool {
		return sc.order[i].dist2 > sc.order[j].dist2
	})

	sight2 := p.sight * p.sight
	for _, e := range sc.order {
		if e.dist2 > sight2 {
			p.stats.SpritesCulled++
			continue
		}
		if sc.drawSprite(p, e.sprite) {
			p.stats.SpritesDrawn++
		} else {
			p.stats.SpritesCulled++
		}
	}
}

// drawSprite projects, tests and blits one sprite. It reports whether any part was drawn.
func (sc *SpriteCompositor) drawSprite(p *spriteParams, s *world.Sprite) bool {
	tex, ok := p.textures.Get(s.Texture)
	if !ok {
		p.stats.SkippedDraws++
		return false
	}

	zoneID := p.zones.AtPoint(s.X, s.Y)
	zone := p.level.Zone(zoneID)
	aspect := float64(tex.Width) / float64(tex.Height)
	proj, ok := sc.Projector.Project(s, p.basis, p.eyeZ, zone.FloorDepth, zone.Liquid, aspect)
	if !ok {
		return false
	}

	width, height := p.fb.Width, p.fb.Height
	visBottom := proj.Bottom - proj.OccludedBottom
	if proj.Right <= 0 || proj.Left >= width || visBottom <= 0 || proj.Top >= height || visBottom <= proj.Top {
		return false
	}
	if !sc.pretest(p.depth, &proj, visBottom) {
		return false
	}

	x0, x1 := max(proj.Left, 0), min(proj.Right, width)
	y0, y1 := max(proj.Top, 0), min(visBottom, height)
	sc.resetArena(x0, x1)
	visible := false
	for x := x0; x < x1; x++ {
		if sc.columnInterval(p.depth, x, y0, y1, proj.Depth) {
			visible = true
		}
	}
	if !visible {
		return false
	}

	shadeIdx := sc.Shader.Index(sc.Shader.Factor(proj.Depth, false, false, 0, 0))
	fogIdx := sc.Fog.Index(proj.Depth)
	key := TintKey{Texture: tex.Name, ShadeIdx: shadeIdx, FogIdx: fogIdx, Fog: p.grads.Get(zoneID).Palette.Fog}
	img := sc.Tints.GetOrCreate(key, tex, sc.Shader.IndexFactor(shadeIdx), sc.Fog.IndexAlpha(fogIdx))

	for x := x0; x < x1; {
		if sc.colTop[x] == noInterval {
			x++
			continue
		}
		start := x
		for x < x1 && sc.colTop[x] != noInterval {
			x++
		}
		sc.blitRun(p.fb, img, &proj, start, x)
		p.stats.SpriteRuns++
	}
	return true
}

// pretest samples a few points of the sprite rectangle against the depth
// buffer and rejects the sprite only when every on-screen sample is hidden.
func (sc *SpriteCompositor) pretest(depth *DepthBuffer, proj *SpriteProjection, visBottom int) bool {
	n := min(max(sc.PretestPoints, 0), len(pretestOffsets))
	w := float64(proj.Right - proj.Left)
	h := float64(visBottom - proj.Top)
	tested := 0
	for _, o := range pretestOffsets[:n] {
		x := proj.Left + int(o[0]*w)
		y := proj.Top + int(o[1]*h)
		if x < 0 || y < 0 || x >= depth.Width() || y >= depth.Height() {
			continue
		}
		tested++
		if !depth.Occluded(x, y, proj.Depth, sc.DepthEpsilon) {
			return true
		}
	}
	return tested == 0
}

// columnInterval records the topmost contiguous run of rows in [y0, y1) where
// the sprite is in front of the walls. It reports whether one was found.
func (sc *SpriteCompositor) columnInterval(depth *DepthBuffer, x, y0, y1 int, d float64) bool {
	y := y0
	for y < y1 && depth.Occluded(x, y, d, sc.DepthEpsilon) {
		y++
	}
	if y >= y1 {
		return false
	}
	start := y
	for y < y1 && !depth.Occluded(x, y, d, sc.DepthEpsilon) {
		y++
	}
	sc.colTop[x], sc.colBot[x] = start, y
	return true
}

// blitRun rasterizes the per-column envelope of columns [xa, xb) into the mask
// and draws the matching texture window through it.
func (sc *SpriteCompositor) blitRun(fb *Framebuffer, img *image.RGBA, proj *SpriteProjection, xa, xb int) {
	top, bottom := math.MaxInt, math.MinInt
	for x := xa; x < xb; x++ {
		top = min(top, sc.colTop[x])
		bottom = max(bottom, sc.colBot[x])
	}
	r := image.Rect(xa, top, xb, bottom)

	// staircase polygon: along the tops left to right, back along the bottoms
	ox, oy := float32(r.Min.X), float32(r.Min.Y)
	sc.raster.Reset(r.Dx(), r.Dy())
	sc.raster.MoveTo(float32(xa)-ox, float32(sc.colTop[xa])-oy)
	for x := xa; x < xb; x++ {
		t := float32(sc.colTop[x]) - oy
		sc.raster.LineTo(float32(x)-ox, t)
		sc.raster.LineTo(float32(x+1)-ox, t)
	}
	for x := xb - 1; x >= xa; x-- {
		b := float32(sc.colBot[x]) - oy
		sc.raster.LineTo(float32(x+1)-ox, b)
		sc.raster.LineTo(float32(x)-ox, b)
	}
	sc.raster.ClosePath()
	sc.raster.Draw(sc.mask, r, image.Opaque, image.Point{})

	// texture X window by linear interpolation across the sprite width
	b := img.Bounds()
	texW, texH := float64(b.Dx()), float64(b.Dy())
	w := float64(proj.Right - proj.Left)
	u0 := float64(xa-proj.Left) / w * texW
	u1 := float64(xb-proj.Left) / w * texW
	sr := image.Rect(
		b.Min.X+max(int(math.Floor(u0)), 0), b.Min.Y,
		b.Min.X+min(int(math.Ceil(u1)), b.Dx()), b.Max.Y,
	)

	sx := w / texW
	sy := float64(proj.Bottom-proj.Top) / texH
	s2d := f64.Aff3{
		sx, 0, float64(proj.Left) - float64(b.Min.X)*sx,
		0, sy, float64(proj.Top) - float64(b.Min.Y)*sy,
	}
	draw.NearestNeighbor.Transform(fb.Image, s2d, img, sr, draw.Over, &draw.Options{
		DstMask:  sc.mask,
		DstMaskP: image.Point{},
	})

	clearAlpha(sc.mask, r)
}

func clearAlpha(m *image.Alpha, r image.Rectangle) {
	r = r.Intersect(m.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := m.Pix[m.PixOffset(r.Min.X, y):m.PixOffset(r.Max.X, y)]
		clear(row)
	}
}
