package render

import (
	"image/color"

	"zonecaster/internal/mathutil"
)

// FogCompositor blends zone-colored distance fog over walls, bands and sprites.
// Fog begins at Start and reaches MaxAlpha at the sight distance.
type FogCompositor struct {
	Sight    float64
	Start    float64
	MaxAlpha float64
	Levels   int
}

// NewFogCompositor derives the fog start from a fraction of the sight distance.
func NewFogCompositor(sight, startFrac, maxAlpha float64, levels int) FogCompositor {
	return FogCompositor{
		Sight:    sight,
		Start:    sight * startFrac,
		MaxAlpha: maxAlpha,
		Levels:   levels,
	}
}

// Factor returns clamp((d-start)/(sight-start)), before the max alpha scale.
func (f FogCompositor) Factor(d float64) float64 {
	span := f.Sight - f.Start
	if span <= 0 {
		if d >= f.Sight {
			return 1
		}
		return 0
	}
	return mathutil.Clamp01((d - f.Start) / span)
}

// Alpha returns the blend weight of the fog color at distance d.
func (f FogCompositor) Alpha(d float64) float64 {
	return f.Factor(d) * f.MaxAlpha
}

// Index quantizes the fog factor for cache keys
func (f FogCompositor) Index(d float64) int {
	return mathutil.Quantize(f.Factor(d), f.Levels)
}

// IndexAlpha returns the alpha a fog index stands for
func (f FogCompositor) IndexAlpha(idx int) float64 {
	if f.Levels < 2 {
		return 0
	}
	return float64(idx) / float64(f.Levels-1) * f.MaxAlpha
}

// Apply blends fog into a single color
func (f FogCompositor) Apply(c, fog color.RGBA, d float64) color.RGBA {
	a := f.Alpha(d)
	if a <= 0 {
		return c
	}
	return mix(c, fog, a)
}

// BlendSpan fogs rows [y0, y1) of column x for a surface at distance d.
// Surfaces nearer than the fog start are left untouched.
func (f FogCompositor) BlendSpan(fb *Framebuffer, x, y0, y1 int, fog color.RGBA, d float64) bool {
	if d <= f.Start || y1 <= y0 {
		return false
	}
	fb.BlendColumn(x, y0, y1, fog, f.Alpha(d))
	return true
}

func mix(a, b color.RGBA, t float64) color.RGBA {
	return color.RGBA{
		R: uint8(mathutil.Lerp(float64(a.R), float64(b.R), t) + 0.5),
		G: uint8(mathutil.Lerp(float64(a.G), float64(b.G), t) + 0.5),
		B: uint8(mathutil.Lerp(float64(a.B), float64(b.B), t) + 0.5),
		A: a.A,
	}
}
