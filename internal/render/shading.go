package render

import (
	"math"

	"zonecaster/internal/mathutil"
)

// Shader computes distance shading and maps it onto the pre-tinted ladder.
type Shader struct {
	K           float64 // falloff: shade = 1/(1+d*K)
	SideShade   float64 // multiplier for hits on horizontal grid lines
	WobbleAmp   float64
	WobbleSpeed float64
	Levels      int
}

// Factor returns the light factor in [0,1] for a hit at distance d.
// Animated materials oscillate around the plain value, phase separating cells.
func (s Shader) Factor(d float64, sideY, animated bool, t, phase float64) float64 {
	f := 1 / (1 + math.Max(d, 0)*s.K)
	if sideY {
		f *= s.SideShade
	}
	if animated && s.WobbleAmp > 0 {
		f *= 1 + s.WobbleAmp*math.Sin(t*s.WobbleSpeed+phase)
	}
	return mathutil.Clamp01(f)
}

// Index quantizes a light factor to a ladder index
func (s Shader) Index(f float64) int {
	return mathutil.Quantize(f, s.Levels)
}

// IndexFactor returns the light factor a ladder index stands for
func (s Shader) IndexFactor(idx int) float64 {
	if s.Levels < 2 {
		return 1
	}
	return float64(idx) / float64(s.Levels-1)
}
