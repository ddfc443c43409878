package render

import (
	"math"

	"zonecaster/internal/mathutil"
	"zonecaster/internal/world"
)

// forwardEpsilon is the minimum camera-space depth a sprite needs to be projected.
const forwardEpsilon = 1e-3

// SpriteProjection is the screen footprint of one sprite. It carries no pixels.
type SpriteProjection struct {
	CenterX        float64 // screen column of the sprite center
	Left, Right    int     // columns [Left, Right)
	Top, Bottom    int     // rows [Top, Bottom)
	Height         int     // hysteresis-stabilized screen height
	Width          int
	Depth          float64 // camera-space forward distance
	OccludedBottom int     // rows hidden below a liquid surface
}

// SpriteProjector maps world sprites to screen rectangles with the same
// eye-height and floor model the walls use.
type SpriteProjector struct {
	Width, Height int
	Hysteresis    float64 // px a new target height must move before the cached height follows
}

// TargetHeight is the unstabilized screen height of a sprite at forward depth ty.
func (sp SpriteProjector) TargetHeight(ty, scale float64) float64 {
	return float64(sp.Height) / ty * scale
}

// StableHeight applies hysteresis to the sprite's cached height and returns it.
// The cached value only moves when the target differs by more than the threshold.
func (sp SpriteProjector) StableHeight(s *world.Sprite, target float64) int {
	if s.ScreenHeight <= 0 || math.Abs(target-float64(s.ScreenHeight)) > sp.Hysteresis {
		s.ScreenHeight = int(math.Round(target))
	}
	return s.ScreenHeight
}

// Project returns the screen footprint of s, or false when it is behind the camera.
// floorZ and liquid describe the zone under the sprite; aspect is texture width/height.
func (sp SpriteProjector) Project(s *world.Sprite, cb CameraBasis, eyeZ, floorZ float64, liquid bool, aspect float64) (SpriteProjection, bool) {
	tx, ty := cb.ToCamera(s.X, s.Y)
	if ty <= forwardEpsilon {
		return SpriteProjection{}, false
	}

	scale := s.Scale
	if scale <= 0 {
		scale = 1
	}
	h := sp.StableHeight(s, sp.TargetHeight(ty, scale))
	if h <= 0 {
		return SpriteProjection{}, false
	}
	if aspect <= 0 {
		aspect = 1
	}
	w := max(int(math.Round(float64(h)*aspect)), 1)

	horizon := float64(sp.Height) / 2
	cx := cb.ScreenX(tx, ty, sp.Width)

	var bottom float64
	if s.Ground {
		// same projection as a wall base standing on floorZ
		bottom = horizon + (eyeZ-floorZ)*float64(sp.Height)/ty + s.FloorBias*float64(h)
	} else {
		bottom = horizon + float64(h)/2
	}

	p := SpriteProjection{
		CenterX: cx,
		Left:    int(math.Round(cx - float64(w)/2)),
		Height:  h,
		Width:   w,
		Depth:   ty,
		Bottom:  int(math.Round(bottom)),
	}
	p.Right = p.Left + w
	p.Top = p.Bottom - h

	if liquid && floorZ < 0 && s.Ground {
		sub := mathutil.Clamp01(-floorZ / scale)
		p.OccludedBottom = int(math.Round(sub * float64(h)))
	}
	return p, true
}
