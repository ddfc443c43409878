package render

import "math"

// DepthBuffer holds the perpendicular wall distance of every pixel. Pixels no
// wall covered in the current frame stay at +Inf.
type DepthBuffer struct {
	width  int
	height int
	d      []float64
}

// NewDepthBuffer allocates a buffer cleared to +Inf
func NewDepthBuffer(width, height int) *DepthBuffer {
	b := &DepthBuffer{width: width, height: height, d: make([]float64, width*height)}
	b.Reset()
	return b
}

// Reset clears every pixel to +Inf
func (b *DepthBuffer) Reset() {
	inf := math.Inf(1)
	if len(b.d) == 0 {
		return
	}
	b.d[0] = inf
	for filled := 1; filled < len(b.d); filled *= 2 {
		copy(b.d[filled:], b.d[:filled])
	}
}

// Width returns the buffer width
func (b *DepthBuffer) Width() int { return b.width }

// Height returns the buffer height
func (b *DepthBuffer) Height() int { return b.height }

// At returns the depth at (x, y); out-of-range reads return +Inf.
func (b *DepthBuffer) At(x, y int) float64 {
	if x < 0 || y < 0 || x >= b.width || y >= b.height {
		return math.Inf(1)
	}
	return b.d[y*b.width+x]
}

// SetColumn writes depth d into rows [y0, y1) of column x.
func (b *DepthBuffer) SetColumn(x, y0, y1 int, d float64) {
	if x < 0 || x >= b.width {
		return
	}
	y0, y1 = clampRows(y0, y1, b.height)
	for i := y0*b.width + x; y0 < y1; y0, i = y0+1, i+b.width {
		if d < b.d[i] {
			b.d[i] = d
		}
	}
}

// Occluded reports whether something at distance d is behind the wall at (x, y),
// allowing eps of slack so coplanar surfaces do not flicker.
func (b *DepthBuffer) Occluded(x, y int, d, eps float64) bool {
	return b.At(x, y) < d-eps
}
