package texture

import (
	"image"
	"image/color"

	"zonecaster/internal/mathutil"
)

// Ladder holds one texture pre-multiplied by a fixed set of evenly spaced
// shade factors, index 0 being black and the last index the untouched texture.
type Ladder struct {
	Name   string
	Levels []*image.RGBA
}

// NewLadder builds a shade ladder with the given number of levels.
func NewLadder(tex *Texture, levels int) *Ladder {
	if levels < 2 {
		levels = 2
	}
	l := &Ladder{Name: tex.Name, Levels: make([]*image.RGBA, levels)}
	for i := range l.Levels {
		shade := float64(i) / float64(levels-1)
		l.Levels[i] = Tint(tex.Image, shade, color.RGBA{}, 0)
	}
	return l
}

// Level returns the tinted image for a ladder index, clamping out-of-range indices.
func (l *Ladder) Level(idx int) *image.RGBA {
	return l.Levels[mathutil.IntClamp(idx, 0, len(l.Levels)-1)]
}

// Len returns the number of shade levels
func (l *Ladder) Len() int { return len(l.Levels) }

// Tint returns a copy of src darkened by shade and then blended toward fog by
// fogAlpha. Alpha is preserved so sprite silhouettes survive tinting.
func Tint(src *image.RGBA, shade float64, fog color.RGBA, fogAlpha float64) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	keep := shade * (1 - fogAlpha)
	fr := float64(fog.R) * fogAlpha
	fg := float64(fog.G) * fogAlpha
	fb := float64(fog.B) * fogAlpha

	for i := 0; i+3 < len(src.Pix); i += 4 {
		a := src.Pix[i+3]
		if a == 0 {
			continue
		}
		// Pix is alpha-premultiplied, so the fog term is scaled by coverage too
		cov := float64(a) / 255
		dst.Pix[i+0] = clamp8(float64(src.Pix[i+0])*keep + fr*cov)
		dst.Pix[i+1] = clamp8(float64(src.Pix[i+1])*keep + fg*cov)
		dst.Pix[i+2] = clamp8(float64(src.Pix[i+2])*keep + fb*cov)
		dst.Pix[i+3] = a
	}
	return dst
}

func clamp8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
