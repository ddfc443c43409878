// Package render draws a first-person view of a zoned tile level by ray casting
// into a software framebuffer.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	"zonecaster/internal/mathutil"
)

// Framebuffer is the RGBA image every renderer stage draws into.
type Framebuffer struct {
	Width  int
	Height int
	Image  *image.RGBA
}

// NewFramebuffer creates a framebuffer with the given dimensions.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Image:  image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// Pix returns the raw row-major RGBA bytes, ready for upload to a GPU texture.
func (fb *Framebuffer) Pix() []byte { return fb.Image.Pix }

// Clear fills the framebuffer with a solid color.
func (fb *Framebuffer) Clear(c color.RGBA) {
	pix := fb.Image.Pix
	if len(pix) < 4 {
		return
	}
	pix[0], pix[1], pix[2], pix[3] = c.R, c.G, c.B, c.A
	for filled := 4; filled < len(pix); filled *= 2 {
		copy(pix[filled:], pix[:filled])
	}
}

// SetPixel sets a pixel at (x, y). Bounds checking is performed.
func (fb *Framebuffer) SetPixel(x, y int, c color.RGBA) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	i := (y*fb.Width + x) * 4
	p := fb.Image.Pix[i : i+4 : i+4]
	p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
}

// GetPixel returns the color at (x, y), or transparent black out of bounds.
func (fb *Framebuffer) GetPixel(x, y int) color.RGBA {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return color.RGBA{}
	}
	i := (y*fb.Width + x) * 4
	p := fb.Image.Pix[i : i+4 : i+4]
	return color.RGBA{p[0], p[1], p[2], p[3]}
}

// FillColumn paints rows [y0, y1) of column x with one color.
func (fb *Framebuffer) FillColumn(x, y0, y1 int, c color.RGBA) {
	if x < 0 || x >= fb.Width {
		return
	}
	y0, y1 = clampRows(y0, y1, fb.Height)
	stride := fb.Width * 4
	for i := (y0*fb.Width + x) * 4; y0 < y1; y0, i = y0+1, i+stride {
		p := fb.Image.Pix[i : i+4 : i+4]
		p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
	}
}

// CopyColumn writes strip[y] to (x, y) for every y in [y0, y1). The strip is
// indexed by screen row, so one call paints a whole run.
func (fb *Framebuffer) CopyColumn(x, y0, y1 int, strip []color.RGBA) {
	if x < 0 || x >= fb.Width {
		return
	}
	y0, y1 = clampRows(y0, y1, fb.Height)
	if y1 > len(strip) {
		y1 = len(strip)
	}
	stride := fb.Width * 4
	for i := (y0*fb.Width + x) * 4; y0 < y1; y0, i = y0+1, i+stride {
		c := strip[y0]
		p := fb.Image.Pix[i : i+4 : i+4]
		p[0], p[1], p[2], p[3] = c.R, c.G, c.B, c.A
	}
}

// FillRow paints a full row with one color.
func (fb *Framebuffer) FillRow(y int, c color.RGBA) {
	if y < 0 || y >= fb.Height || fb.Width == 0 {
		return
	}
	row := fb.Image.Pix[y*fb.Width*4 : (y+1)*fb.Width*4]
	row[0], row[1], row[2], row[3] = c.R, c.G, c.B, c.A
	for filled := 4; filled < len(row); filled *= 2 {
		copy(row[filled:], row[:filled])
	}
}

// BlendColumn mixes c into rows [y0, y1) of column x with the given alpha.
func (fb *Framebuffer) BlendColumn(x, y0, y1 int, c color.RGBA, alpha float64) {
	if alpha <= 0 || x < 0 || x >= fb.Width {
		return
	}
	if alpha >= 1 {
		fb.FillColumn(x, y0, y1, c)
		return
	}
	y0, y1 = clampRows(y0, y1, fb.Height)
	a := uint32(alpha*256 + 0.5)
	inv := 256 - a
	cr, cg, cb := uint32(c.R)*a, uint32(c.G)*a, uint32(c.B)*a
	stride := fb.Width * 4
	for i := (y0*fb.Width + x) * 4; y0 < y1; y0, i = y0+1, i+stride {
		p := fb.Image.Pix[i : i+4 : i+4]
		p[0] = uint8((uint32(p[0])*inv + cr) >> 8)
		p[1] = uint8((uint32(p[1])*inv + cg) >> 8)
		p[2] = uint8((uint32(p[2])*inv + cb) >> 8)
	}
}

// ToImage returns a copy of the current frame.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(fb.Image.Rect)
	copy(img.Pix, fb.Image.Pix)
	return img
}

// SavePNG saves the framebuffer as a PNG file.
func (fb *Framebuffer) SavePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create screenshot: %w", err)
	}
	if err := png.Encode(f, fb.Image); err != nil {
		f.Close()
		return fmt.Errorf("encode screenshot: %w", err)
	}
	return f.Close()
}

func clampRows(y0, y1, h int) (int, int) {
	y0 = max(y0, 0)
	return y0, mathutil.IntClamp(y1, y0, h)
}
