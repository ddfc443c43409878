// Package texture loads, generates and pre-shades the images sampled by the renderer.
package texture

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"os"

	"golang.org/x/image/draw"
)

// Texture is a square-or-rectangular RGBA image with direct pixel access.
type Texture struct {
	Name   string
	Width  int
	Height int
	Image  *image.RGBA
}

// NewTexture creates an empty texture
func NewTexture(name string, width, height int) *Texture {
	return &Texture{
		Name:   name,
		Width:  width,
		Height: height,
		Image:  image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// FromImage copies any image into a texture. When size > 0 the image is
// resampled to size x size so every wall texture shares one texel grid.
func FromImage(name string, src image.Image, size int) *Texture {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if size > 0 {
		w, h = size, size
	}
	tex := NewTexture(name, w, h)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(tex.Image, tex.Image.Bounds(), src, b.Min, draw.Src)
	} else {
		draw.NearestNeighbor.Scale(tex.Image, tex.Image.Bounds(), src, b, draw.Src, nil)
	}
	return tex
}

// LoadTexture decodes an image file into a texture
func LoadTexture(name, path string, size int) (*Texture, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open texture: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return FromImage(name, img, size), nil
}

// At returns the texel at (x, y) wrapping both coordinates.
func (t *Texture) At(x, y int) color.RGBA {
	x %= t.Width
	if x < 0 {
		x += t.Width
	}
	y %= t.Height
	if y < 0 {
		y += t.Height
	}
	i := t.Image.PixOffset(x, y)
	p := t.Image.Pix[i : i+4 : i+4]
	return color.RGBA{p[0], p[1], p[2], p[3]}
}

// Set writes one texel; out-of-range writes are ignored.
func (t *Texture) Set(x, y int, c color.RGBA) {
	if x < 0 || y < 0 || x >= t.Width || y >= t.Height {
		return
	}
	t.Image.SetRGBA(x, y, c)
}

// Opaque reports whether every texel has full alpha
func (t *Texture) Opaque() bool {
	return t.Image.Opaque()
}
