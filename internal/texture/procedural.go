package texture

import (
	"image/color"
	"math"

	"github.com/aquilax/go-perlin"
)

// Generator builds a procedural texture of the given size.
type Generator func(name string, size int, seed int64) *Texture

// Procedural maps well-known texture names to generators used when no image
// file exists for them.
var Procedural = map[string]Generator{
	"brick":   Brick,
	"foliage": Foliage,
	"stone":   Stone,
	"water":   Water,
	"moss":    Moss,
	"wood":    Wood,
}

// Brick draws mortar lines every 8 pixels with staggered vertical joints.
func Brick(name string, size int, _ int64) *Texture {
	tex := NewTexture(name, size, size)
	base := color.RGBA{150, 72, 52, 255}
	mortar := color.RGBA{179, 179, 179, 255}

	for y := 0; y < size; y++ {
		row := y / 8
		offset := 0
		if row%2 == 1 {
			offset = 8
		}
		for x := 0; x < size; x++ {
			c := base
			if y%8 == 0 || (x+offset)%16 == 0 {
				c = mortar
			} else if (x*7+y*13)%11 == 0 {
				c = scale(base, 0.85)
			}
			tex.Set(x, y, c)
		}
	}
	return tex
}

// Foliage darkens pseudo-random spots on a green base.
func Foliage(name string, size int, _ int64) *Texture {
	tex := NewTexture(name, size, size)
	base := color.RGBA{60, 130, 50, 255}
	shadow := scale(base, 0.6)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := base
			if y%3 == 0 && x%4 == 0 && (x+y)%5 < 2 {
				c = shadow
			} else if (x+2*y)%7 == 0 {
				c = scale(base, 0.8)
			}
			tex.Set(x, y, c)
		}
	}
	return tex
}

// Stone is grey perlin noise with dark cracks.
func Stone(name string, size int, seed int64) *Texture {
	return noiseTexture(name, size, seed, 4, func(n float64) color.RGBA {
		v := 90 + n*90
		if n < 0.22 {
			v *= 0.55
		}
		return gray(v)
	})
}

// Water is blue perlin noise with light crests.
func Water(name string, size int, seed int64) *Texture {
	return noiseTexture(name, size, seed, 3, func(n float64) color.RGBA {
		c := color.RGBA{
			R: uint8(20 + n*30),
			G: uint8(60 + n*70),
			B: uint8(120 + n*100),
			A: 255,
		}
		if n > 0.8 {
			c = color.RGBA{180, 210, 235, 255}
		}
		return c
	})
}

// Moss is a mottled green stone.
func Moss(name string, size int, seed int64) *Texture {
	return noiseTexture(name, size, seed, 6, func(n float64) color.RGBA {
		return color.RGBA{R: uint8(40 + n*50), G: uint8(80 + n*90), B: uint8(30 + n*40), A: 255}
	})
}

// Wood draws vertical planks with noisy grain.
func Wood(name string, size int, seed int64) *Texture {
	p := perlin.NewPerlin(2, 2, 3, seed)
	tex := NewTexture(name, size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			grain := (p.Noise2D(float64(x)/float64(size)*2, float64(y)/float64(size)*12) + 1) / 2
			c := color.RGBA{R: uint8(110 + grain*60), G: uint8(70 + grain*40), B: uint8(35 + grain*20), A: 255}
			if x%16 == 0 {
				c = scale(c, 0.5)
			}
			tex.Set(x, y, c)
		}
	}
	return tex
}

// Checker is the fallback for unknown names: a magenta and black board.
func Checker(name string, size int, _ int64) *Texture {
	tex := NewTexture(name, size, size)
	cell := size / 8
	if cell < 1 {
		cell = 1
	}
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if (x/cell+y/cell)%2 == 0 {
				tex.Set(x, y, color.RGBA{200, 0, 200, 255})
			} else {
				tex.Set(x, y, color.RGBA{20, 20, 20, 255})
			}
		}
	}
	return tex
}

// noiseTexture samples tileable-looking perlin noise in [0,1] through shade.
func noiseTexture(name string, size int, seed int64, freq float64, shade func(float64) color.RGBA) *Texture {
	alpha := 2.0  // smoothing
	beta := 2.0   // frequency
	n := int32(3) // octaves
	p := perlin.NewPerlin(alpha, beta, n, seed)

	tex := NewTexture(name, size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			v := p.Noise2D(float64(x)/float64(size)*freq, float64(y)/float64(size)*freq)
			tex.Set(x, y, shade(math.Max(0, math.Min(1, (v+1)/2))))
		}
	}
	return tex
}

func scale(c color.RGBA, f float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * f),
		G: uint8(float64(c.G) * f),
		B: uint8(float64(c.B) * f),
		A: c.A,
	}
}

func gray(v float64) color.RGBA {
	u := uint8(math.Max(0, math.Min(255, v)))
	return color.RGBA{u, u, u, 255}
}

// ProceduralSprites are transparent billboard images generated when no sprite
// file exists.
var ProceduralSprites = map[string]Generator{
	"orb":    Orb,
	"barrel": Barrel,
	"tree":   Tree,
}

// Orb is a shaded disc on a transparent background.
func Orb(name string, size int, _ int64) *Texture {
	tex := NewTexture(name, size, size)
	r := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) + 0.5 - r
			dy := float64(y) + 0.5 - r
			d := math.Sqrt(dx*dx+dy*dy) / r
			if d > 1 {
				continue
			}
			tex.Set(x, y, gray(255-d*140))
		}
	}
	return tex
}

// Barrel is a banded wooden cylinder narrower than its height.
func Barrel(name string, size int, _ int64) *Texture {
	tex := NewTexture(name, size, size)
	left, right := size/5, size-size/5
	for y := 0; y < size; y++ {
		band := y%(size/4+1) < 2
		for x := left; x < right; x++ {
			c := color.RGBA{120, 72, 30, 255}
			if band {
				c = color.RGBA{70, 70, 80, 255}
			}
			edge := math.Abs(float64(x-size/2)) / float64(right-left) * 2
			tex.Set(x, y, scale(c, 1-edge*0.5))
		}
	}
	return tex
}

// Tree is a round crown on a thin trunk; its silhouette is irregular on purpose
// so partial occlusion is easy to see.
func Tree(name string, size int, seed int64) *Texture {
	tex := NewTexture(name, size, size)
	p := perlin.NewPerlin(2, 2, 3, seed)
	trunkW := size / 8
	for y := size / 2; y < size; y++ {
		for x := size/2 - trunkW/2; x < size/2+trunkW/2+1; x++ {
			tex.Set(x, y, color.RGBA{90, 60, 30, 255})
		}
	}
	r := float64(size) * 0.4
	cx, cy := float64(size)/2, float64(size)*0.4
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)+0.5-cx, float64(y)+0.5-cy
			n := (p.Noise2D(float64(x)/8, float64(y)/8) + 1) / 2
			if math.Sqrt(dx*dx+dy*dy) > r*(0.75+0.35*n) {
				continue
			}
			tex.Set(x, y, color.RGBA{R: uint8(30 + n*40), G: uint8(100 + n*80), B: uint8(30 + n*30), A: 255})
		}
	}
	return tex
}
