package texture

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLadderEndpoints(t *testing.T) {
	tex := NewTexture("solid", 4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			tex.Set(x, y, color.RGBA{200, 100, 50, 255})
		}
	}

	l := NewLadder(tex, 82)
	require.Equal(t, 82, l.Len())

	assert.Equal(t, color.RGBA{0, 0, 0, 255}, l.Level(0).RGBAAt(1, 1))
	assert.Equal(t, color.RGBA{200, 100, 50, 255}, l.Level(81).RGBAAt(1, 1))
	assert.Equal(t, l.Level(81), l.Level(500), "indices above the ladder clamp")
	assert.Equal(t, l.Level(0), l.Level(-3))

	mid := l.Level(40).RGBAAt(0, 0)
	assert.InDelta(t, 200*40.0/81, float64(mid.R), 1)
}

func TestTintKeepsTransparency(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.SetRGBA(0, 0, color.RGBA{100, 100, 100, 255})
	// (1,0) stays fully transparent

	out := Tint(src, 1, color.RGBA{0, 0, 255, 255}, 0.5)
	assert.Equal(t, color.RGBA{50, 50, 178, 255}, out.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{}, out.RGBAAt(1, 0))
}

func TestAtWraps(t *testing.T) {
	tex := Checker("c", 16, 0)
	assert.Equal(t, tex.At(3, 5), tex.At(3+16, 5-32))
}

func TestStoreFallbacks(t *testing.T) {
	dir := t.TempDir()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	f, err := os.Create(filepath.Join(dir, "white.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	s := NewStore(32, 16, 7, nil)
	s.LoadWalls(dir, []string{"white", "brick", "nonsense"})

	white, ok := s.Get("white")
	require.True(t, ok)
	assert.Equal(t, 32, white.Width, "walls are resampled to the store size")
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, white.At(31, 31))

	_, ok = s.Ladder("brick")
	assert.True(t, ok)

	bogus, ok := s.Get("nonsense")
	require.True(t, ok)
	assert.Equal(t, Checker("nonsense", 32, 7).Image.Pix, bogus.Image.Pix)

	s.LoadSprites(dir, []string{"orb", "ghost"})
	_, ok = s.Get("orb")
	assert.True(t, ok)
	_, ok = s.Get("ghost")
	assert.False(t, ok, "unresolved sprites stay unregistered")
	_, ok = s.Ladder("orb")
	assert.False(t, ok)

	assert.Equal(t, []string{"brick", "nonsense", "orb", "white"}, s.Names())
}

func TestProceduralIsDeterministic(t *testing.T) {
	for name, gen := range Procedural {
		a := gen(name, 32, 42)
		b := gen(name, 32, 42)
		assert.Equal(t, a.Image.Pix, b.Image.Pix, name)
		assert.True(t, a.Opaque(), name)
	}
	assert.False(t, Orb("orb", 32, 0).Opaque())
}
