package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zonecaster/internal/world"
)

func TestTargetHeight(t *testing.T) {
	sp := SpriteProjector{Width: 800, Height: 600}
	assert.InDelta(t, 150.0, sp.TargetHeight(4, 1), 1e-12)
	assert.InDelta(t, 300.0, sp.TargetHeight(4, 2), 1e-12)
}

func TestStableHeightHysteresis(t *testing.T) {
	sp := SpriteProjector{Width: 800, Height: 600, Hysteresis: 1.5}
	s := &world.Sprite{}

	tests := []struct {
		name   string
		target float64
		want   int
	}{
		{"first frame adopts target", 150.4, 150},
		{"same target is idempotent", 150.4, 150},
		{"small drift is ignored", 151.2, 150},
		{"small drift down is ignored", 148.7, 150},
		{"large change follows", 152, 152},
		{"and sticks", 152.3, 152},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sp.StableHeight(s, tt.target))
		})
	}
}

func TestProjectGroundAndFloating(t *testing.T) {
	sp := SpriteProjector{Width: 800, Height: 600}
	cb := NewCameraBasis(0, 0, 0, 1.2)

	ground := &world.Sprite{X: 4, Y: 0, Scale: 1, Ground: true}
	p, ok := sp.Project(ground, cb, 0.5, 0, false, 1)
	require.True(t, ok)
	assert.Equal(t, 150, p.Height)
	assert.Equal(t, 375, p.Bottom)
	assert.Equal(t, 225, p.Top)
	assert.Equal(t, 325, p.Left)
	assert.Equal(t, 475, p.Right)
	assert.InDelta(t, 4.0, p.Depth, 1e-12)
	assert.Zero(t, p.OccludedBottom)

	floating := &world.Sprite{X: 4, Y: 0, Scale: 1}
	p, ok = sp.Project(floating, cb, 0.5, 0, false, 1)
	require.True(t, ok)
	assert.Equal(t, 375, p.Bottom)
	assert.Equal(t, 225, p.Top)

	behind := &world.Sprite{X: -1, Y: 0, Scale: 1}
	_, ok = sp.Project(behind, cb, 0.5, 0, false, 1)
	assert.False(t, ok)
}

func TestProjectLiquidSubmersion(t *testing.T) {
	sp := SpriteProjector{Width: 800, Height: 600}
	cb := NewCameraBasis(0, 0, 0, 1.2)

	s := &world.Sprite{X: 4, Y: 0, Scale: 1, Ground: true}
	p, ok := sp.Project(s, cb, 0.5, -0.5, true, 1)
	require.True(t, ok)
	assert.Equal(t, 75, p.OccludedBottom)
	// the base sits on the sunken floor
	assert.Equal(t, 450, p.Bottom)

	dry := &world.Sprite{X: 4, Y: 0, Scale: 1, Ground: true}
	p, ok = sp.Project(dry, cb, 0.5, -0.5, false, 1)
	require.True(t, ok)
	assert.Zero(t, p.OccludedBottom)

	hover := &world.Sprite{X: 4, Y: 0, Scale: 1}
	p, ok = sp.Project(hover, cb, 0.5, -0.5, true, 1)
	require.True(t, ok)
	assert.Zero(t, p.OccludedBottom, "floating sprites are not submerged")
}

func TestSpritesDrawBackToFront(t *testing.T) {
	cfg := testConfig()
	r := newTestRenderer(cfg)
	l := testLevel(t, boxRows(16, 16))
	// the far sprite is listed first and the near one must still end on top
	l.Sprites = []*world.Sprite{
		{X: 7.5, Y: 8.5, Scale: 1, Texture: "blue", Alive: true},
		{X: 4.5, Y: 8.5, Scale: 1, Texture: "red", Alive: true},
	}

	stats := r.Render(l, eastView())
	assert.Equal(t, 2, stats.SpritesDrawn)
	assert.Positive(t, stats.SpriteRuns)

	c := r.Framebuffer().GetPixel(testW/2, testH/2)
	assert.Greater(t, c.R, uint8(150))
	assert.Less(t, c.B, uint8(60))
}

func TestSpriteBehindWallIsCulled(t *testing.T) {
	cfg := testConfig()
	r := newTestRenderer(cfg)
	rows := boxRows(16, 16)
	rows[8][4] = 1
	l := testLevel(t, rows)
	l.Sprites = []*world.Sprite{{X: 5.5, Y: 8.5, Scale: 1, Texture: "red", Alive: true}}

	stats := r.Render(l, eastView())
	assert.Zero(t, stats.SpritesDrawn)
	assert.Equal(t, 1, stats.SpritesCulled)
}

func TestSpriteCullAndSkip(t *testing.T) {
	cfg := testConfig()
	r := newTestRenderer(cfg)
	l := testLevel(t, boxRows(40, 16))
	beyondSight := &world.Sprite{X: 30.5, Y: 8.5, Scale: 1, Texture: "red", Alive: true}
	behind := &world.Sprite{X: 1.5, Y: 8.5, Scale: 1, Texture: "red", Alive: true}
	dead := &world.Sprite{X: 4.5, Y: 8.5, Scale: 1, Texture: "red"}
	unknown := &world.Sprite{X: 5.5, Y: 8.5, Scale: 1, Texture: "nope", Alive: true}
	l.Sprites = []*world.Sprite{beyondSight, behind, dead, unknown}

	stats := r.Render(l, eastView())
	assert.Zero(t, stats.SpritesDrawn)
	assert.Equal(t, 3, stats.SpritesCulled)
	assert.Equal(t, 1, stats.SkippedDraws)
}

func TestSpriteClippedByLowWall(t *testing.T) {
	cfg := testConfig()
	r := newTestRenderer(cfg)
	rows := boxRows(16, 16)
	rows[8][4] = 3 // low wall in front of the sprite
	l := testLevel(t, rows)
	l.Sprites = []*world.Sprite{{X: 6.5, Y: 8.5, Scale: 1, Texture: "red", Alive: true}}

	stats := r.Render(l, eastView())
	require.Equal(t, 1, stats.SpritesDrawn)

	// the low wall starts at row 29; the sprite spans rows [19, 30)
	fb := r.Framebuffer()
	above := fb.GetPixel(testW/2, 28)
	on := fb.GetPixel(testW/2, 29)
	assert.Greater(t, above.R, above.B)
	assert.Equal(t, on.R, on.G, "wall pixels stay gray")
	assert.InDelta(t, 2.0, r.DepthAt(testW/2, 29), 1e-9)
}

func TestArenaResetSentinel(t *testing.T) {
	var sc SpriteCompositor
	sc.Resize(8, 4)
	for i := range sc.colTop {
		sc.colTop[i], sc.colBot[i] = 3, 4
	}
	sc.resetArena(2, 6)
	assert.Equal(t, []int{3, 3, noInterval, noInterval, noInterval, noInterval, 3, 3}, sc.colTop)
	assert.Equal(t, []int{4, 4, noInterval, noInterval, noInterval, noInterval, 4, 4}, sc.colBot)
}

func TestColumnIntervalTakesTopmostRun(t *testing.T) {
	sc := SpriteCompositor{DepthEpsilon: 0.01}
	sc.Resize(2, 10)
	depth := NewDepthBuffer(2, 10)
	depth.SetColumn(0, 0, 2, 1) // wall in front at rows 0-1
	depth.SetColumn(0, 5, 7, 1) // and at rows 5-6

	sc.resetArena(0, 2)
	require.True(t, sc.columnInterval(depth, 0, 0, 10, 4))
	assert.Equal(t, 2, sc.colTop[0])
	assert.Equal(t, 5, sc.colBot[0])

	depth.SetColumn(1, 0, 10, 1)
	assert.False(t, sc.columnInterval(depth, 1, 0, 10, 4))
	assert.Equal(t, noInterval, sc.colTop[1])
}

func TestBlitRunLeavesMaskClear(t *testing.T) {
	sc := SpriteCompositor{}
	sc.Resize(16, 16)
	fb := NewFramebuffer(16, 16)
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+3] = 255, 255
	}
	proj := SpriteProjection{Left: 4, Right: 12, Top: 4, Bottom: 12}
	sc.resetArena(0, 16)
	for x := 4; x < 12; x++ {
		sc.colTop[x], sc.colBot[x] = 4, 12
	}
	sc.colBot[8] = 6 // a notch in the envelope

	sc.blitRun(fb, img, &proj, 4, 12)

	assert.Equal(t, color.RGBA{255, 0, 0, 255}, fb.GetPixel(5, 10))
	assert.Equal(t, color.RGBA{}, fb.GetPixel(8, 10), "notch must stay untouched")
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, fb.GetPixel(8, 5))
	assert.Equal(t, color.RGBA{}, fb.GetPixel(2, 2))
	for _, a := range sc.mask.Pix {
		require.Zero(t, a)
	}
}
