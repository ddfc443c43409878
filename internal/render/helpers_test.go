package render

import (
	"image/color"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"zonecaster/internal/config"
	"zonecaster/internal/texture"
	"zonecaster/internal/world"
)

const (
	testW = 64
	testH = 48
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func solidTexture(name string, size int, c color.RGBA) *texture.Texture {
	t := texture.NewTexture(name, size, size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			t.Set(x, y, c)
		}
	}
	return t
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Camera.SightDistance = 15
	cfg.Camera.EyeHeight = 0.5
	cfg.Render.WobbleAmplitude = 0
	return cfg
}

func testStore(cfg *config.Config) *texture.Store {
	s := texture.NewStore(8, cfg.Render.ShadeLevels, 1, quietLogger())
	s.Add(solidTexture("wall", 8, color.RGBA{200, 200, 200, 255}))
	s.AddSprite(solidTexture("red", 8, color.RGBA{255, 0, 0, 255}))
	s.AddSprite(solidTexture("blue", 8, color.RGBA{0, 0, 255, 255}))
	return s
}

// boxRows returns a w x h grid bordered by material 1
func boxRows(w, h int) [][]int {
	rows := make([][]int, h)
	for y := range rows {
		rows[y] = make([]int, w)
		for x := range rows[y] {
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				rows[y][x] = 1
			}
		}
	}
	return rows
}

func testLevel(t *testing.T, rows [][]int) *world.Level {
	t.Helper()
	l, err := world.NewLevelFromRows(rows)
	require.NoError(t, err)
	require.NoError(t, l.Materials.Add(1, world.Material{Name: "stone", Texture: "wall"}))
	require.NoError(t, l.Materials.Add(2, world.Material{Name: "tall", Texture: "wall", Height: 3}))
	require.NoError(t, l.Materials.Add(3, world.Material{Name: "low", Texture: "wall", Height: 0.3}))
	return l
}

func newTestRenderer(cfg *config.Config) *Renderer {
	return New(cfg, testW, testH, testStore(cfg), WithLogger(quietLogger()))
}

// eastView looks along +X from the middle of row 8
func eastView() View {
	return View{X: 2, Y: 8.5, Heading: 0, EyeZ: 0.5}
}

func threeZones() []world.Zone {
	return []world.Zone{
		{Name: "near", X: 0, Y: 0, W: 6, H: 16, FloorFront: world.RGB{200, 40, 40}},
		{Name: "pit", X: 6, Y: 0, W: 5, H: 16, FloorFront: world.RGB{40, 200, 40}, FloorDepth: -0.5},
		{Name: "far", X: 11, Y: 0, W: 5, H: 16, FloorFront: world.RGB{40, 40, 200}},
	}
}
