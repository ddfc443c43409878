package render

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zonecaster/internal/threading/core"
	"zonecaster/internal/world"
)

type countingObserver struct {
	frames   int
	rebuilds map[string]int
}

func (o *countingObserver) ObserveFrame(*FrameStats) { o.frames++ }

func (o *countingObserver) ObserveRebuild(cache string) {
	if o.rebuilds == nil {
		o.rebuilds = make(map[string]int)
	}
	o.rebuilds[cache]++
}

func TestVersionStampsTriggerRebuilds(t *testing.T) {
	cfg := testConfig()
	obs := &countingObserver{}
	r := New(cfg, testW, testH, testStore(cfg), WithLogger(quietLogger()), WithObserver(obs))
	l := testLevel(t, boxRows(16, 16))
	view := eastView()

	stats := r.Render(l, view)
	assert.True(t, stats.ZoneGridRebuilt)
	assert.True(t, stats.LUTRebuilt)
	assert.True(t, stats.GradientRebuilt)

	stats = r.Render(l, view)
	assert.False(t, stats.ZoneGridRebuilt)
	assert.False(t, stats.LUTRebuilt)
	assert.False(t, stats.GradientRebuilt)

	l.SetZones(threeZones())
	stats = r.Render(l, view)
	assert.True(t, stats.ZoneGridRebuilt, "zone edit must rebuild the zone grid")
	assert.True(t, stats.LUTRebuilt)
	assert.True(t, stats.GradientRebuilt)
	assert.Equal(t, 1, r.ZoneGrid().At(7, 8))
	assert.Equal(t, l.Version(), r.ZoneGrid().Version())

	view.EyeZ = 0.6
	stats = r.Render(l, view)
	assert.False(t, stats.ZoneGridRebuilt)
	assert.True(t, stats.LUTRebuilt, "eye height change must rebuild the row table")
	assert.True(t, stats.GradientRebuilt)

	l.SetCell(3, 3, 1)
	stats = r.Render(l, view)
	assert.True(t, stats.ZoneGridRebuilt)

	r.Invalidate()
	stats = r.Render(l, view)
	assert.True(t, stats.ZoneGridRebuilt)
	assert.True(t, stats.LUTRebuilt)
	assert.True(t, stats.GradientRebuilt)

	assert.Equal(t, 6, obs.frames)
	assert.Equal(t, 4, obs.rebuilds["zonegrid"])
	assert.Equal(t, 5, obs.rebuilds["gradients"])
}

func TestNewLevelForcesRebuild(t *testing.T) {
	cfg := testConfig()
	r := newTestRenderer(cfg)
	a := testLevel(t, boxRows(16, 16))
	b := testLevel(t, boxRows(16, 16))
	b.SetZones(threeZones())
	require.Equal(t, uint64(1), a.Version())

	r.Render(a, eastView())
	stats := r.Render(b, eastView())
	assert.True(t, stats.ZoneGridRebuilt, "a different level must not reuse caches")
	assert.Equal(t, 2, r.ZoneGrid().At(12, 3))
}

func TestRebuildIsDeterministic(t *testing.T) {
	cfg := testConfig()
	r := newTestRenderer(cfg)
	l := testLevel(t, boxRows(16, 16))
	l.SetZones(threeZones())
	l.Sprites = []*world.Sprite{{X: 7.5, Y: 7.5, Scale: 0.6, Ground: true, Texture: "red", Alive: true}}

	r.Render(l, eastView())
	zones := r.ZoneGrid().Snapshot()
	strips := make(map[int][]uint8)
	for id := world.NoZone; id < l.ZoneCount(); id++ {
		for _, c := range r.Gradients().Get(id).Strip {
			strips[id] = append(strips[id], c.R, c.G, c.B, c.A)
		}
	}
	frame := r.Framebuffer().ToImage()

	r.Invalidate()
	stats := r.Render(l, eastView())
	require.True(t, stats.GradientRebuilt)
	assert.Equal(t, zones, r.ZoneGrid().Snapshot())
	for id, want := range strips {
		var got []uint8
		for _, c := range r.Gradients().Get(id).Strip {
			got = append(got, c.R, c.G, c.B, c.A)
		}
		assert.Equal(t, want, got, "zone %d", id)
	}
	assert.Equal(t, frame.Pix, r.Framebuffer().Image.Pix)
}

func TestSimplifiedMode(t *testing.T) {
	cfg := testConfig()
	r := newTestRenderer(cfg)
	l := testLevel(t, boxRows(16, 16))
	l.SetZones([]world.Zone{{Name: "all", X: 0, Y: 0, W: 16, H: 16, FloorFront: world.RGB{30, 90, 30}}})

	stats := r.Render(l, eastView())
	assert.True(t, stats.Simplified)
	assert.Zero(t, stats.SurfaceRuns)
	assert.Zero(t, stats.Bands)

	strip := r.Gradients().Get(0).Strip
	assert.Equal(t, strip[testH-1], r.Framebuffer().GetPixel(testW/2, testH-1))
	assert.Equal(t, strip[0], r.Framebuffer().GetPixel(testW/2, 0))

	l.SetZones(threeZones())
	stats = r.Render(l, eastView())
	assert.False(t, stats.Simplified)
	assert.Positive(t, stats.SurfaceRuns)
}

func TestFloorRunsUseZoneGradients(t *testing.T) {
	cfg := testConfig()
	r := newTestRenderer(cfg)
	l := testLevel(t, boxRows(16, 16))
	l.SetZones(threeZones())
	view := eastView()

	stats := r.Render(l, view)
	require.False(t, stats.Simplified)
	assert.Positive(t, stats.Bands, "the pit edges must produce step bands")

	col := testW / 2
	_, bottom := r.ColumnSpan(col)
	zoneAt := func(y int) int {
		y = min(max(y, bottom), testH-1)
		d := r.lut.Floor(y)
		return r.ZoneGrid().AtPoint(view.X+d, view.Y)
	}
	checked := 0
	for y := bottom; y < testH; y++ {
		z := zoneAt(y)
		if zoneAt(y-8) != z || zoneAt(y+8) != z {
			continue
		}
		assert.Equal(t, r.Gradients().Get(z).Strip[y], r.Framebuffer().GetPixel(col, y), "row %d zone %d", y, z)
		checked++
	}
	assert.Positive(t, checked)
}

func TestZoneCeilingUnderOpenSky(t *testing.T) {
	cfg := testConfig()
	r := newTestRenderer(cfg)
	l := testLevel(t, boxRows(16, 16))
	l.SetZones([]world.Zone{
		{Name: "crypt", X: 0, Y: 0, W: 4, H: 16, CeilingHeight: 1.2, CeilingFront: world.RGB{200, 60, 60}},
		{Name: "yard", X: 4, Y: 0, W: 6, H: 16, FogColor: world.RGB{90, 120, 200}},
		{Name: "field", X: 10, Y: 0, W: 6, H: 16, FogColor: world.RGB{200, 180, 90}},
	})
	require.Zero(t, l.CeilingHeight)
	const crypt, yard, field = 0, 1, 2
	col := testW / 2

	// check renders view and compares every ceiling row of the center column
	// with the crypt strip where the roof covers the ray, and with sky(landed)
	// where the ray passes the roof's edge.
	check := func(view View, dirX float64, sky func(landed int) int) (covered, open int) {
		stats := r.Render(l, view)
		require.False(t, stats.Simplified)
		top, _ := r.ColumnSpan(col)
		roof := r.lut.ZoneCeiling(crypt)
		for y := 0; y < top; y++ {
			want := crypt
			if landed := r.ZoneGrid().AtPoint(view.X+dirX*roof[y], view.Y); landed != crypt {
				want = sky(landed)
				open++
			} else {
				covered++
			}
			assert.Equal(t, r.Gradients().Get(want).Strip[y], r.Framebuffer().GetPixel(col, y), "row %d zone %d", y, want)
		}
		return covered, open
	}

	// inside the crypt looking out: past the roof the sky of the zone below shows
	covered, open := check(eastView(), 1, func(landed int) int { return landed })
	assert.Positive(t, covered)
	assert.Positive(t, open)
	assert.NotEqual(t, r.Gradients().Get(crypt).Strip[2], r.Gradients().Get(yard).Strip[2])
	assert.NotEqual(t, r.Gradients().Get(yard).Strip[2], r.Gradients().Get(field).Strip[2])

	// from the field the crypt roof shows over the crypt and the field's sky elsewhere
	back := View{X: 13.5, Y: 8.5, Heading: math.Pi, EyeZ: 0.5}
	covered, open = check(back, -1, func(int) int { return field })
	assert.Positive(t, covered, "the crypt roof must be visible from outside")
	assert.Positive(t, open)
}

func TestCeilingRunsUseZoneGradients(t *testing.T) {
	cfg := testConfig()
	cfg.Render.BandScale = 1e-6 // one-row step bands
	r := newTestRenderer(cfg)
	l := testLevel(t, boxRows(16, 16))
	l.CeilingHeight = 2
	zones := []world.Zone{
		{Name: "hall", X: 0, Y: 0, W: 6, H: 16, CeilingFront: world.RGB{60, 200, 60}},
		{Name: "vault", X: 6, Y: 0, W: 5, H: 16, CeilingFront: world.RGB{200, 60, 60}, CeilingHeight: 2},
		{Name: "far", X: 11, Y: 0, W: 5, H: 16},
	}
	const hall, vault = 0, 1
	col := testW / 2
	view := eastView()

	l.SetZones(zones)
	stats := r.Render(l, view)
	require.False(t, stats.Simplified)
	assert.Zero(t, stats.Bands, "a flat ceiling has no steps")

	zones[vault].CeilingHeight = 1.2
	l.SetZones(zones)
	stats = r.Render(l, view)
	assert.Positive(t, stats.Bands, "the lowered vault must produce step bands")
	_, ceilings := r.lut.Overrides()
	assert.Equal(t, 1, ceilings)

	top, _ := r.ColumnSpan(col)
	const other = -2
	// kind returns the zone a ceiling row must show when the answer follows
	// from one plane alone: the hall under the base plane, the vault under its roof.
	kind := func(y int) int {
		if y >= top {
			return other
		}
		if r.ZoneGrid().AtPoint(view.X+r.lut.Ceiling(y), view.Y) == hall {
			return hall
		}
		if r.ZoneGrid().AtPoint(view.X+r.lut.ZoneCeiling(vault)[y], view.Y) == vault {
			return vault
		}
		return other
	}
	seen := map[int]int{}
	for y := 0; y < top; y++ {
		k := kind(y)
		// band rows sit where the scan changes zone
		if k == other || kind(y+1) != k {
			continue
		}
		assert.Equal(t, r.Gradients().Get(k).Strip[y], r.Framebuffer().GetPixel(col, y), "row %d zone %d", y, k)
		seen[k]++
	}
	assert.Positive(t, seen[hall])
	assert.Positive(t, seen[vault])
	assert.NotEqual(t, r.Gradients().Get(hall).Strip[2], r.Gradients().Get(vault).Strip[2])
}

func TestRowLUT(t *testing.T) {
	l := testLevel(t, boxRows(16, 16))
	l.SetZones(threeZones())
	l.CeilingHeight = 2

	var lut RowLUT
	require.True(t, lut.Stale(testH, 0.5, l.Version()))
	lut.Rebuild(testH, 0.5, l)
	assert.False(t, lut.Stale(testH, 0.5, l.Version()))
	assert.True(t, lut.Stale(testH, 0.7, l.Version()))

	assert.InDelta(t, 0.5*testH/23.5, lut.Floor(testH-1), 1e-12)
	assert.True(t, math.IsInf(lut.Floor(0), 1))
	assert.InDelta(t, 1.5*testH/23.5, lut.Ceiling(0), 1e-12)
	assert.True(t, math.IsInf(lut.Ceiling(testH-1), 1))

	floors, ceilings := lut.Overrides()
	assert.Equal(t, 1, floors)
	assert.Zero(t, ceilings)
	assert.InDelta(t, 1.0*testH/23.5, lut.ZoneFloor(1)[testH-1], 1e-12)
	assert.Equal(t, lut.Floor(testH-1), lut.ZoneFloor(0)[testH-1])

	l.SetCell(2, 2, 1)
	assert.True(t, lut.Stale(testH, 0.5, l.Version()))
}

func TestZoneGridPriority(t *testing.T) {
	l := testLevel(t, boxRows(8, 8))
	l.SetZones([]world.Zone{
		{Name: "A", X: 0, Y: 0, W: 5, H: 5},
		{Name: "B", X: 3, Y: 3, W: 5, H: 5},
	})
	var zg ZoneGrid
	zg.Rebuild(l)

	assert.Equal(t, 0, zg.At(4, 4), "overlap goes to the earlier zone")
	assert.Equal(t, 1, zg.At(6, 6))
	assert.Equal(t, world.NoZone, zg.At(6, 1))
	assert.Equal(t, world.NoZone, zg.At(-1, 0))
	assert.Equal(t, world.NoZone, zg.AtPoint(-0.5, 2))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			assert.Equal(t, l.ZoneIDAt(x, y), zg.At(x, y), "cell %d,%d", x, y)
		}
	}
}

func TestParallelTraceMatchesSerial(t *testing.T) {
	l := testLevel(t, boxRows(16, 16))
	l.SetZones(threeZones())
	l.Sprites = []*world.Sprite{{X: 6.5, Y: 9, Scale: 1, Texture: "red", Alive: true}}

	cfg := testConfig()
	serial := newTestRenderer(cfg)
	serial.Render(l, eastView())

	pool := core.NewWorkerPool(4)
	pool.Start()
	defer pool.Stop()

	pcfg := testConfig()
	pcfg.Performance.ParallelTrace = true
	parallel := New(pcfg, testW, testH, testStore(pcfg), WithLogger(quietLogger()), WithRunner(pool))
	l.Sprites[0].ScreenHeight = 0
	parallel.Render(l, eastView())

	assert.Equal(t, serial.Framebuffer().Image.Pix, parallel.Framebuffer().Image.Pix)
}

func TestResize(t *testing.T) {
	cfg := testConfig()
	r := newTestRenderer(cfg)
	l := testLevel(t, boxRows(16, 16))
	r.Render(l, eastView())

	r.Resize(32, 20)
	w, h := r.Size()
	assert.Equal(t, 32, w)
	assert.Equal(t, 20, h)

	stats := r.Render(l, eastView())
	assert.True(t, stats.LUTRebuilt)
	assert.Equal(t, 32, stats.ColumnsHit)
	assert.Equal(t, 32, r.Framebuffer().Width)
	assert.Len(t, r.Gradients().Get(world.NoZone).Strip, 20)
	top, bottom := r.ColumnSpan(16)
	assert.Less(t, top, bottom)

	top, bottom = r.ColumnSpan(99)
	assert.Equal(t, top, bottom)
}

func TestLevelSightDistanceOverridesConfig(t *testing.T) {
	cfg := testConfig()
	r := newTestRenderer(cfg)
	l := testLevel(t, boxRows(16, 16))
	l.SightDistance = 5

	stats := r.Render(l, eastView())
	assert.InDelta(t, 5.0, r.Fog().Sight, 1e-12)
	assert.Less(t, stats.ColumnsHit, testW)
}
