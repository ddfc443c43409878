package render

import (
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"zonecaster/internal/mathutil"
	"zonecaster/internal/world"
)

var (
	defaultFloor   = world.RGB{96, 88, 80}
	defaultCeiling = world.RGB{58, 60, 72}
	defaultFog     = world.RGB{140, 150, 160}
)

// ZonePalette is the resolved color set of one zone after defaults are applied.
type ZonePalette struct {
	Base         color.RGBA
	FloorFront   color.RGBA
	FloorBack    color.RGBA
	CeilingFront color.RGBA
	CeilingBack  color.RGBA
	Fog          color.RGBA
}

// resolvePalette fills unset zone colors from the zone base color, then from
// the level default zone, then from built-in defaults.
func resolvePalette(z, def *world.Zone) ZonePalette {
	base := z.BaseColor.Or(def.BaseColor)
	floorFront := z.FloorFront.Or(base).Or(def.FloorFront).Or(defaultFloor)
	ceilFront := z.CeilingFront.Or(def.CeilingFront).Or(defaultCeiling)
	return ZonePalette{
		Base:         base.Or(floorFront).RGBA(),
		FloorFront:   floorFront.RGBA(),
		FloorBack:    z.FloorBack.Or(def.FloorBack).Or(halve(floorFront)).RGBA(),
		CeilingFront: ceilFront.RGBA(),
		CeilingBack:  z.CeilingBack.Or(def.CeilingBack).Or(halve(ceilFront)).RGBA(),
		Fog:          z.FogColor.Or(def.FogColor).Or(defaultFog).RGBA(),
	}
}

func halve(c world.RGB) world.RGB {
	return world.RGB{c[0] / 2, c[1] / 2, c[2] / 2}
}

// ZoneGradient is one zone's precomputed floor and ceiling colors per screen
// row: front to back by distance, fog already blended in. A floor or ceiling
// run is painted by copying a slice of Strip.
type ZoneGradient struct {
	Palette ZonePalette
	Strip   []color.RGBA
}

// GradientCache memoizes per-zone gradients. It is keyed by the row table it
// was built from and must be rebuilt whenever that table or the level changes.
type GradientCache struct {
	zones   map[int]*ZoneGradient
	version uint64
	height  int
	eyeZ    float64
	builds  int
}

// Stale reports whether the cache was built from a different level version or row table.
func (gc *GradientCache) Stale(lut *RowLUT) bool {
	return gc.zones == nil || gc.version != lut.version || gc.height != lut.height || gc.eyeZ != lut.eyeZ
}

// Clear drops every cached gradient
func (gc *GradientCache) Clear() {
	gc.zones = nil
}

// Rebuild recomputes the gradient of every zone plus the default zone.
func (gc *GradientCache) Rebuild(level *world.Level, lut *RowLUT, fog FogCompositor) {
	gc.zones = make(map[int]*ZoneGradient, level.ZoneCount()+1)
	gc.zones[world.NoZone] = buildGradient(world.NoZone, &level.DefaultZone, &level.DefaultZone, lut, fog)
	zones := level.Zones()
	for id := range zones {
		gc.zones[id] = buildGradient(id, &zones[id], &level.DefaultZone, lut, fog)
	}
	gc.version = lut.version
	gc.height = lut.height
	gc.eyeZ = lut.eyeZ
	gc.builds++
}

// Get returns the gradient of a zone, or the default zone's for unknown ids.
func (gc *GradientCache) Get(id int) *ZoneGradient {
	if g, ok := gc.zones[id]; ok {
		return g
	}
	return gc.zones[world.NoZone]
}

// Builds returns how many times the cache has been rebuilt
func (gc *GradientCache) Builds() int { return gc.builds }

func buildGradient(id int, z, def *world.Zone, lut *RowLUT, fog FogCompositor) *ZoneGradient {
	p := resolvePalette(z, def)
	g := &ZoneGradient{Palette: p, Strip: make([]color.RGBA, lut.height)}

	floor := lut.ZoneFloor(id)
	ceil := lut.ZoneCeiling(id)
	fogC := toColorful(p.Fog)
	ff, fbk := toColorful(p.FloorFront), toColorful(p.FloorBack)
	cf, cbk := toColorful(p.CeilingFront), toColorful(p.CeilingBack)

	for y := range g.Strip {
		var front, back colorful.Color
		var d float64
		if float64(y)+0.5 > lut.horizon {
			front, back, d = ff, fbk, floor[y]
		} else {
			front, back, d = cf, cbk, ceil[y]
		}
		t := 1.0
		if !math.IsInf(d, 1) && fog.Sight > 0 {
			t = mathutil.Clamp01(d / fog.Sight)
		}
		c := front.BlendRgb(back, t).BlendRgb(fogC, fog.Alpha(d))
		r, gg, b := c.Clamped().RGB255()
		g.Strip[y] = color.RGBA{r, gg, b, 255}
	}
	return g
}

func toColorful(c color.RGBA) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}
