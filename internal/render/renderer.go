package render

import (
	"time"

	"github.com/sirupsen/logrus"

	"zonecaster/internal/config"
	"zonecaster/internal/texture"
	"zonecaster/internal/world"
)

// FrameStats counts the work done by one Render call.
type FrameStats struct {
	ColumnsHit    int
	PeriscopeHits int
	Segments      int
	SkippedDraws  int // segments or sprites whose texture handle did not resolve
	FoggedSpans   int
	SurfaceRuns   int
	Bands         int
	SpritesDrawn  int
	SpritesCulled int
	SpriteRuns    int

	Simplified      bool
	ZoneGridRebuilt bool
	LUTRebuilt      bool
	GradientRebuilt bool

	Walls   time.Duration
	Floors  time.Duration
	Sprites time.Duration
	Total   time.Duration
}

// ColumnRunner runs fn for every index in [start, end), possibly concurrently.
type ColumnRunner interface {
	ParallelFor(start, end int, fn func(int))
}

// FrameObserver receives frame timings and cache rebuild events.
type FrameObserver interface {
	ObserveFrame(stats *FrameStats)
	ObserveRebuild(cache string)
}

// Option configures a Renderer
type Option func(*Renderer)

// WithLogger sets the logger used for load and rebuild messages
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Renderer) { r.log = log }
}

// WithRunner traces columns through runner instead of a plain loop.
func WithRunner(runner ColumnRunner) Option {
	return func(r *Renderer) { r.runner = runner }
}

// WithObserver reports every frame to obs
func WithObserver(obs FrameObserver) Option {
	return func(r *Renderer) { r.observer = obs }
}

// Renderer owns every per-viewport buffer and per-level cache. Caches carry
// the level version they were built from and are rebuilt at the top of the
// next Render after any structural change to the level.
type Renderer struct {
	cfg      *config.Config
	textures *texture.Store
	log      logrus.FieldLogger
	runner   ColumnRunner
	observer FrameObserver

	width, height int
	fb            *Framebuffer
	depth         *DepthBuffer

	zones ZoneGrid
	lut   RowLUT
	grads GradientCache
	fog   FogCompositor
	sight float64

	walls   WallCaster
	surface FloorCeilingRenderer
	sprites SpriteCompositor

	level  *world.Level
	forced bool
}

// New creates a renderer for a width x height viewport. textures must have been
// loaded with the configured shade level count.
func New(cfg *config.Config, width, height int, textures *texture.Store, opts ...Option) *Renderer {
	if cfg == nil {
		cfg = config.Default()
	}
	rc := &cfg.Render
	shader := Shader{
		K:           rc.ShadeK,
		SideShade:   rc.SideShade,
		WobbleAmp:   rc.WobbleAmplitude,
		WobbleSpeed: rc.WobbleSpeed,
		Levels:      rc.ShadeLevels,
	}
	r := &Renderer{
		cfg:      cfg,
		textures: textures,
		log:      logrus.StandardLogger(),
		walls: WallCaster{
			Shader:           shader,
			Near:             cfg.Camera.NearPlane,
			PeriscopeMaxHits: rc.PeriscopeMaxHits,
		},
		surface: FloorCeilingRenderer{
			LiquidBandPx:  rc.LiquidBandPx,
			BandScale:     rc.BandScale,
			StrideDivisor: rc.StrideDivisor,
			MaxStride:     rc.MaxStride,
			DepthEpsilon:  rc.DepthEpsilon,
		},
		sprites: SpriteCompositor{
			Projector:     SpriteProjector{Hysteresis: rc.SpriteHysteresis},
			Shader:        shader,
			DepthEpsilon:  rc.DepthEpsilon,
			PretestPoints: rc.SpritePretestPoints,
			Tints:         NewTintCache(rc.TintCacheSize),
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.WithField("component", "Renderer")
	r.setSight(cfg.Camera.SightDistance)
	r.Resize(width, height)
	return r
}

// Resize reallocates every viewport-sized buffer, including the sprite
// scratch arena, and schedules a cache rebuild.
func (r *Renderer) Resize(width, height int) {
	width, height = max(width, 2), max(height, 2)
	r.width, r.height = width, height
	r.fb = NewFramebuffer(width, height)
	r.depth = NewDepthBuffer(width, height)
	r.walls.Resize(width, height)
	r.sprites.Resize(width, height)
	r.forced = true
}

// Invalidate forces every cache to rebuild on the next frame
func (r *Renderer) Invalidate() {
	r.forced = true
}

func (r *Renderer) setSight(sight float64) {
	rc := &r.cfg.Render
	r.sight = sight
	r.fog = NewFogCompositor(sight, rc.FogStartFrac, rc.FogMaxAlpha, rc.FogLevels)
	r.walls.Fog = r.fog
	r.sprites.Fog = r.fog
}

// refresh rebuilds the caches whose stamps no longer match the level and eye height.
func (r *Renderer) refresh(level *world.Level, eyeZ float64, stats *FrameStats) {
	if level != r.level {
		r.level = level
		r.forced = true
		r.sprites.Tints.Clear()
	}
	sight := r.cfg.Camera.SightDistance
	if level.SightDistance > 0 {
		sight = level.SightDistance
	}
	if sight != r.sight {
		r.setSight(sight)
		r.sprites.Tints.Clear()
		r.grads.Clear()
	}

	version := level.Version()
	if r.forced || r.zones.Version() != version {
		r.zones.Rebuild(level)
		stats.ZoneGridRebuilt = true
		r.log.WithFields(logrus.Fields{
			"version": version,
			"zones":   level.ZoneCount(),
			"size":    []int{level.Width(), level.Height()},
		}).Info("[ZoneGrid] rebuilt")
		r.notifyRebuild("zonegrid")
	}
	if r.forced || r.lut.Stale(r.height, eyeZ, version) {
		r.lut.Rebuild(r.height, eyeZ, level)
		stats.LUTRebuilt = true
		floors, ceilings := r.lut.Overrides()
		r.log.WithFields(logrus.Fields{
			"eye_z":           eyeZ,
			"floor_overrides": floors,
			"ceil_overrides":  ceilings,
		}).Debug("[RowLUT] rebuilt")
		r.notifyRebuild("rowlut")
	}
	if r.forced || r.grads.Stale(&r.lut) {
		r.grads.Rebuild(level, &r.lut, r.fog)
		stats.GradientRebuilt = true
		r.log.WithField("builds", r.grads.Builds()).Debug("[GradientCache] rebuilt")
		r.notifyRebuild("gradients")
	}
	r.forced = false
}

func (r *Renderer) notifyRebuild(cache string) {
	if r.observer != nil {
		r.observer.ObserveRebuild(cache)
	}
}

// Render draws one frame of level from view into the framebuffer.
func (r *Renderer) Render(level *world.Level, view View) FrameStats {
	var stats FrameStats
	start := time.Now()
	r.refresh(level, view.EyeZ, &stats)

	basis := NewCameraBasis(view.X, view.Y, view.Heading, r.cfg.GetCameraFOV())
	horizon := float64(r.height) / 2
	camZone := r.zones.AtPoint(view.X, view.Y)

	stats.Simplified = level.ZoneCount() <= r.cfg.Render.SimplifiedZoneLimit
	if stats.Simplified {
		PaintBackground(r.fb, r.grads.Get(camZone))
	} else {
		r.fb.Clear(r.grads.Get(world.NoZone).Palette.Fog)
	}
	r.depth.Reset()

	tp := traceParams{
		level:   level,
		zones:   &r.zones,
		basis:   basis,
		sight:   r.sight,
		eyeZ:    view.EyeZ,
		horizon: horizon,
		height:  r.height,
		near:    r.walls.Near,
		maxHits: r.walls.PeriscopeMaxHits,
	}
	trace := func(col int) { r.walls.traceColumn(&tp, col) }
	if r.runner != nil && r.cfg.Performance.ParallelTrace {
		r.runner.ParallelFor(0, r.width, trace)
	} else {
		for col := 0; col < r.width; col++ {
			trace(col)
		}
	}

	dp := drawParams{
		traceParams: tp,
		fb:          r.fb,
		depth:       r.depth,
		textures:    r.textures,
		grads:       &r.grads,
		time:        view.Time,
		stats:       &stats,
	}
	for col := 0; col < r.width; col++ {
		r.walls.drawColumn(&dp, col)
	}
	wallsDone := time.Now()
	stats.Walls = wallsDone.Sub(start)

	if !stats.Simplified {
		r.drawSurfaces(level, basis, horizon, camZone, view.EyeZ, &stats)
	}
	floorsDone := time.Now()
	stats.Floors = floorsDone.Sub(wallsDone)

	r.sprites.Composite(&spriteParams{
		fb:       r.fb,
		depth:    r.depth,
		level:    level,
		zones:    &r.zones,
		grads:    &r.grads,
		textures: r.textures,
		basis:    basis,
		eyeZ:     view.EyeZ,
		sight:    r.sight,
		stats:    &stats,
	})
	end := time.Now()
	stats.Sprites = end.Sub(floorsDone)
	stats.Total = end.Sub(start)

	if r.observer != nil {
		r.observer.ObserveFrame(&stats)
	}
	return stats
}

// drawSurfaces paints floor and ceiling outside every column's silhouette and
// inside the gaps left between periscope walls.
func (r *Renderer) drawSurfaces(level *world.Level, basis CameraBasis, horizon float64, camZone int, eyeZ float64, stats *FrameStats) {
	sp := surfaceParams{
		fb:      r.fb,
		depth:   r.depth,
		lut:     &r.lut,
		zones:   &r.zones,
		grads:   &r.grads,
		level:   level,
		fog:     r.fog,
		basis:   basis,
		height:  r.height,
		horizon: horizon,
		camZone: camZone,
		eyeZ:    eyeZ,
		stats:   stats,
	}
	for col := 0; col < r.width; col++ {
		tr := &r.walls.traces[col]
		top, bottom := r.walls.wallTop[col], r.walls.wallBottom[col]
		r.surface.DrawCeiling(&sp, col, tr.rayX, tr.rayY, 0, top, top)
		r.surface.DrawFloor(&sp, col, tr.rayX, tr.rayY, bottom, r.height, bottom)
		for _, g := range r.walls.gaps[col] {
			r.surface.DrawCeiling(&sp, col, tr.rayX, tr.rayY, g.top, g.bottom, g.bottom)
			r.surface.DrawFloor(&sp, col, tr.rayX, tr.rayY, g.top, g.bottom, g.top)
		}
	}
}

// Framebuffer returns the frame drawn by the last Render
func (r *Renderer) Framebuffer() *Framebuffer { return r.fb }

// Depth returns the per-pixel wall depth of the last frame. Callers must not modify it.
func (r *Renderer) Depth() *DepthBuffer { return r.depth }

// DepthAt returns the wall depth under pixel (x, y), +Inf where no wall was drawn.
func (r *Renderer) DepthAt(x, y int) float64 { return r.depth.At(x, y) }

// CenterDepth returns the wall depth under the screen center, for aiming.
func (r *Renderer) CenterDepth() float64 {
	return r.depth.At(r.width/2, r.height/2)
}

// ColumnSpan returns the wall silhouette rows [top, bottom) of column x.
func (r *Renderer) ColumnSpan(x int) (top, bottom int) {
	if x < 0 || x >= r.width {
		h := int(float64(r.height) / 2)
		return h, h
	}
	return r.walls.WallTop(x), r.walls.WallBottom(x)
}

// Size returns the viewport size
func (r *Renderer) Size() (int, int) { return r.width, r.height }

// ZoneGrid returns the cached cell owners
func (r *Renderer) ZoneGrid() *ZoneGrid { return &r.zones }

// Gradients returns the gradient cache
func (r *Renderer) Gradients() *GradientCache { return &r.grads }

// TintCache returns the sprite tint cache
func (r *Renderer) TintCache() *TintCache { return r.sprites.Tints }

// Fog returns the fog parameters in use
func (r *Renderer) Fog() FogCompositor { return r.fog }
