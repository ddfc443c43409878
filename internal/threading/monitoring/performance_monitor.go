package monitoring

import (
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"zonecaster/internal/render"
)

// PerformanceMonitor tracks frame timings and renderer work counters. It
// implements render.FrameObserver so a Renderer can report to it directly.
type PerformanceMonitor struct {
	// Frame metrics
	frameCount atomic.Uint64
	frameTime  atomic.Uint64 // nanoseconds, whole frame including presentation

	// Render phase metrics of the last frame, nanoseconds
	wallTime   atomic.Uint64
	floorTime  atomic.Uint64
	spriteTime atomic.Uint64
	renderTime atomic.Uint64

	// Work counters of the last frame
	columnsHit    atomic.Uint64
	segments      atomic.Uint64
	surfaceRuns   atomic.Uint64
	spritesDrawn  atomic.Uint64
	spritesCulled atomic.Uint64
	renderedCount atomic.Uint64

	// Statistics
	mutex        sync.RWMutex
	avgFrameTime float64 // exponential moving average, nanoseconds
	rebuilds     map[string]uint64
	startTime    time.Time

	// Configuration
	lowFPS  float64
	metrics *Metrics
}

// NewPerformanceMonitor creates a monitor that alerts below lowFPS frames per second.
// metrics may be nil.
func NewPerformanceMonitor(lowFPS float64, metrics *Metrics) *PerformanceMonitor {
	if lowFPS <= 0 {
		lowFPS = 30
	}
	return &PerformanceMonitor{
		startTime: time.Now(),
		rebuilds:  make(map[string]uint64),
		lowFPS:    lowFPS,
		metrics:   metrics,
	}
}

// FrameTimer helps measure frame timing
type FrameTimer struct {
	monitor   *PerformanceMonitor
	startTime time.Time
}

// StartFrame begins frame timing
func (pm *PerformanceMonitor) StartFrame() *FrameTimer {
	return &FrameTimer{
		monitor:   pm,
		startTime: time.Now(),
	}
}

// EndFrame completes frame timing
func (ft *FrameTimer) EndFrame() {
	ft.monitor.recordFrame(time.Since(ft.startTime))
}

func (pm *PerformanceMonitor) recordFrame(d time.Duration) {
	ns := uint64(max(d.Nanoseconds(), 1))
	pm.frameTime.Store(ns)
	count := pm.frameCount.Add(1)

	pm.mutex.Lock()
	if count == 1 {
		pm.avgFrameTime = float64(ns)
	} else {
		pm.avgFrameTime = pm.avgFrameTime*0.9 + float64(ns)*0.1
	}
	pm.mutex.Unlock()

	if pm.metrics != nil {
		pm.metrics.observePhase("frame", d)
	}
}

// ObserveFrame stores the phase timings and counters of one Render call.
func (pm *PerformanceMonitor) ObserveFrame(stats *render.FrameStats) {
	pm.wallTime.Store(uint64(stats.Walls.Nanoseconds()))
	pm.floorTime.Store(uint64(stats.Floors.Nanoseconds()))
	pm.spriteTime.Store(uint64(stats.Sprites.Nanoseconds()))
	pm.renderTime.Store(uint64(stats.Total.Nanoseconds()))

	pm.columnsHit.Store(uint64(stats.ColumnsHit))
	pm.segments.Store(uint64(stats.Segments))
	pm.surfaceRuns.Store(uint64(stats.SurfaceRuns))
	pm.spritesDrawn.Store(uint64(stats.SpritesDrawn))
	pm.spritesCulled.Store(uint64(stats.SpritesCulled))
	pm.renderedCount.Add(1)

	if pm.metrics != nil {
		pm.metrics.observeStats(stats)
	}
}

// ObserveRebuild counts one cache rebuild
func (pm *PerformanceMonitor) ObserveRebuild(cache string) {
	pm.mutex.Lock()
	pm.rebuilds[cache]++
	pm.mutex.Unlock()

	if pm.metrics != nil {
		pm.metrics.cacheRebuilds.WithLabelValues(cache).Inc()
	}
}

// Rebuilds returns how often a cache has been rebuilt
func (pm *PerformanceMonitor) Rebuilds(cache string) uint64 {
	pm.mutex.RLock()
	defer pm.mutex.RUnlock()
	return pm.rebuilds[cache]
}

// FrameMetrics is a snapshot of the most recent frame.
type FrameMetrics struct {
	FramesPerSecond float64
	RenderTime      time.Duration
	WallTime        time.Duration
	FloorTime       time.Duration
	SpriteTime      time.Duration
	ColumnsHit      uint64
	SpritesDrawn    uint64
	MemoryUsageMB   uint64
}

// GetCurrentMetrics returns current performance metrics
func (pm *PerformanceMonitor) GetCurrentMetrics() FrameMetrics {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return FrameMetrics{
		FramesPerSecond: pm.fps(),
		RenderTime:      time.Duration(pm.renderTime.Load()),
		WallTime:        time.Duration(pm.wallTime.Load()),
		FloorTime:       time.Duration(pm.floorTime.Load()),
		SpriteTime:      time.Duration(pm.spriteTime.Load()),
		ColumnsHit:      pm.columnsHit.Load(),
		SpritesDrawn:    pm.spritesDrawn.Load(),
		MemoryUsageMB:   memStats.Alloc / 1024 / 1024,
	}
}

func (pm *PerformanceMonitor) fps() float64 {
	frameTime := pm.frameTime.Load()
	if frameTime == 0 {
		return 0
	}
	return 1000000000.0 / float64(frameTime) // Convert nanoseconds to FPS
}

// GetDetailedStats returns detailed performance statistics
func (pm *PerformanceMonitor) GetDetailedStats() map[string]interface{} {
	pm.mutex.RLock()
	avg := pm.avgFrameTime
	rebuilds := make(map[string]uint64, len(pm.rebuilds))
	for k, v := range pm.rebuilds {
		rebuilds[k] = v
	}
	uptime := time.Since(pm.startTime)
	pm.mutex.RUnlock()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return map[string]interface{}{
		"uptime_seconds":    uptime.Seconds(),
		"frame_count":       pm.frameCount.Load(),
		"rendered_frames":   pm.renderedCount.Load(),
		"avg_frame_time_ms": avg / 1000000, // Convert to milliseconds
		"render_time_ms":    float64(pm.renderTime.Load()) / 1000000,
		"wall_time_ms":      float64(pm.wallTime.Load()) / 1000000,
		"floor_time_ms":     float64(pm.floorTime.Load()) / 1000000,
		"sprite_time_ms":    float64(pm.spriteTime.Load()) / 1000000,
		"current_fps":       pm.fps(),
		"columns_hit":       pm.columnsHit.Load(),
		"wall_segments":     pm.segments.Load(),
		"surface_runs":      pm.surfaceRuns.Load(),
		"sprites_drawn":     pm.spritesDrawn.Load(),
		"sprites_culled":    pm.spritesCulled.Load(),
		"cache_rebuilds":    rebuilds,
		"memory_alloc_mb":   memStats.Alloc / 1024 / 1024,
		"gc_cycles":         memStats.NumGC,
		"cpu_cores":         runtime.NumCPU(),
		"goroutines":        runtime.NumGoroutine(),
	}
}

// PerformanceAlert represents a performance warning
type PerformanceAlert struct {
	Type      string
	Message   string
	Value     float64
	Threshold float64
	Timestamp time.Time
}

// rebuildStormRatio is the share of rendered frames that may rebuild the zone grid
const rebuildStormRatio = 0.5

// CheckPerformanceAlerts checks for performance issues and returns alerts
func (pm *PerformanceMonitor) CheckPerformanceAlerts() []PerformanceAlert {
	alerts := make([]PerformanceAlert, 0)
	currentTime := time.Now()

	if fps := pm.fps(); fps > 0 && fps < pm.lowFPS {
		alerts = append(alerts, PerformanceAlert{
			Type:      "low_fps",
			Message:   "Frame rate is below the configured minimum",
			Value:     fps,
			Threshold: pm.lowFPS,
			Timestamp: currentTime,
		})
	}

	// A zone grid rebuilt on most frames means something edits the level every frame
	frames := pm.renderedCount.Load()
	if frames >= 60 {
		ratio := float64(pm.Rebuilds("zonegrid")) / float64(frames)
		if ratio > rebuildStormRatio {
			alerts = append(alerts, PerformanceAlert{
				Type:      "rebuild_storm",
				Message:   "Zone grid is rebuilt on most frames",
				Value:     ratio,
				Threshold: rebuildStormRatio,
				Timestamp: currentTime,
			})
		}
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	memoryMB := float64(memStats.Alloc) / 1024 / 1024
	if memoryMB > 500 { // Alert if memory usage exceeds 500MB
		alerts = append(alerts, PerformanceAlert{
			Type:      "high_memory",
			Message:   "Memory usage is above 500MB",
			Value:     memoryMB,
			Threshold: 500,
			Timestamp: currentTime,
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool { return alerts[i].Type < alerts[j].Type })
	return alerts
}

// Reset resets all performance counters
func (pm *PerformanceMonitor) Reset() {
	pm.frameCount.Store(0)
	pm.frameTime.Store(0)
	pm.wallTime.Store(0)
	pm.floorTime.Store(0)
	pm.spriteTime.Store(0)
	pm.renderTime.Store(0)
	pm.columnsHit.Store(0)
	pm.segments.Store(0)
	pm.surfaceRuns.Store(0)
	pm.spritesDrawn.Store(0)
	pm.spritesCulled.Store(0)
	pm.renderedCount.Store(0)

	pm.mutex.Lock()
	pm.avgFrameTime = 0
	pm.rebuilds = make(map[string]uint64)
	pm.startTime = time.Now()
	pm.mutex.Unlock()
}
