package monitoring

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zonecaster/internal/render"
)

func TestNewPerformanceMonitor(t *testing.T) {
	pm := NewPerformanceMonitor(0, nil)
	require.NotNil(t, pm)
	assert.Equal(t, 30.0, pm.lowFPS)
	assert.Less(t, time.Since(pm.startTime), time.Second)
	assert.Empty(t, pm.CheckPerformanceAlerts())
}

func TestPerformanceMonitorFrameTiming(t *testing.T) {
	pm := NewPerformanceMonitor(30, nil)

	frameTimer := pm.StartFrame()
	time.Sleep(10 * time.Millisecond) // Simulate some work
	frameTimer.EndFrame()

	assert.Equal(t, uint64(1), pm.frameCount.Load())
	assert.GreaterOrEqual(t, pm.frameTime.Load(), uint64(10*time.Millisecond))

	m := pm.GetCurrentMetrics()
	assert.Greater(t, m.FramesPerSecond, 0.0)
	assert.LessOrEqual(t, m.FramesPerSecond, 100.0)
}

func TestObserveFrame(t *testing.T) {
	pm := NewPerformanceMonitor(30, nil)
	pm.ObserveFrame(&render.FrameStats{
		ColumnsHit:   320,
		Segments:     400,
		SurfaceRuns:  900,
		SpritesDrawn: 3,
		Walls:        2 * time.Millisecond,
		Floors:       3 * time.Millisecond,
		Sprites:      time.Millisecond,
		Total:        6 * time.Millisecond,
	})
	pm.ObserveRebuild("zonegrid")
	pm.ObserveRebuild("rowlut")
	pm.ObserveRebuild("rowlut")

	m := pm.GetCurrentMetrics()
	assert.Equal(t, uint64(320), m.ColumnsHit)
	assert.Equal(t, uint64(3), m.SpritesDrawn)
	assert.Equal(t, 6*time.Millisecond, m.RenderTime)
	assert.Equal(t, 3*time.Millisecond, m.FloorTime)

	stats := pm.GetDetailedStats()
	assert.Equal(t, uint64(1), stats["rendered_frames"])
	assert.Equal(t, uint64(900), stats["surface_runs"])
	assert.Equal(t, map[string]uint64{"zonegrid": 1, "rowlut": 2}, stats["cache_rebuilds"])
	assert.InDelta(t, 2.0, stats["wall_time_ms"], 1e-9)
}

func TestCheckPerformanceAlerts(t *testing.T) {
	pm := NewPerformanceMonitor(60, nil)
	pm.recordFrame(50 * time.Millisecond)
	for i := 0; i < 60; i++ {
		pm.ObserveFrame(&render.FrameStats{})
		pm.ObserveRebuild("zonegrid")
	}

	alerts := pm.CheckPerformanceAlerts()
	types := make([]string, 0, len(alerts))
	for _, a := range alerts {
		types = append(types, a.Type)
	}
	assert.Contains(t, types, "low_fps")
	assert.Contains(t, types, "rebuild_storm")

	pm.Reset()
	assert.Empty(t, pm.CheckPerformanceAlerts())
	assert.Zero(t, pm.Rebuilds("zonegrid"))
}

func TestPerformanceMonitorConcurrency(t *testing.T) {
	pm := NewPerformanceMonitor(30, nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				pm.StartFrame().EndFrame()
				pm.ObserveRebuild("gradients")
				_ = pm.GetDetailedStats()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(800), pm.frameCount.Load())
	assert.Equal(t, uint64(800), pm.Rebuilds("gradients"))
}

func TestPrometheusMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	pm := NewPerformanceMonitor(30, metrics)
	pm.ObserveFrame(&render.FrameStats{ColumnsHit: 200, SpritesDrawn: 2, SpritesCulled: 5})
	pm.ObserveFrame(&render.FrameStats{ColumnsHit: 210, SpritesDrawn: 1})
	pm.ObserveRebuild("zonegrid")
	pm.recordFrame(time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.cacheRebuilds.WithLabelValues("zonegrid")))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.sprites.WithLabelValues("drawn")))
	assert.Equal(t, 5.0, testutil.ToFloat64(metrics.sprites.WithLabelValues("culled")))
	assert.Equal(t, 210.0, testutil.ToFloat64(metrics.columnsHit))

	// walls, floors, sprites, render and frame
	assert.Equal(t, 5, testutil.CollectAndCount(metrics.frameSeconds))

	expected := `
# HELP zonecaster_columns_hit Screen columns that hit a wall in the last frame.
# TYPE zonecaster_columns_hit gauge
zonecaster_columns_hit 210
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "zonecaster_columns_hit"))

	_, err = NewMetrics(reg)
	assert.Error(t, err, "registering twice must fail")
}
