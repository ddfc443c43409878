package threading

import (
	"runtime"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zonecaster/internal/config"
)

func TestNewThreadingComponents(t *testing.T) {
	tests := []struct {
		name        string
		parallel    bool
		withMetrics bool
		workers     int
		wantOpts    int
		wantWorkers int
	}{
		{"serial without metrics", false, false, 2, 1, 0},
		{"parallel with metrics", true, true, 2, 2, 2},
		{"parallel on every cpu", true, false, 0, 2, runtime.NumCPU()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Performance.ParallelTrace = tt.parallel
			cfg.Performance.Workers = tt.workers
			var reg prometheus.Registerer
			if tt.withMetrics {
				reg = prometheus.NewRegistry()
			}

			tc, err := NewThreadingComponents(cfg, reg, nil)
			require.NoError(t, err)
			defer tc.Shutdown()

			assert.NotNil(t, tc.PerformanceMonitor)
			assert.Equal(t, tt.parallel, tc.WorkerPool != nil)
			if tc.WorkerPool != nil {
				assert.Equal(t, tt.wantWorkers, tc.WorkerPool.GetNumWorkers())
			}
			assert.Equal(t, tt.withMetrics, tc.Metrics != nil)
			assert.Len(t, tc.RendererOptions(), tt.wantOpts)
			assert.NotNil(t, tc.GetDetailedPerformanceStats())
			assert.Empty(t, tc.CheckPerformanceAlerts())
		})
	}
}
