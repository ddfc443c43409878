package threading

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"zonecaster/internal/config"
	"zonecaster/internal/render"
	"zonecaster/internal/threading/core"
	"zonecaster/internal/threading/monitoring"
)

// ThreadingComponents holds the worker pool and monitoring shared by a viewer.
type ThreadingComponents struct {
	WorkerPool         *core.WorkerPool // nil unless parallel tracing is enabled
	PerformanceMonitor *monitoring.PerformanceMonitor
	Metrics            *monitoring.Metrics // nil without a registerer
}

// NewThreadingComponents creates and starts the components the config asks
// for. reg may be nil to skip Prometheus collectors.
func NewThreadingComponents(cfg *config.Config, reg prometheus.Registerer, log logrus.FieldLogger) (*ThreadingComponents, error) {
	tc := &ThreadingComponents{}
	if reg != nil {
		m, err := monitoring.NewMetrics(reg)
		if err != nil {
			return nil, err
		}
		tc.Metrics = m
	}
	tc.PerformanceMonitor = monitoring.NewPerformanceMonitor(cfg.Performance.LowFPSAlert, tc.Metrics)

	if cfg.Performance.ParallelTrace {
		if cfg.Performance.Workers > 0 {
			tc.WorkerPool = core.NewWorkerPool(cfg.Performance.Workers)
			tc.WorkerPool.Start()
		} else {
			tc.WorkerPool = core.CreateDefaultWorkerPool()
		}
		if log != nil {
			log.WithField("workers", tc.WorkerPool.GetNumWorkers()).Info("parallel column tracing enabled")
		}
	}
	return tc, nil
}

// RendererOptions wires the components into a renderer
func (tc *ThreadingComponents) RendererOptions() []render.Option {
	opts := []render.Option{render.WithObserver(tc.PerformanceMonitor)}
	if tc.WorkerPool != nil {
		opts = append(opts, render.WithRunner(tc.WorkerPool))
	}
	return opts
}

// Shutdown gracefully shuts down all threading components
func (tc *ThreadingComponents) Shutdown() {
	if tc.WorkerPool != nil {
		tc.WorkerPool.Stop()
	}
}

// GetDetailedPerformanceStats returns detailed performance statistics
func (tc *ThreadingComponents) GetDetailedPerformanceStats() map[string]interface{} {
	if tc.PerformanceMonitor != nil {
		return tc.PerformanceMonitor.GetDetailedStats()
	}
	return nil
}

// CheckPerformanceAlerts returns any performance warnings
func (tc *ThreadingComponents) CheckPerformanceAlerts() []monitoring.PerformanceAlert {
	if tc.PerformanceMonitor != nil {
		return tc.PerformanceMonitor.CheckPerformanceAlerts()
	}
	return nil
}
