package monitoring

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"zonecaster/internal/render"
)

const namespace = "zonecaster"

// Metrics holds the Prometheus collectors fed by a PerformanceMonitor.
type Metrics struct {
	frameSeconds  *prometheus.HistogramVec
	cacheRebuilds *prometheus.CounterVec
	sprites       *prometheus.CounterVec
	columnsHit    prometheus.Gauge
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		frameSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "frame_seconds",
			Help:      "Time spent per frame phase.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 10),
		}, []string{"phase"}),
		cacheRebuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_rebuilds_total",
			Help:      "Number of renderer cache rebuilds.",
		}, []string{"cache"}),
		sprites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sprites_total",
			Help:      "Sprites considered for drawing, by outcome.",
		}, []string{"outcome"}),
		columnsHit: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "columns_hit",
			Help:      "Screen columns that hit a wall in the last frame.",
		}),
	}
	for _, c := range []prometheus.Collector{m.frameSeconds, m.cacheRebuilds, m.sprites, m.columnsHit} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) observePhase(phase string, d time.Duration) {
	m.frameSeconds.WithLabelValues(phase).Observe(d.Seconds())
}

func (m *Metrics) observeStats(stats *render.FrameStats) {
	m.observePhase("walls", stats.Walls)
	m.observePhase("floors", stats.Floors)
	m.observePhase("sprites", stats.Sprites)
	m.observePhase("render", stats.Total)
	m.sprites.WithLabelValues("drawn").Add(float64(stats.SpritesDrawn))
	m.sprites.WithLabelValues("culled").Add(float64(stats.SpritesCulled))
	m.columnsHit.Set(float64(stats.ColumnsHit))
}

// StartHTTP serves /metrics from gatherer on addr in a background goroutine.
func StartHTTP(addr string, gatherer prometheus.Gatherer, log logrus.FieldLogger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.WithField("addr", addr).Info("metrics endpoint listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server stopped")
		}
	}()
	return srv
}
