package main

import (
	"context"
	"flag"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"zonecaster/internal/config"
	"zonecaster/internal/present"
	"zonecaster/internal/render"
	"zonecaster/internal/threading"
	"zonecaster/internal/threading/monitoring"
)

func main() {
	configPath := flag.String("config", "config.yaml", "configuration file")
	levelPath := flag.String("level", "", "level file, overrides level.path")
	verbose := flag.Bool("v", false, "log cache rebuilds")
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Fatal("config")
	}
	if *levelPath != "" {
		cfg.Level.Path = *levelPath
	}

	tps := ebiten.DefaultTPS
	scene, err := present.LoadScene(cfg, tps, log)
	if err != nil {
		log.WithError(err).Fatal("scene")
	}

	reg := prometheus.NewRegistry()
	tc, err := threading.NewThreadingComponents(cfg, reg, log)
	if err != nil {
		log.WithError(err).Fatal("threading")
	}
	defer tc.Shutdown()

	if cfg.Performance.MetricsAddr != "" {
		srv := monitoring.StartHTTP(cfg.Performance.MetricsAddr, reg, log)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
	}

	opts := append(tc.RendererOptions(), render.WithLogger(log))
	r := render.New(cfg, cfg.GetScreenWidth(), cfg.GetScreenHeight(), scene.Textures, opts...)
	controller := present.NewController(cfg, scene.Player, scene.Level, tps)
	g := present.NewEbitenGame(scene, r, controller, tc.PerformanceMonitor, log)

	// Set window properties from config
	ebiten.SetWindowSize(cfg.GetScreenWidth()*cfg.Display.Scale, cfg.GetScreenHeight()*cfg.Display.Scale)
	ebiten.SetWindowTitle(cfg.Display.WindowTitle)
	if cfg.Display.Resizable {
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	}

	if err := ebiten.RunGame(g); err != nil {
		log.WithError(err).Error("viewer stopped")
	}
	for _, a := range tc.CheckPerformanceAlerts() {
		log.WithField("type", a.Type).Warn(a.Message)
	}
}
