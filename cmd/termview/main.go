// Command termview renders a level into the terminal with half-block cells.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"

	"zonecaster/internal/config"
	"zonecaster/internal/present"
	"zonecaster/internal/render"
	"zonecaster/internal/threading"
)

const tps = 30

func main() {
	configPath := flag.String("config", "config.yaml", "configuration file")
	levelPath := flag.String("level", "", "level file, overrides level.path")
	logPath := flag.String("log", "", "write logs to this file")
	shotDir := flag.String("shots", "", "screenshot directory")
	flag.Parse()

	// The terminal belongs to tcell once the screen starts
	log := logrus.New()
	log.SetOutput(io.Discard)
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		log.SetOutput(f)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *levelPath != "" {
		cfg.Level.Path = *levelPath
	}
	scene, err := present.LoadScene(cfg, tps, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	tc, err := threading.NewThreadingComponents(cfg, nil, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer tc.Shutdown()

	screen, err := tcell.NewScreen()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := screen.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer screen.Fini()

	sink := present.NewTerminalSink(screen)
	w, h := sink.FrameSize()
	opts := append(tc.RendererOptions(), render.WithLogger(log))
	r := render.New(cfg, w, h, scene.Textures, opts...)
	controller := present.NewController(cfg, scene.Player, scene.Level, tps)

	run(screen, sink, r, scene, controller, tc, *shotDir, log)
}

func run(screen tcell.Screen, sink *present.TerminalSink, r *render.Renderer, scene *present.Scene,
	controller *present.Controller, tc *threading.ThreadingComponents, shotDir string, log logrus.FieldLogger) {
	events := make(chan tcell.Event, 64)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			events <- ev
		}
	}()

	ticker := time.NewTicker(time.Second / tps)
	defer ticker.Stop()
	start := time.Now()
	showStats := false
	var keys present.KeySet

	for range ticker.C {
		keys.Clear()
	drain:
		for {
			select {
			case ev := <-events:
				switch ev := ev.(type) {
				case *tcell.EventKey:
					if a, ok := present.KeyAction(ev); ok {
						keys.Press(a)
					}
				case *tcell.EventResize:
					screen.Sync()
					r.Resize(sink.FrameSize())
				}
			default:
				break drain
			}
		}

		cmd := controller.Step(&keys)
		if cmd.Quit {
			return
		}
		if cmd.ToggleStats {
			showStats = !showStats
		}

		frameTimer := tc.PerformanceMonitor.StartFrame()
		stats := r.Render(scene.Level, scene.Player.View(time.Since(start).Seconds()))
		if cmd.Screenshot {
			path := present.ScreenshotPath(shotDir, time.Now())
			if err := r.Framebuffer().SavePNG(path); err != nil {
				log.WithError(err).Warn("screenshot failed")
			}
		}
		sink.Present(r.Framebuffer())
		if showStats {
			drawText(screen, 0, 0, fmt.Sprintf("fps %.0f walls %v floors %v sprites %d/%d",
				tc.PerformanceMonitor.GetCurrentMetrics().FramesPerSecond,
				stats.Walls.Round(time.Microsecond), stats.Floors.Round(time.Microsecond),
				stats.SpritesDrawn, stats.SpritesDrawn+stats.SpritesCulled))
			screen.Show()
		}
		frameTimer.EndFrame()
	}
}

func drawText(screen tcell.Screen, x, y int, text string) {
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorBlack)
	for _, ch := range text {
		screen.SetContent(x, y, ch, nil, style)
		x++
	}
}
