package present

import (
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/sirupsen/logrus"

	"zonecaster/internal/render"
	"zonecaster/internal/threading/monitoring"
)

// ebitenKeys binds actions to keys: arrows or A/D turn, W/S walk, Q/E strafe.
var ebitenKeys = map[Action][]ebiten.Key{
	MoveForward:  {ebiten.KeyUp, ebiten.KeyW},
	MoveBackward: {ebiten.KeyDown, ebiten.KeyS},
	StrafeLeft:   {ebiten.KeyQ},
	StrafeRight:  {ebiten.KeyE},
	TurnLeft:     {ebiten.KeyLeft, ebiten.KeyA},
	TurnRight:    {ebiten.KeyRight, ebiten.KeyD},
	ToggleStats:  {ebiten.KeySlash},
	Screenshot:   {ebiten.KeyF12, ebiten.KeyP},
	Quit:         {ebiten.KeyEscape},
}

type ebitenInput struct{}

func (ebitenInput) Pressed(a Action) bool {
	for _, k := range ebitenKeys[a] {
		if ebiten.IsKeyPressed(k) {
			return true
		}
	}
	return false
}

// EbitenGame presents the renderer's framebuffer in an ebiten window.
type EbitenGame struct {
	scene      *Scene
	renderer   *render.Renderer
	controller *Controller
	monitor    *monitoring.PerformanceMonitor
	log        logrus.FieldLogger

	ScreenshotDir string

	img       *ebiten.Image
	start     time.Time
	showStats bool
	stats     render.FrameStats
}

// NewEbitenGame wires a scene and renderer into an ebiten.Game. monitor may be nil.
func NewEbitenGame(scene *Scene, r *render.Renderer, c *Controller, monitor *monitoring.PerformanceMonitor, log logrus.FieldLogger) *EbitenGame {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &EbitenGame{
		scene:      scene,
		renderer:   r,
		controller: c,
		monitor:    monitor,
		log:        log.WithField("component", "EbitenGame"),
		start:      time.Now(),
	}
}

func (g *EbitenGame) Update() error {
	cmd := g.controller.Step(ebitenInput{})
	if cmd.Quit {
		return ebiten.Termination
	}
	if cmd.ToggleStats {
		g.showStats = !g.showStats
	}
	if cmd.Screenshot {
		path := ScreenshotPath(g.ScreenshotDir, time.Now())
		if err := g.renderer.Framebuffer().SavePNG(path); err != nil {
			g.log.WithError(err).Warn("screenshot failed")
		} else {
			g.log.WithField("path", path).Info("screenshot saved")
		}
	}
	return nil
}

func (g *EbitenGame) Draw(screen *ebiten.Image) {
	if g.monitor != nil {
		frameTimer := g.monitor.StartFrame()
		defer frameTimer.EndFrame()
	}

	view := g.scene.Player.View(time.Since(g.start).Seconds())
	g.stats = g.renderer.Render(g.scene.Level, view)

	w, h := g.renderer.Size()
	if g.img == nil || g.img.Bounds().Dx() != w || g.img.Bounds().Dy() != h {
		if g.img != nil {
			g.img.Deallocate()
		}
		g.img = ebiten.NewImage(w, h)
	}
	g.img.WritePixels(g.renderer.Framebuffer().Pix())
	screen.DrawImage(g.img, nil)

	if g.showStats {
		ebitenutil.DebugPrint(screen, fmt.Sprintf("TPS %.0f FPS %.0f\nwalls %v floors %v sprites %v\nsprites %d drawn %d culled\ncenter %.2f eye %.2f",
			ebiten.ActualTPS(), ebiten.ActualFPS(),
			g.stats.Walls.Round(time.Microsecond), g.stats.Floors.Round(time.Microsecond), g.stats.Sprites.Round(time.Microsecond),
			g.stats.SpritesDrawn, g.stats.SpritesCulled,
			g.renderer.CenterDepth(), g.scene.Player.EyeZ()))
	}
}

// Layout keeps the renderer's resolution; ebiten scales it to the window.
func (g *EbitenGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.renderer.Size()
}
