package present

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"zonecaster/internal/config"
	"zonecaster/internal/player"
	"zonecaster/internal/texture"
	"zonecaster/internal/world"
)

// Scene is everything a viewer needs before the render loop starts.
type Scene struct {
	Level    *world.Level
	Textures *texture.Store
	Player   *player.Player
}

// LoadScene reads the level named by cfg.Level.Path and resolves every texture
// it references. Decoding happens here so the frame path never waits on I/O.
func LoadScene(cfg *config.Config, fps int, log logrus.FieldLogger) (*Scene, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.Level.Path == "" {
		return nil, fmt.Errorf("%w: level.path is empty", config.ErrInvalidConfig)
	}
	level, err := world.NewLevelLoader(log).LoadLevel(cfg.Level.Path)
	if err != nil {
		return nil, err
	}

	dir := level.TextureDir
	if dir == "" {
		dir = cfg.Level.TextureDir
	}
	seed := cfg.Level.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	start := time.Now()
	store := texture.NewStore(cfg.Level.TextureSize, cfg.Render.ShadeLevels, seed, log)
	store.LoadWalls(dir, level.Materials.Textures())
	store.LoadSprites(dir, spriteTextures(level))
	log.WithFields(logrus.Fields{
		"textures": len(store.Names()),
		"elapsed":  time.Since(start).Round(time.Millisecond),
	}).Info("textures ready")

	return &Scene{
		Level:    level,
		Textures: store,
		Player:   player.Spawn(level, cfg.Camera.EyeHeight, fps),
	}, nil
}

func spriteTextures(level *world.Level) []string {
	seen := make(map[string]bool)
	var names []string
	for _, s := range level.Sprites {
		if s == nil || s.Texture == "" || seen[s.Texture] {
			continue
		}
		seen[s.Texture] = true
		names = append(names, s.Texture)
	}
	return names
}

// ScreenshotPath returns a fresh file name in dir for a frame capture.
func ScreenshotPath(dir string, now time.Time) string {
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, fmt.Sprintf("zonecaster-%s.png", now.Format("20060102-150405.000")))
}
