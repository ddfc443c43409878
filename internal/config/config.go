package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all renderer and viewer configuration values
type Config struct {
	Display     DisplayConfig     `yaml:"display"`
	Camera      CameraConfig      `yaml:"camera"`
	Render      RenderConfig      `yaml:"render"`
	Performance PerformanceConfig `yaml:"performance"`
	Level       LevelConfig       `yaml:"level"`
}

type DisplayConfig struct {
	ScreenWidth  int    `yaml:"screen_width"`
	ScreenHeight int    `yaml:"screen_height"`
	WindowTitle  string `yaml:"window_title"`
	Resizable    bool   `yaml:"resizable"`
	Scale        int    `yaml:"scale"` // window pixels per framebuffer pixel
}

type CameraConfig struct {
	FieldOfView   float64 `yaml:"field_of_view"` // degrees
	SightDistance float64 `yaml:"sight_distance"`
	EyeHeight     float64 `yaml:"eye_height"` // above the floor of the zone the camera stands in
	NearPlane     float64 `yaml:"near_plane"`
	MoveSpeed     float64 `yaml:"move_speed"`
	TurnSpeed     float64 `yaml:"turn_speed"`
}

// RenderConfig tunes the ray casting pipeline.
type RenderConfig struct {
	FogStartFrac float64 `yaml:"fog_start_frac"`
	FogMaxAlpha  float64 `yaml:"fog_max_alpha"`
	FogLevels    int     `yaml:"fog_levels"`

	ShadeK      float64 `yaml:"shade_k"`
	ShadeLevels int     `yaml:"shade_levels"`
	SideShade   float64 `yaml:"side_shade"` // multiplier for horizontal-axis hits

	WobbleAmplitude float64 `yaml:"wobble_amplitude"`
	WobbleSpeed     float64 `yaml:"wobble_speed"`

	// PeriscopeMaxHits caps the walls traced past the first hit of a column;
	// the first hit is not counted.
	PeriscopeMaxHits int `yaml:"periscope_max_hits"`

	DepthEpsilon        float64 `yaml:"depth_epsilon"`
	SpriteHysteresis    float64 `yaml:"sprite_height_hysteresis"`
	SpritePretestPoints int     `yaml:"sprite_pretest_points"`

	LiquidBandPx        int     `yaml:"liquid_band_px"`
	BandScale           float64 `yaml:"band_scale"`
	SimplifiedZoneLimit int     `yaml:"simplified_zone_limit"`
	StrideDivisor       int     `yaml:"stride_divisor"`
	MaxStride           int     `yaml:"max_stride"`

	TintCacheSize int `yaml:"tint_cache_size"`
}

type PerformanceConfig struct {
	ParallelTrace bool    `yaml:"parallel_trace"`
	Workers       int     `yaml:"workers"`
	MetricsAddr   string  `yaml:"metrics_addr"`
	LowFPSAlert   float64 `yaml:"low_fps_alert"`
}

type LevelConfig struct {
	Path        string `yaml:"path"`
	TextureDir  string `yaml:"texture_dir"`
	TextureSize int    `yaml:"texture_size"`
	Seed        int64  `yaml:"seed"`
}

var GlobalConfig *Config

// Default returns a configuration with every field populated.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// LoadConfig loads the configuration from a YAML file
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config data, fills defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	config.applyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Set global config for easy access
	GlobalConfig = &config

	return &config, nil
}

// MustLoadConfig loads the configuration and panics on error
func MustLoadConfig(filename string) *Config {
	config, err := LoadConfig(filename)
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}
	return config
}

func (c *Config) applyDefaults() {
	d := &c.Display
	if d.ScreenWidth == 0 {
		d.ScreenWidth = 640
	}
	if d.ScreenHeight == 0 {
		d.ScreenHeight = 400
	}
	if d.WindowTitle == "" {
		d.WindowTitle = "zonecaster"
	}
	if d.Scale == 0 {
		d.Scale = 2
	}

	cam := &c.Camera
	if cam.FieldOfView == 0 {
		cam.FieldOfView = 66
	}
	if cam.SightDistance == 0 {
		cam.SightDistance = 15
	}
	if cam.EyeHeight == 0 {
		cam.EyeHeight = 0.5
	}
	if cam.NearPlane == 0 {
		cam.NearPlane = 0.05
	}
	if cam.MoveSpeed == 0 {
		cam.MoveSpeed = 3
	}
	if cam.TurnSpeed == 0 {
		cam.TurnSpeed = 2.2
	}

	r := &c.Render
	if r.FogStartFrac == 0 {
		r.FogStartFrac = 0.6
	}
	if r.FogMaxAlpha == 0 {
		r.FogMaxAlpha = 0.85
	}
	if r.FogLevels == 0 {
		r.FogLevels = 16
	}
	if r.ShadeK == 0 {
		r.ShadeK = 0.12
	}
	if r.ShadeLevels == 0 {
		r.ShadeLevels = 82
	}
	if r.SideShade == 0 {
		r.SideShade = 0.5
	}
	if r.WobbleAmplitude == 0 {
		r.WobbleAmplitude = 0.15
	}
	if r.WobbleSpeed == 0 {
		r.WobbleSpeed = 3
	}
	if r.PeriscopeMaxHits == 0 {
		r.PeriscopeMaxHits = 3
	}
	if r.DepthEpsilon == 0 {
		r.DepthEpsilon = 0.02
	}
	if r.SpriteHysteresis == 0 {
		r.SpriteHysteresis = 1.5
	}
	if r.SpritePretestPoints == 0 {
		r.SpritePretestPoints = 5
	}
	if r.LiquidBandPx == 0 {
		r.LiquidBandPx = 2
	}
	if r.BandScale == 0 {
		r.BandScale = 0.5
	}
	if r.SimplifiedZoneLimit == 0 {
		r.SimplifiedZoneLimit = 2
	}
	if r.StrideDivisor == 0 {
		r.StrideDivisor = 24
	}
	if r.MaxStride == 0 {
		r.MaxStride = 16
	}
	if r.TintCacheSize == 0 {
		r.TintCacheSize = 256
	}

	if c.Performance.LowFPSAlert == 0 {
		c.Performance.LowFPSAlert = 30
	}
	if c.Level.TextureSize == 0 {
		c.Level.TextureSize = 64
	}
}

// Validate reports the first out-of-range value.
func (c *Config) Validate() error {
	switch {
	case c.Display.ScreenWidth < 2 || c.Display.ScreenHeight < 2:
		return fmt.Errorf("%w: screen must be at least 2x2, got %dx%d", ErrInvalidConfig, c.Display.ScreenWidth, c.Display.ScreenHeight)
	case c.Camera.FieldOfView <= 0 || c.Camera.FieldOfView >= 180:
		return fmt.Errorf("%w: field_of_view must be in (0,180), got %v", ErrInvalidConfig, c.Camera.FieldOfView)
	case c.Camera.SightDistance <= 0:
		return fmt.Errorf("%w: sight_distance must be positive, got %v", ErrInvalidConfig, c.Camera.SightDistance)
	case c.Camera.NearPlane <= 0 || c.Camera.NearPlane >= c.Camera.SightDistance:
		return fmt.Errorf("%w: near_plane must be in (0,sight_distance), got %v", ErrInvalidConfig, c.Camera.NearPlane)
	case c.Render.FogStartFrac < 0 || c.Render.FogStartFrac >= 1:
		return fmt.Errorf("%w: fog_start_frac must be in [0,1), got %v", ErrInvalidConfig, c.Render.FogStartFrac)
	case c.Render.FogMaxAlpha < 0 || c.Render.FogMaxAlpha > 1:
		return fmt.Errorf("%w: fog_max_alpha must be in [0,1], got %v", ErrInvalidConfig, c.Render.FogMaxAlpha)
	case c.Render.ShadeLevels < 2 || c.Render.ShadeLevels > 256:
		return fmt.Errorf("%w: shade_levels must be in [2,256], got %d", ErrInvalidConfig, c.Render.ShadeLevels)
	case c.Render.FogLevels < 2 || c.Render.FogLevels > 256:
		return fmt.Errorf("%w: fog_levels must be in [2,256], got %d", ErrInvalidConfig, c.Render.FogLevels)
	case c.Level.TextureSize < 1:
		return fmt.Errorf("%w: texture_size must be positive, got %d", ErrInvalidConfig, c.Level.TextureSize)
	}
	return nil
}

// Helper functions for easy access to commonly used values
func (c *Config) GetScreenWidth() int {
	return c.Display.ScreenWidth
}

func (c *Config) GetScreenHeight() int {
	return c.Display.ScreenHeight
}

// GetCameraFOV returns the horizontal field of view in radians
func (c *Config) GetCameraFOV() float64 {
	return c.Camera.FieldOfView * math.Pi / 180
}

func (c *Config) GetSightDistance() float64 {
	return c.Camera.SightDistance
}

// GetFogStart returns the distance at which fog begins to blend in
func (c *Config) GetFogStart() float64 {
	return c.Camera.SightDistance * c.Render.FogStartFrac
}

func (c *Config) GetMoveSpeed() float64 {
	return c.Camera.MoveSpeed
}

func (c *Config) GetTurnSpeed() float64 {
	return c.Camera.TurnSpeed
}
