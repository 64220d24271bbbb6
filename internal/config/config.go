// Package config holds the yaml configuration for horizon with defaults and
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultWidth         = 1280
	DefaultHeight        = 720
	DefaultTitle         = "Horizon"
	DefaultMaxPixelRatio = 1.5

	DefaultStarCount = 4000
	DefaultSeed      = 1

	DefaultColorRate     = 2.0
	DefaultSpeedRate     = 2.0
	DefaultPulseRate     = 2.0
	DefaultGlitchRate    = 5.0
	DefaultOrbitRate     = 2.0
	DefaultRestRate      = 5.0
	DefaultMaxFrameDelta = 0.1

	DefaultListen       = ":8080"
	DefaultBriefModel   = "gemini-3-flash-preview"
	DefaultDossierModel = "gemini-3-pro-preview"
	DefaultTimeout      = 90 * time.Second
)

var ErrInvalidConfig = errors.New("config: invalid configuration")

type Config struct {
	Window    WindowConfig    `yaml:"window"`
	Scene     SceneConfig     `yaml:"scene"`
	Animation AnimationConfig `yaml:"animation"`
	Server    ServerConfig    `yaml:"server"`
	Debug     bool            `yaml:"debug"`
}

type WindowConfig struct {
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
	Title         string  `yaml:"title"`
	MaxPixelRatio float32 `yaml:"max_pixel_ratio"`
}

type SceneConfig struct {
	StarCount int   `yaml:"star_count"`
	Seed      int64 `yaml:"seed"`
}

// AnimationConfig holds convergence rates in 1/s and the frame delta cap in
// seconds.
type AnimationConfig struct {
	ColorRate     float32 `yaml:"color_rate"`
	SpeedRate     float32 `yaml:"speed_rate"`
	PulseRate     float32 `yaml:"pulse_rate"`
	GlitchRate    float32 `yaml:"glitch_rate"`
	OrbitRate     float32 `yaml:"orbit_rate"`
	RestRate      float32 `yaml:"rest_rate"`
	MaxFrameDelta float32 `yaml:"max_frame_delta"`
}

type ServerConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Listen       string        `yaml:"listen"`
	Backend      string        `yaml:"backend"`
	APIKey       string        `yaml:"-"`
	BriefModel   string        `yaml:"brief_model"`
	DossierModel string        `yaml:"dossier_model"`
	Timeout      time.Duration `yaml:"timeout"`
}

func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			Width:         DefaultWidth,
			Height:        DefaultHeight,
			Title:         DefaultTitle,
			MaxPixelRatio: DefaultMaxPixelRatio,
		},
		Scene: SceneConfig{
			StarCount: DefaultStarCount,
			Seed:      DefaultSeed,
		},
		Animation: DefaultAnimation(),
		Server: ServerConfig{
			Listen:       DefaultListen,
			BriefModel:   DefaultBriefModel,
			DossierModel: DefaultDossierModel,
			Timeout:      DefaultTimeout,
		},
	}
}

func DefaultAnimation() AnimationConfig {
	return AnimationConfig{
		ColorRate:     DefaultColorRate,
		SpeedRate:     DefaultSpeedRate,
		PulseRate:     DefaultPulseRate,
		GlitchRate:    DefaultGlitchRate,
		OrbitRate:     DefaultOrbitRate,
		RestRate:      DefaultRestRate,
		MaxFrameDelta: DefaultMaxFrameDelta,
	}
}

// Load reads path on top of the defaults, then applies env overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
	}
	cfg.ApplyEnv()
	cfg.Normalize()
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Normalized returns a normalized copy, leaving c untouched.
func (c *Config) Normalized() *Config {
	n := *c
	n.Normalize()
	return &n
}

// ApplyEnv overlays HORIZON_LISTEN, HORIZON_BACKEND, HORIZON_DEBUG and the
// Gemini API key.
// GEMINI_API_KEY wins over API_KEY.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("HORIZON_LISTEN"); v != "" {
		c.Server.Listen = v
	}
	if v := os.Getenv("HORIZON_BACKEND"); v != "" {
		c.Server.Backend = v
	}
	if v := os.Getenv("HORIZON_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Debug = b
		}
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Server.APIKey = v
	} else if v := os.Getenv("API_KEY"); v != "" {
		c.Server.APIKey = v
	}
}

// Normalize replaces non-positive or empty values with defaults.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.Window.Width <= 0 {
		c.Window.Width = d.Window.Width
	}
	if c.Window.Height <= 0 {
		c.Window.Height = d.Window.Height
	}
	if c.Window.Title == "" {
		c.Window.Title = d.Window.Title
	}
	if c.Window.MaxPixelRatio <= 0 {
		c.Window.MaxPixelRatio = d.Window.MaxPixelRatio
	}
	if c.Scene.StarCount <= 0 {
		c.Scene.StarCount = d.Scene.StarCount
	}
	positive := func(v *float32, def float32) {
		if *v <= 0 {
			*v = def
		}
	}
	positive(&c.Animation.ColorRate, d.Animation.ColorRate)
	positive(&c.Animation.SpeedRate, d.Animation.SpeedRate)
	positive(&c.Animation.PulseRate, d.Animation.PulseRate)
	positive(&c.Animation.GlitchRate, d.Animation.GlitchRate)
	positive(&c.Animation.OrbitRate, d.Animation.OrbitRate)
	positive(&c.Animation.RestRate, d.Animation.RestRate)
	positive(&c.Animation.MaxFrameDelta, d.Animation.MaxFrameDelta)
	if c.Server.Listen == "" {
		c.Server.Listen = d.Server.Listen
	}
	if c.Server.BriefModel == "" {
		c.Server.BriefModel = d.Server.BriefModel
	}
	if c.Server.DossierModel == "" {
		c.Server.DossierModel = d.Server.DossierModel
	}
	if c.Server.Timeout <= 0 {
		c.Server.Timeout = d.Server.Timeout
	}
}
