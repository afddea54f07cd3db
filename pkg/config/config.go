// Package config loads and saves the atomtree configuration file.
//
// The file lives at $XDG_CONFIG_HOME/atomtree/config.toml and mirrors
// [Default]. Missing keys keep their defaults; CLI flags override the loaded
// values.
package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/atomtree/pkg/errors"
	"github.com/matzehuels/atomtree/pkg/layout"
	"github.com/matzehuels/atomtree/pkg/render"
	"github.com/matzehuels/atomtree/pkg/source"
	"github.com/matzehuels/atomtree/pkg/surface"
	"github.com/matzehuels/atomtree/pkg/tree"
	"github.com/matzehuels/atomtree/pkg/viewport"
	"github.com/matzehuels/atomtree/pkg/visualizer"
)

// Config holds atomtree configuration.
type Config struct {
	Canvas CanvasConfig       `toml:"canvas"`
	Layout LayoutConfig       `toml:"layout"`
	Zoom   ZoomConfig         `toml:"zoom"`
	Style  render.Style       `toml:"style"`
	Root   RootConfig         `toml:"root"`
	Watch  WatchConfig        `toml:"watch"`
	Redis  source.RedisConfig `toml:"redis"`
	Server ServerConfig       `toml:"server"`
}

// CanvasConfig sets the drawing surface.
type CanvasConfig struct {
	ID     string  `toml:"id"`
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

// LayoutConfig sets the tidy tree cell size.
type LayoutConfig struct {
	NodeWidth  float64 `toml:"node_width"`
	NodeHeight float64 `toml:"node_height"`
}

// ZoomConfig bounds zoom gestures and sets the first-cycle viewport.
type ZoomConfig struct {
	MinScale     float64 `toml:"min_scale"`
	MaxScale     float64 `toml:"max_scale"`
	InitialX     float64 `toml:"initial_x"`
	InitialY     float64 `toml:"initial_y"`
	InitialScale float64 `toml:"initial_scale"`
}

// RootConfig names the synthetic root node.
type RootConfig struct {
	Name string `toml:"name"`
}

// WatchConfig controls the file feed.
type WatchConfig struct {
	Debounce Duration `toml:"debounce"`
}

// ServerConfig controls `atomtree serve`.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// Duration is a time.Duration encoded as a Go duration string ("200ms").
type Duration struct{ time.Duration }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Canvas: CanvasConfig{ID: surface.DefaultID, Width: viewport.DefaultWidth, Height: viewport.DefaultHeight},
		Layout: LayoutConfig{NodeWidth: layout.DefaultNodeWidth, NodeHeight: layout.DefaultNodeHeight},
		Zoom:   ZoomConfig{MinScale: viewport.DefaultMinScale, MaxScale: viewport.DefaultMaxScale, InitialScale: 1},
		Style:  render.DefaultStyle(),
		Root:   RootConfig{Name: tree.DefaultRootName},
		Watch:  WatchConfig{Debounce: Duration{source.DefaultDebounce}},
		Redis:  source.RedisConfig{Addr: "localhost:6379", Channel: "atomtree:snapshots"},
		Server: ServerConfig{Addr: "127.0.0.1:8080"},
	}
}

// Dir returns the atomtree config directory path.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "atomtree")
}

// Path returns the default config file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load reads the default config file. A missing file yields [Default].
func Load() (*Config, error) {
	return LoadFile(Path())
}

// LoadFile reads path over the defaults and validates the result. A missing
// file yields [Default].
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to the default config path.
func Save(cfg *Config) error {
	return SaveFile(Path(), cfg)
}

// SaveFile writes cfg to path, creating parent directories.
func SaveFile(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
// It reports whether a file was written.
func EnsureExists() (bool, error) {
	if _, err := os.Stat(Path()); err == nil {
		return false, nil
	}
	return true, Save(Default())
}

// Validate rejects values no cycle could use. Scales are not rejected here:
// the initial scale is clamped to [min_scale, max_scale] at render time.
func (c *Config) Validate() error {
	switch {
	case c.Canvas.Width <= 0 || c.Canvas.Height <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "canvas size must be positive, got %gx%g", c.Canvas.Width, c.Canvas.Height)
	case c.Layout.NodeWidth <= 0 || c.Layout.NodeHeight <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "layout node size must be positive, got %gx%g", c.Layout.NodeWidth, c.Layout.NodeHeight)
	case c.Zoom.MinScale < 0 || c.Zoom.MaxScale < c.Zoom.MinScale:
		return errors.New(errors.ErrCodeInvalidConfig, "zoom scale extent [%g, %g] is invalid", c.Zoom.MinScale, c.Zoom.MaxScale)
	case math.IsNaN(c.Zoom.InitialScale) || math.IsInf(c.Zoom.InitialScale, 0):
		return errors.New(errors.ErrCodeInvalidConfig, "zoom initial_scale must be finite")
	case c.Watch.Debounce.Duration < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "watch debounce must not be negative")
	}
	if c.Canvas.ID != "" {
		if err := errors.ValidateElementID(c.Canvas.ID); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "canvas id")
		}
	}
	return nil
}

// Constraints returns the zoom constraints over the configured canvas.
func (c *Config) Constraints() viewport.Constraints {
	return viewport.Constraints{
		MinScale:        c.Zoom.MinScale,
		MaxScale:        c.Zoom.MaxScale,
		Extent:          viewport.Rect{MaxX: c.Canvas.Width, MaxY: c.Canvas.Height},
		TranslateExtent: viewport.Unbounded,
	}
}

// NewCanvas returns a mounted canvas sized by the config.
func (c *Config) NewCanvas() *surface.Canvas {
	return surface.NewCanvas(c.Canvas.ID, c.Canvas.Width, c.Canvas.Height)
}

// ToOptions maps the config onto visualizer options.
func (c *Config) ToOptions(logger *log.Logger) visualizer.Options {
	initial := viewport.Transform{X: c.Zoom.InitialX, Y: c.Zoom.InitialY, K: c.Zoom.InitialScale}
	return visualizer.Options{
		RootName: c.Root.Name,
		Layout: layout.Options{
			NodeWidth:  c.Layout.NodeWidth,
			NodeHeight: c.Layout.NodeHeight,
		},
		Style:       c.Style,
		Constraints: c.Constraints(),
		Initial:     &initial,
		Logger:      logger,
	}
}
