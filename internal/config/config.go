// Package config holds runtime configuration for the measurement server.
package config

import (
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/area-measure-mcp/internal/measure"
	"github.com/ironsheep/area-measure-mcp/internal/units"
)

// Environment variables read by FromEnv.
const (
	EnvConfigPath = "AREA_MEASURE_CONFIG"
	EnvLogLevel   = "AREA_MEASURE_LOG_LEVEL"
)

// Config holds runtime configuration. Fields may be loaded from a JSON file
// and overridden by environment variables.
type Config struct {
	LogLevel string `json:"log_level"`

	// Frame the image is fitted into when a load request gives no size.
	FrameWidth  int `json:"frame_width"`
	FrameHeight int `json:"frame_height"`

	WheelZoomStep  float64 `json:"wheel_zoom_step"`
	ButtonZoomStep float64 `json:"button_zoom_step"`
	MinDragSize    float64 `json:"min_drag_size"`

	Palette     []string `json:"palette"`
	DefaultUnit string   `json:"default_unit"`
	// ColorSeed seeds measurement colors; 0 picks a time-based seed.
	ColorSeed int64 `json:"color_seed"`

	OCRLanguage string `json:"ocr_language"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	palette := make([]string, len(measure.DefaultPalette))
	copy(palette, measure.DefaultPalette)
	return &Config{
		LogLevel:       "info",
		FrameWidth:     800,
		FrameHeight:    800,
		WheelZoomStep:  measure.WheelZoomStep,
		ButtonZoomStep: measure.ButtonZoomStep,
		MinDragSize:    measure.MinDragSize,
		Palette:        palette,
		DefaultUnit:    string(units.Canonical),
		OCRLanguage:    "eng",
	}
}

// Validate clamps/normalizes values to safe ranges. Palette entries that
// are not valid hex colors are dropped.
func (c *Config) Validate() error {
	def := DefaultConfig()
	switch strings.ToLower(c.LogLevel) {
	case "trace", "debug", "info", "warn", "error", "disabled":
		c.LogLevel = strings.ToLower(c.LogLevel)
	default:
		c.LogLevel = def.LogLevel
	}
	if c.FrameWidth <= 0 {
		c.FrameWidth = def.FrameWidth
	}
	if c.FrameHeight <= 0 {
		c.FrameHeight = def.FrameHeight
	}
	if c.WheelZoomStep <= 1 {
		c.WheelZoomStep = def.WheelZoomStep
	}
	if c.ButtonZoomStep <= 1 {
		c.ButtonZoomStep = def.ButtonZoomStep
	}
	if c.MinDragSize <= 0 {
		c.MinDragSize = def.MinDragSize
	}
	valid := c.Palette[:0]
	for _, hex := range c.Palette {
		if _, err := colorful.Hex(hex); err == nil {
			valid = append(valid, strings.ToUpper(hex))
		}
	}
	c.Palette = valid
	if len(c.Palette) == 0 {
		c.Palette = def.Palette
	}
	if u, err := units.Parse(c.DefaultUnit); err == nil {
		c.DefaultUnit = string(u)
	} else {
		c.DefaultUnit = def.DefaultUnit
	}
	if c.OCRLanguage == "" {
		c.OCRLanguage = def.OCRLanguage
	}
	return nil
}

// Load attempts to read configuration from the given JSON file path. If the file does not
// exist it returns DefaultConfig(). On JSON error it returns defaults with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := sonic.Unmarshal(data, cfg); err != nil {
		return DefaultConfig(), err
	}
	_ = cfg.Validate()
	return cfg, nil
}

// FromEnv loads the file named by AREA_MEASURE_CONFIG and applies
// AREA_MEASURE_LOG_LEVEL on top.
func FromEnv() (*Config, error) {
	cfg, err := Load(os.Getenv(EnvConfigPath))
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		cfg.LogLevel = lvl
		_ = cfg.Validate()
	}
	return cfg, err
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	data, err := sonic.ConfigStd.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// SessionSettings converts the config into settings for a new session.
// The notifier is left for the caller to set.
func (c *Config) SessionSettings() measure.Settings {
	seed := c.ColorSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	unit, err := units.Parse(c.DefaultUnit)
	if err != nil {
		unit = units.Canonical
	}
	palette := make([]string, len(c.Palette))
	copy(palette, c.Palette)
	return measure.Settings{
		WheelStep:   c.WheelZoomStep,
		ButtonStep:  c.ButtonZoomStep,
		MinDragSize: c.MinDragSize,
		Palette:     palette,
		Rand:        rand.New(rand.NewSource(seed)),
		Unit:        unit,
	}
}
