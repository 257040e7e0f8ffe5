package viewtree

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Options configures a Stage. Options can be loaded from TOML:
//
//	width = 1920
//	height = 1080
//	render_precision = 1.0
//	bounds_margin = [100, 100, 100, 100]
//	texture_dir = "assets"
//	debug = true
type Options struct {
	// Width and Height are the stage viewport size used for bounds checks.
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
	// RenderPrecision scales texture render sizes; 1 renders at native size.
	RenderPrecision float64 `toml:"render_precision"`
	// BoundsMargin extends the viewport (top, right, bottom, left) when
	// deciding whether a view is within bounds.
	BoundsMargin [4]float64 `toml:"bounds_margin"`
	// TextureDir is the base directory for src textures loaded from disk.
	TextureDir string `toml:"texture_dir"`
	// DefaultFontSize is used by text views that do not set a font size.
	DefaultFontSize float64 `toml:"default_font_size"`
	// Debug enables tree diagnostics for this stage. It also sets the
	// package logger to debug level, which affects every stage.
	Debug bool `toml:"debug"`
	// LogLevel is a charmbracelet/log level name ("debug", "info", "warn",
	// "error") applied to the package logger, so it is process-wide: the
	// last stage created with a level wins. Empty keeps the current level.
	LogLevel string `toml:"log_level"`
}

// DefaultOptions returns the options used when a field is left zero.
func DefaultOptions() Options {
	return Options{
		Width:           1920,
		Height:          1080,
		RenderPrecision: 1,
		BoundsMargin:    [4]float64{100, 100, 100, 100},
		DefaultFontSize: 40,
	}
}

// withDefaults fills zero fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Width == 0 {
		o.Width = d.Width
	}
	if o.Height == 0 {
		o.Height = d.Height
	}
	if o.RenderPrecision == 0 {
		o.RenderPrecision = d.RenderPrecision
	}
	if o.BoundsMargin == ([4]float64{}) {
		o.BoundsMargin = d.BoundsMargin
	}
	if o.DefaultFontSize == 0 {
		o.DefaultFontSize = d.DefaultFontSize
	}
	return o
}

// ParseOptions decodes TOML options. Missing fields take default values.
func ParseOptions(data []byte) (Options, error) {
	var o Options
	if err := toml.Unmarshal(data, &o); err != nil {
		return Options{}, fmt.Errorf("viewtree: parse options: %w", err)
	}
	return o.withDefaults(), nil
}

// LoadOptions reads and decodes a TOML options file.
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("viewtree: read options: %w", err)
	}
	return ParseOptions(data)
}
