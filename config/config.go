// Package config loads session and demo settings from TOML.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/lixenwraith/termbridge/terminal"
)

// ErrInvalid marks a configuration value that failed validation
var ErrInvalid = errors.New("invalid config")

// Driver names
const (
	DriverANSI  = "ansi"
	DriverTcell = "tcell"
)

// Config holds every tunable of a screen session
type Config struct {
	Driver        string   `toml:"driver"`
	MaxWorkers    int      `toml:"max_workers"`
	InputMode     []string `toml:"input_mode"`
	OutputMode    string   `toml:"output_mode"`
	ClearFg       string   `toml:"clear_fg"`
	ClearBg       string   `toml:"clear_bg"`
	EscapeTimeout Duration `toml:"escape_timeout"`
	LogLevel      string   `toml:"log_level"`
}

// Duration is a time.Duration written as a Go duration string ("50ms")
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Driver:        DriverANSI,
		MaxWorkers:    64,
		InputMode:     []string{"esc"},
		OutputMode:    "normal",
		ClearFg:       "default",
		ClearBg:       "default",
		EscapeTimeout: Duration{50 * time.Millisecond},
		LogLevel:      "info",
	}
}

// Load overlays the TOML file at path onto Default.
// Unknown keys are rejected so typos do not silently fall back to defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("loading config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%w: unknown keys in %s: %s", ErrInvalid, path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("loading config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every field can be converted to its runtime value
func (c Config) Validate() error {
	switch c.Driver {
	case DriverANSI, DriverTcell:
	default:
		return fmt.Errorf("%w: driver %q", ErrInvalid, c.Driver)
	}
	if c.MaxWorkers < 1 {
		return fmt.Errorf("%w: max_workers must be positive, got %d", ErrInvalid, c.MaxWorkers)
	}
	if c.EscapeTimeout.Duration <= 0 {
		return fmt.Errorf("%w: escape_timeout must be positive", ErrInvalid)
	}
	if _, err := c.Input(); err != nil {
		return err
	}
	if _, err := c.Output(); err != nil {
		return err
	}
	if _, _, err := c.ClearAttributes(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Input converts the input_mode list into a normalized terminal.InputMode
func (c Config) Input() (terminal.InputMode, error) {
	var mode terminal.InputMode
	for _, name := range c.InputMode {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "esc":
			mode |= terminal.InputEsc
		case "alt":
			mode |= terminal.InputAlt
		case "mouse":
			mode |= terminal.InputMouse
		default:
			return 0, fmt.Errorf("%w: input_mode %q", ErrInvalid, name)
		}
	}
	return mode.Normalize(), nil
}

var outputModes = map[string]terminal.OutputMode{
	"normal":    terminal.OutputNormal,
	"256":       terminal.Output256,
	"216":       terminal.Output216,
	"grayscale": terminal.OutputGrayscale,
}

// Output converts output_mode into a terminal.OutputMode
func (c Config) Output() (terminal.OutputMode, error) {
	return ParseOutputMode(c.OutputMode)
}

// ParseOutputMode accepts normal, 256, 216 or grayscale
func ParseOutputMode(name string) (terminal.OutputMode, error) {
	mode, ok := outputModes[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: output_mode %q", ErrInvalid, name)
	}
	return mode, nil
}

var colorNames = map[string]terminal.Attribute{
	"default": terminal.ColorDefault,
	"black":   terminal.ColorBlack,
	"red":     terminal.ColorRed,
	"green":   terminal.ColorGreen,
	"yellow":  terminal.ColorYellow,
	"blue":    terminal.ColorBlue,
	"magenta": terminal.ColorMagenta,
	"cyan":    terminal.ColorCyan,
	"white":   terminal.ColorWhite,
}

var styleNames = map[string]terminal.Attribute{
	"bold":      terminal.AttrBold,
	"underline": terminal.AttrUnderline,
	"reverse":   terminal.AttrReverse,
}

// ClearAttributes converts clear_fg and clear_bg
func (c Config) ClearAttributes() (fg, bg terminal.Attribute, err error) {
	if fg, err = ParseAttribute(c.ClearFg); err != nil {
		return 0, 0, err
	}
	if bg, err = ParseAttribute(c.ClearBg); err != nil {
		return 0, 0, err
	}
	return fg, bg, nil
}

// ParseAttribute reads "color[+style...]" where color is a name or a palette number 0-255
func ParseAttribute(s string) (terminal.Attribute, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "+")

	var attr terminal.Attribute
	if c, ok := colorNames[parts[0]]; ok {
		attr = c
	} else if n, err := strconv.Atoi(parts[0]); err == nil && n >= 0 && n <= 255 {
		attr = terminal.Attribute(n)
	} else {
		return 0, fmt.Errorf("%w: color %q", ErrInvalid, s)
	}

	for _, p := range parts[1:] {
		st, ok := styleNames[p]
		if !ok {
			return 0, fmt.Errorf("%w: style %q in %q", ErrInvalid, p, s)
		}
		attr |= st
	}
	return attr, nil
}

// Level converts log_level into a slog.Level
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	return lvl, nil
}
