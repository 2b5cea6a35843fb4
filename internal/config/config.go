package config

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/richtext/internal/logging"
	"github.com/dshills/richtext/internal/theme"
)

// Default values.
const (
	DefaultLogLevel    = "info"
	DefaultMetricsAddr = ":9090"
)

// Config is the complete editor configuration.
type Config struct {
	LogLevel string
	Editor   EditorConfig
	Metrics  MetricsConfig
	Theme    theme.Theme
}

// EditorConfig holds editor behavior settings.
type EditorConfig struct {
	// ValidateStates checks every invariant of each committed state.
	ValidateStates bool `toml:"validate_states"`
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
}

// file mirrors the on-disk layout. The theme stays a raw table so that
// nested tables can be flattened.
type file struct {
	LogLevel string         `toml:"log_level"`
	Editor   EditorConfig   `toml:"editor"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Theme    map[string]any `toml:"theme"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: DefaultLogLevel,
		Metrics:  MetricsConfig{Addr: DefaultMetricsAddr},
		Theme:    theme.Theme{},
	}
}

// Load reads the configuration at path. A missing file yields Default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	return Parse(path, data)
}

// Parse decodes TOML data on top of the defaults. Unknown keys outside
// the theme table are rejected.
func Parse(source string, data []byte) (*Config, error) {
	def := Default()
	f := file{
		LogLevel: def.LogLevel,
		Editor:   def.Editor,
		Metrics:  def.Metrics,
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, parseError(source, err)
	}

	th, err := theme.FromMap(f.Theme)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, source, err)
	}
	c := &Config{
		LogLevel: f.LogLevel,
		Editor:   f.Editor,
		Metrics:  f.Metrics,
		Theme:    th,
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	return c, nil
}

func parseError(source string, err error) error {
	pe := &ParseError{Path: source, Message: err.Error(), Err: err}

	var derr *toml.DecodeError
	if errors.As(err, &derr) {
		pe.Line, pe.Column = derr.Position()
		return pe
	}
	var serr *toml.StrictMissingError
	if errors.As(err, &serr) && len(serr.Errors) > 0 {
		first := serr.Errors[0]
		pe.Line, pe.Column = first.Position()
		pe.Message = "unknown key " + strings.Join(first.Key(), ".")
	}
	return pe
}

// Validate checks values that decoding cannot.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Metrics.Enabled {
		if _, _, err := net.SplitHostPort(c.Metrics.Addr); err != nil {
			return fmt.Errorf("%w: metrics addr %q: %w", ErrInvalidConfig, c.Metrics.Addr, err)
		}
	}
	return nil
}

// Level returns the configured log level.
func (c *Config) Level() slog.Level {
	l, _ := logging.ParseLevel(c.LogLevel)
	return l
}
