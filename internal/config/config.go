// Package config loads quadbench CLI settings from TOML or YAML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// EnvPath names the environment variable consulted by LoadFromEnv.
const EnvPath = "QUADBENCH_CONFIG"

// Config holds the complete CLI configuration
type Config struct {
	Log         LogConfig         `toml:"log" yaml:"log"`
	Integration IntegrationConfig `toml:"integration" yaml:"integration"`
	Profile     ProfileConfig     `toml:"profile" yaml:"profile"`
	Table       TableConfig       `toml:"table" yaml:"table"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`   // debug, info, warn, error
	Format string `toml:"format" yaml:"format"` // text, json
}

// IntegrationConfig holds defaults for integrate and profile runs
type IntegrationConfig struct {
	Function        string   `toml:"function" yaml:"function"`
	From            float64  `toml:"from" yaml:"from"`
	To              float64  `toml:"to" yaml:"to"`
	Partitions      int      `toml:"partitions" yaml:"partitions"`
	Parallelism     int      `toml:"parallelism" yaml:"parallelism"`
	ShutdownTimeout Duration `toml:"shutdown_timeout" yaml:"shutdown_timeout"`
	Timeout         Duration `toml:"timeout" yaml:"timeout"`
}

// ProfileConfig holds scaling profile settings
type ProfileConfig struct {
	Levels  []int `toml:"levels" yaml:"levels"`
	Repeats int   `toml:"repeats" yaml:"repeats"`
	Warmup  int   `toml:"warmup" yaml:"warmup"`
}

// TableConfig holds settings for the tabulated-function harness
type TableConfig struct {
	Mode    string  `toml:"mode" yaml:"mode"` // join, countdown, readwrite
	Points  int     `toml:"points" yaml:"points"`
	Workers int     `toml:"workers" yaml:"workers"`
	Rounds  int     `toml:"rounds" yaml:"rounds"`
	Factor  float64 `toml:"factor" yaml:"factor"`
}

// Duration wraps time.Duration for TOML and YAML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Format identifies a configuration file syntax.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// Load loads configuration from a TOML or YAML file, chosen by extension.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}

	cfg, err := Parse(content, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes content in the given format and applies defaults.
func Parse(content []byte, format Format) (*Config, error) {
	var cfg Config
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(content, &cfg); err != nil {
			return nil, err
		}
	case FormatYAML:
		if err := yaml.Unmarshal(content, &cfg); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported config format %v", format)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv loads configuration from the QUADBENCH_CONFIG environment
// variable, falling back to the default locations. When no file exists the
// defaults are returned.
func LoadFromEnv() (*Config, error) {
	path := os.Getenv(EnvPath)
	if path == "" {
		defaultPaths := []string{
			"./quadbench.toml",
			"./quadbench.yaml",
			filepath.Join(os.Getenv("HOME"), ".config/quadbench/config.toml"),
		}
		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

func detectFormat(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("unsupported config extension %q (want .toml, .yaml or .yml)", ext)
	}
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// Log
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	// Integration
	if c.Integration.Function == "" {
		c.Integration.Function = "sin"
	}
	if c.Integration.From == 0 && c.Integration.To == 0 {
		c.Integration.To = 3.141592653589793
	}
	if c.Integration.Partitions == 0 {
		c.Integration.Partitions = 1_000_000
	}
	if c.Integration.ShutdownTimeout.Duration == 0 {
		c.Integration.ShutdownTimeout.Duration = 60 * time.Second
	}

	// Profile
	if len(c.Profile.Levels) == 0 {
		c.Profile.Levels = []int{1, 2, 4, 8}
	}
	if c.Profile.Repeats == 0 {
		c.Profile.Repeats = 3
	}

	// Table
	if c.Table.Mode == "" {
		c.Table.Mode = "countdown"
	}
	if c.Table.Points == 0 {
		c.Table.Points = 1000
	}
	if c.Table.Workers == 0 {
		c.Table.Workers = 4
	}
	if c.Table.Rounds == 0 {
		c.Table.Rounds = 10
	}
	if c.Table.Factor == 0 {
		c.Table.Factor = 2
	}
}

// Validate rejects settings the CLI cannot run with. Parallelism 0 means
// "use the shared pool" and is allowed.
func (c *Config) Validate() error {
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Integration.Partitions < 0 {
		return fmt.Errorf("integration.partitions must be positive, got %d", c.Integration.Partitions)
	}
	if c.Integration.Parallelism < 0 {
		return fmt.Errorf("integration.parallelism must not be negative, got %d", c.Integration.Parallelism)
	}
	for _, level := range c.Profile.Levels {
		if level <= 0 {
			return fmt.Errorf("profile.levels must be positive, got %d", level)
		}
	}
	switch c.Table.Mode {
	case "join", "countdown", "readwrite":
	default:
		return fmt.Errorf("table.mode must be join, countdown or readwrite, got %q", c.Table.Mode)
	}
	if c.Table.Points < 2 {
		return fmt.Errorf("table.points must be at least 2, got %d", c.Table.Points)
	}
	return nil
}
