// Package config loads molparse settings from YAML or TOML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	mp "github.com/chemform/molparse"
	"github.com/chemform/molparse/pkg/logger"
)

// EnvVar names the environment variable holding a config file path.
const EnvVar = "MOLPARSE_CONFIG"

// Errors returned by Load.
var (
	ErrNotFound          = errors.New("config: file not found")
	ErrUnsupportedFormat = errors.New("config: unsupported file format")
)

// DefaultSamples are the formulas used by the demo command.
var DefaultSamples = []string{
	"H2O",
	"Mg(OH)2",
	"CH3(CH2)6CH3",
	"(GFe)2{SO4(DC4)8}4",
	"K4[ON(SO3)2]2",
}

// Config holds the complete CLI configuration.
type Config struct {
	Parser  ParserConfig  `toml:"parser" yaml:"parser"`
	Cache   CacheConfig   `toml:"cache" yaml:"cache"`
	Workers WorkersConfig `toml:"workers" yaml:"workers"`
	Log     LogConfig     `toml:"log" yaml:"log"`
	Metrics MetricsConfig `toml:"metrics" yaml:"metrics"`
	Demo    DemoConfig    `toml:"demo" yaml:"demo"`
}

// ParserConfig holds validation and accumulation settings
type ParserConfig struct {
	Validate  bool     `toml:"validate" yaml:"validate"`
	Strict    bool     `toml:"strict" yaml:"strict"`
	MaxLength int      `toml:"max_length" yaml:"max_length"`
	Timeout   Duration `toml:"timeout" yaml:"timeout"`
}

// CacheConfig holds result cache settings
type CacheConfig struct {
	Enabled bool `toml:"enabled" yaml:"enabled"`
	Size    int  `toml:"size" yaml:"size"`
}

// WorkersConfig holds batch parsing settings
type WorkersConfig struct {
	Count int `toml:"count" yaml:"count"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
	File  string `toml:"file" yaml:"file"`
}

// MetricsConfig holds observability settings
type MetricsConfig struct {
	Enabled   bool   `toml:"enabled" yaml:"enabled"`
	Tracing   bool   `toml:"tracing" yaml:"tracing"`
	Namespace string `toml:"namespace" yaml:"namespace"`
}

// DemoConfig holds the demo command's formula list
type DemoConfig struct {
	Samples []string `toml:"samples" yaml:"samples"`
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

// Default returns the built-in configuration.
func Default() *Config {
	samples := make([]string, len(DefaultSamples))
	copy(samples, DefaultSamples)

	return &Config{
		Parser: ParserConfig{
			Validate: true,
			Timeout:  Duration{30 * time.Second},
		},
		Cache: CacheConfig{
			Enabled: true,
			Size:    1024,
		},
		Log: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Tracing:   true,
			Namespace: "molparse",
		},
		Demo: DemoConfig{
			Samples: samples,
		},
	}
}

// Load reads a config file. The format follows the extension: .toml, or
// .yaml/.yml. Keys missing from the file keep their default values.
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	cfg.applyDefaults()
	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve finds and loads the config file. An explicit path wins, then
// $MOLPARSE_CONFIG, then the default locations. When none exists the
// built-in defaults are returned with an empty path.
func Resolve(explicit string) (*Config, string, error) {
	if explicit != "" {
		cfg, err := Load(explicit)
		return cfg, explicit, err
	}
	if path := os.Getenv(EnvVar); path != "" {
		cfg, err := Load(path)
		return cfg, path, err
	}
	for _, p := range defaultPaths() {
		if _, err := os.Stat(p); err == nil {
			cfg, err := Load(p)
			return cfg, p, err
		}
	}
	return Default(), "", nil
}

func defaultPaths() []string {
	paths := []string{
		"./molparse.yaml",
		"./molparse.yml",
		"./molparse.toml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "molparse", "config.yaml"),
			filepath.Join(home, ".config", "molparse", "config.toml"),
		)
	}
	return paths
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	if c.Cache.Size <= 0 {
		c.Cache.Size = 1024
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "molparse"
	}
	if len(c.Demo.Samples) == 0 {
		c.Demo.Samples = append([]string(nil), DefaultSamples...)
	}
}

// expandEnvVars expands environment variables in path values
func (c *Config) expandEnvVars() {
	c.Log.File = os.ExpandEnv(c.Log.File)
}

// Validate reports settings that cannot be used.
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Parser.MaxLength < 0 {
		return fmt.Errorf("config: parser.max_length must not be negative, got %d", c.Parser.MaxLength)
	}
	if c.Workers.Count < 0 {
		return fmt.Errorf("config: workers.count must not be negative, got %d", c.Workers.Count)
	}
	if c.Parser.Timeout.Duration < 0 {
		return fmt.Errorf("config: parser.timeout must not be negative, got %s", c.Parser.Timeout)
	}
	return nil
}

// Options converts the configuration to parser options.
func (c *Config) Options() []mp.Option {
	opts := []mp.Option{
		mp.WithValidation(c.Parser.Validate),
		mp.WithStrictMode(c.Parser.Strict),
		mp.WithMaxFormulaLength(c.Parser.MaxLength),
		mp.WithCache(c.Cache.Enabled),
		mp.WithCacheSize(c.Cache.Size),
		mp.WithMetrics(c.Metrics.Enabled),
		mp.WithTracing(c.Metrics.Tracing),
	}
	if c.Workers.Count > 0 {
		opts = append(opts, mp.WithWorkerCount(c.Workers.Count))
	}
	return opts
}

// LogLevel returns the parsed log level, falling back to info.
func (c *Config) LogLevel() logger.Level {
	level, err := logger.ParseLevel(c.Log.Level)
	if err != nil {
		return logger.LevelInfo
	}
	return level
}
