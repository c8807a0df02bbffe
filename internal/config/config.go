// Package config loads and saves the optional YAML configuration file
// (spec §6.5): filter.*, performance.*, formats.*.*, debug.*, io.* keys.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"dsq/internal/ops"
)

// Filter holds filter-execution defaults (§7's error mode, timeout).
type Filter struct {
	ErrorMode string `yaml:"error_mode"` // "strict" | "collect" | "ignore"
	TimeoutMS int    `yaml:"timeout_ms"`
}

// Performance holds cache/worker tuning knobs.
type Performance struct {
	CacheSize int `yaml:"cache_size"`
	Workers   int `yaml:"workers"`
}

// FormatOptions holds per-format output knobs, keyed by format tag
// (formats.csv.delimiter, formats.json.indent, etc.).
type FormatOptions struct {
	Delimiter string `yaml:"delimiter,omitempty"`
	Indent    int    `yaml:"indent,omitempty"`
	Header    *bool  `yaml:"header,omitempty"`
}

// Debug holds diagnostics toggles.
type Debug struct {
	Enabled bool   `yaml:"enabled"`
	LogLevel string `yaml:"log_level"`
}

// IO holds default input/output behavior.
type IO struct {
	DefaultInputFormat  string `yaml:"default_input_format"`
	DefaultOutputFormat string `yaml:"default_output_format"`
	Pretty              bool   `yaml:"pretty"`
}

// Config is the root document persisted at Path().
type Config struct {
	Filter      Filter                    `yaml:"filter"`
	Performance Performance               `yaml:"performance"`
	Formats     map[string]FormatOptions  `yaml:"formats"`
	Debug       Debug                     `yaml:"debug"`
	IO          IO                        `yaml:"io"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Filter: Filter{
			ErrorMode: "strict",
			TimeoutMS: 0,
		},
		Performance: Performance{
			CacheSize: 1000,
			Workers:   0,
		},
		Formats: map[string]FormatOptions{},
		Debug: Debug{
			Enabled:  false,
			LogLevel: "info",
		},
		IO: IO{
			DefaultInputFormat:  "",
			DefaultOutputFormat: "",
			Pretty:              true,
		},
	}
}

// Path resolves the on-disk config file location, honoring $DSQ_CONFIG and
// otherwise defaulting to $XDG_CONFIG_HOME/dsq/config.yaml (or
// ~/.config/dsq/config.yaml).
func Path() (string, error) {
	if p := os.Getenv("DSQ_CONFIG"); p != "" {
		return p, nil
	}
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "dsq", "config.yaml"), nil
}

// Load reads the config file at path, returning Default() if it does not
// exist. An explicit path of "" resolves via Path().
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := Path()
		if err != nil {
			return nil, err
		}
		path = p
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config %q: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %q: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML to path (or the resolved default path), creating
// parent directories as needed.
func Save(cfg *Config, path string) error {
	if path == "" {
		p, err := Path()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ErrorMode translates the config's filter.error_mode string into an
// ops.ErrorMode, defaulting to strict for unrecognized or empty values.
func (c *Config) ErrorMode() ops.ErrorMode {
	switch c.Filter.ErrorMode {
	case "collect":
		return ops.ModeCollect
	case "ignore":
		return ops.ModeIgnore
	default:
		return ops.ModeStrict
	}
}
