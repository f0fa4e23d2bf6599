// Package config loads CLI settings from defaults, an optional YAML file and
// CALCULATORS_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-calculator/internal/logging"
	"github.com/goliatone/go-calculator/pkg/harness"
)

// EnvPrefix is prepended to every environment override, for example
// CALCULATORS_CATALOG_DIR or CALCULATORS_LOG_LEVEL.
const EnvPrefix = "CALCULATORS"

// Config is the complete CLI configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log" yaml:"log" json:"log"`
	Catalog CatalogConfig `mapstructure:"catalog" yaml:"catalog" json:"catalog"`
	Harness HarnessConfig `mapstructure:"harness" yaml:"harness" json:"harness"`
	Output  OutputConfig  `mapstructure:"output" yaml:"output" json:"output"`
}

// LogConfig configures internal/logging.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// CatalogConfig selects where calculator definitions come from. An empty Dir
// uses the embedded catalog.
type CatalogConfig struct {
	Dir              string `mapstructure:"dir" yaml:"dir" json:"dir"`
	RejectDuplicates bool   `mapstructure:"reject_duplicates" yaml:"reject_duplicates" json:"reject_duplicates"`
}

// HarnessConfig tunes the example harness.
type HarnessConfig struct {
	Tolerance float64 `mapstructure:"tolerance" yaml:"tolerance" json:"tolerance"`
}

// OutputConfig selects the report format: text, json or yaml.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "warn",
			Format: logging.FormatConsole,
		},
		Harness: HarnessConfig{
			Tolerance: harness.DefaultTolerance,
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}

// Load builds a Config. path may be empty, in which case only defaults and
// the environment apply; a non-empty path must point at a readable YAML file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path = strings.TrimSpace(path); path != "" {
		v.SetConfigFile(expandPath(path))
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.Catalog.Dir = expandPath(cfg.Catalog.Dir)
	return &cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("catalog.dir", cfg.Catalog.Dir)
	v.SetDefault("catalog.reject_duplicates", cfg.Catalog.RejectDuplicates)
	v.SetDefault("harness.tolerance", cfg.Harness.Tolerance)
	v.SetDefault("output.format", cfg.Output.Format)
}

// Validate checks the configuration for values the CLI cannot honour.
func (c *Config) Validate() error {
	var errs []error
	if err := logging.Validate(c.Log.Level, c.Log.Format); err != nil {
		errs = append(errs, err)
	}
	if c.Harness.Tolerance < 0 || math.IsNaN(c.Harness.Tolerance) || math.IsInf(c.Harness.Tolerance, 0) {
		errs = append(errs, fmt.Errorf("config: harness.tolerance must be a finite non-negative number, got %v", c.Harness.Tolerance))
	}
	switch strings.ToLower(c.Output.Format) {
	case "text", "json", "yaml":
	default:
		errs = append(errs, fmt.Errorf("config: invalid output.format %q, must be one of: text, json, yaml", c.Output.Format))
	}
	if c.Catalog.Dir != "" {
		info, err := os.Stat(c.Catalog.Dir)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("config: catalog.dir: %w", err))
		case !info.IsDir():
			errs = append(errs, fmt.Errorf("config: catalog.dir %s is not a directory", c.Catalog.Dir))
		}
	}
	return errors.Join(errs...)
}

// Save writes c as YAML to path, creating parent directories.
func (c *Config) Save(path string) error {
	path = expandPath(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
