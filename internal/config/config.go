// Package config loads the converter's YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-qrda2qpp/internal/fileutil"
	"github.com/alnah/go-qrda2qpp/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrInvalidValue    = errors.New("invalid config value")
)

// AppDir is the directory name under os.UserConfigDir searched for configs.
const AppDir = "go-qrda2qpp"

// MaxWorkers caps the batch worker count.
const MaxWorkers = 256

// Log levels and formats accepted by the log section.
var (
	LogLevels  = []string{"debug", "info", "warn", "error"}
	LogFormats = []string{"text", "json"}
)

// Config holds all configuration for a conversion run.
type Config struct {
	Conversion ConversionConfig `yaml:"conversion"`
	Output     OutputConfig     `yaml:"output"`
	Log        LogConfig        `yaml:"log"`
	Workers    int              `yaml:"workers"` // 0 = GOMAXPROCS
}

// ConversionConfig toggles pipeline stages.
type ConversionConfig struct {
	SkipValidation bool `yaml:"skipValidation"`
	SkipDefaults   bool `yaml:"skipDefaults"`
}

// OutputConfig defines output destination options.
type OutputConfig struct {
	Dir        string `yaml:"dir"`        // empty = next to input
	HTMLReport bool   `yaml:"htmlReport"` // also write <name>.err.html
}

// LogConfig defines the CLI logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Validate checks enumerated values and ranges.
// Called automatically by LoadConfig, but available for callers
// who construct Config manually.
func (c *Config) Validate() error {
	if c.Log.Level != "" && !oneOf(c.Log.Level, LogLevels) {
		return fmt.Errorf("%w: log.level %q (must be one of %s)", ErrInvalidValue, c.Log.Level, strings.Join(LogLevels, ", "))
	}
	if c.Log.Format != "" && !oneOf(c.Log.Format, LogFormats) {
		return fmt.Errorf("%w: log.format %q (must be one of %s)", ErrInvalidValue, c.Log.Format, strings.Join(LogFormats, ", "))
	}
	if c.Workers < 0 || c.Workers > MaxWorkers {
		return fmt.Errorf("%w: workers must be between 0 and %d, got %d", ErrInvalidValue, MaxWorkers, c.Workers)
	}
	if strings.ContainsRune(c.Output.Dir, 0) {
		return fmt.Errorf("%w: output.dir contains a null byte", ErrInvalidValue)
	}
	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return true
		}
	}
	return false
}

// DefaultConfig returns the configuration used when no file is given:
// validation and default nodes on, outputs next to inputs, info text logs.
func DefaultConfig() *Config {
	return &Config{
		Conversion: ConversionConfig{SkipValidation: false, SkipDefaults: false},
		Output:     OutputConfig{Dir: "", HTMLReport: false},
		Log:        LogConfig{Level: "info", Format: "text"},
		Workers:    0,
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Keys missing from the file keep their DefaultConfig values.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.Decode(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SearchPaths lists the files resolveConfigPath tries for name, in order.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2) // 2 locations

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, AppDir, name+ext))
		}
	}
	return paths
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, <user config dir>/go-qrda2qpp/
func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
