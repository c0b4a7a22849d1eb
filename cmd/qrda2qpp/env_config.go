package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alnah/go-qrda2qpp/internal/config"
)

// envPrefix starts every recognized environment variable.
const envPrefix = "QRDA2QPP_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath     string // QRDA2QPP_CONFIG: config file name or path
	OutputDir      string // QRDA2QPP_OUTPUT_DIR: output directory
	Workers        int    // QRDA2QPP_WORKERS: parallel workers
	LogLevel       string // QRDA2QPP_LOG_LEVEL: debug, info, warn, error
	LogFormat      string // QRDA2QPP_LOG_FORMAT: text, json
	SkipValidation bool   // QRDA2QPP_SKIP_VALIDATION: encode without validation
	HTMLReport     bool   // QRDA2QPP_HTML_REPORT: write HTML error reports
	NoColor        bool   // QRDA2QPP_NO_COLOR or NO_COLOR: plain output
}

// knownEnvVars lists valid QRDA2QPP_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"QRDA2QPP_CONFIG":          true,
	"QRDA2QPP_OUTPUT_DIR":      true,
	"QRDA2QPP_WORKERS":         true,
	"QRDA2QPP_LOG_LEVEL":       true,
	"QRDA2QPP_LOG_FORMAT":      true,
	"QRDA2QPP_SKIP_VALIDATION": true,
	"QRDA2QPP_HTML_REPORT":     true,
	"QRDA2QPP_NO_COLOR":        true,
}

// loadEnvConfig reads configuration from environment variables.
// Malformed numbers and booleans are ignored.
func loadEnvConfig(env *Environment) *envConfig {
	cfg := &envConfig{
		ConfigPath: env.getenv("QRDA2QPP_CONFIG"),
		OutputDir:  env.getenv("QRDA2QPP_OUTPUT_DIR"),
		LogLevel:   env.getenv("QRDA2QPP_LOG_LEVEL"),
		LogFormat:  env.getenv("QRDA2QPP_LOG_FORMAT"),
	}

	if workers := env.getenv("QRDA2QPP_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}
	cfg.SkipValidation = envBool(env.getenv("QRDA2QPP_SKIP_VALIDATION"))
	cfg.HTMLReport = envBool(env.getenv("QRDA2QPP_HTML_REPORT"))

	// NO_COLOR disables color whatever its value (https://no-color.org).
	cfg.NoColor = env.hasEnv("NO_COLOR") || envBool(env.getenv("QRDA2QPP_NO_COLOR"))

	return cfg
}

func envBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	return err == nil && b
}

// warnUnknownEnvVars writes a warning for every unrecognized QRDA2QPP_*
// variable. Helps catch typos like QRDA2QPP_WORKER.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, kv := range environ {
		if !strings.HasPrefix(kv, envPrefix) {
			continue
		}
		name, _, _ := strings.Cut(kv, "=")
		if !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig overlays environment values on a loaded config.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.OutputDir != "" {
		cfg.Output.Dir = env.OutputDir
	}
	if env.Workers > 0 {
		cfg.Workers = env.Workers
	}
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
	if env.LogFormat != "" {
		cfg.Log.Format = env.LogFormat
	}
	if env.SkipValidation {
		cfg.Conversion.SkipValidation = true
	}
	if env.HTMLReport {
		cfg.Output.HTMLReport = true
	}
}
