package main

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	qrda2qpp "github.com/alnah/go-qrda2qpp"
	"github.com/alnah/go-qrda2qpp/internal/config"
	"github.com/alnah/go-qrda2qpp/internal/fileutil"
	"github.com/alnah/go-qrda2qpp/internal/hints"
	"github.com/alnah/go-qrda2qpp/internal/htmlreport"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage            = errors.New("invalid usage")
	ErrUnknownCommand   = errors.New("unknown command")
	ErrNoInput          = errors.New("no input specified")
	ErrNoFiles          = errors.New("no XML files found")
	ErrReadFile         = errors.New("failed to read file")
	ErrWriteOutput      = errors.New("failed to write output")
	ErrValidationFailed = errors.New("one or more files failed validation")
	ErrNonRecoverable   = errors.New("one or more files are not QRDA-III XML")
)

// runConvert orchestrates the conversion process.
func runConvert(ctx context.Context, positionalArgs []string, flags *convertFlags, env *Environment) error {
	envCfg := loadEnvConfig(env)
	warnUnknownEnvVars(env.Stderr, env.environ())

	cfg, err := resolveConfig(flags, envCfg)
	if err != nil {
		return err
	}

	if len(positionalArgs) == 0 {
		return fmt.Errorf("%w\n  hint: pass one or more .xml files or directories", ErrNoInput)
	}

	files, err := discoverFiles(positionalArgs, cfg.Output.Dir)
	if err != nil {
		return fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w in %v", ErrNoFiles, positionalArgs)
	}

	logger := newLogger(env.Stderr, cfg.Log, flags.common.quiet, flags.common.verbose)
	conv, err := qrda2qpp.New(
		qrda2qpp.WithValidation(!cfg.Conversion.SkipValidation),
		qrda2qpp.WithDefaults(!cfg.Conversion.SkipDefaults),
		qrda2qpp.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	var renderer *htmlreport.Renderer
	if cfg.Output.HTMLReport {
		if renderer, err = htmlreport.New(); err != nil {
			return err
		}
	}

	workers := resolveWorkers(cfg.Workers)
	logger.Debug("starting conversion", "files", len(files), "workers", workers)

	b := &batch{conv: conv, reports: renderer, workers: workers, now: env.Now}
	results := b.run(ctx, files)

	pal := newPalette(colorEnabled(env.Stdout, flags.common.noColor || envCfg.NoColor))
	printResultsWithWriter(results, flags.common.quiet, flags.common.verbose, pal, env)
	return batchError(results)
}

// resolveConfig loads the config file, then applies environment values and
// CLI flags on top. Precedence: CLI flags > env vars > config file > defaults.
func resolveConfig(flags *convertFlags, envCfg *envConfig) (*config.Config, error) {
	cfg := config.DefaultConfig()

	name := flags.config
	if name == "" {
		name = envCfg.ConfigPath
	}
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) && !fileutil.IsFilePath(name) {
				return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(config.SearchPaths(name)))
			}
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)

	if err := validateWorkers(cfg.Workers); err != nil {
		return nil, fmt.Errorf("%w%s", err, hints.ForWorkers(config.MaxWorkers))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFlags merges CLI flags into config. Flags given on the command line
// override config values, including explicit zero values.
func mergeFlags(flags *convertFlags, cfg *config.Config) {
	if flags.set["output"] {
		cfg.Output.Dir = flags.output
	}
	if flags.set["workers"] {
		cfg.Workers = flags.workers
	}
	if flags.set["skip-validation"] {
		cfg.Conversion.SkipValidation = flags.skipValidation
	}
	if flags.set["skip-defaults"] {
		cfg.Conversion.SkipDefaults = flags.skipDefaults
	}
	if flags.set["html-report"] {
		cfg.Output.HTMLReport = flags.htmlReport
	}
	if flags.set["log-level"] {
		cfg.Log.Level = flags.logLevel
	}
	if flags.set["log-format"] {
		cfg.Log.Format = flags.logFormat
	}
}

// resolveWorkers determines the batch concurrency. Conversion is CPU-bound,
// so auto uses GOMAXPROCS (adjusted by automaxprocs for containers).
func resolveWorkers(n int) int {
	if n > 0 {
		return n
	}
	return max(1, runtime.GOMAXPROCS(0))
}

// batchError summarizes failed conversions as one error carrying every
// sentinel that applies, so exitCodeFor picks the most severe.
func batchError(results []ConversionResult) error {
	summary := countResults(results)
	var errs []error
	if summary.Failed > 0 {
		var first error
		for _, r := range results {
			if r.Err != nil {
				first = r.Err
				break
			}
		}
		errs = append(errs, fmt.Errorf("%d file(s) could not be processed: %w", summary.Failed, first))
	}
	if summary.Rejected > 0 {
		errs = append(errs, fmt.Errorf("%w: %d file(s)", ErrNonRecoverable, summary.Rejected))
	}
	if summary.Invalid > 0 {
		errs = append(errs, fmt.Errorf("%w: %d file(s)", ErrValidationFailed, summary.Invalid))
	}
	return errors.Join(errs...)
}
