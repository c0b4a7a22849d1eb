package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alnah/go-qrda2qpp/internal/fileutil"
	"github.com/alnah/go-qrda2qpp/internal/htmlreport"
	"github.com/alnah/go-qrda2qpp/internal/report"
)

// ErrInvalidReport is returned when the report command input is not an
// error report.
var ErrInvalidReport = errors.New("invalid error report")

// runReport renders a stored .err.json report as a standalone HTML page.
func runReport(ctx context.Context, positionalArgs []string, flags *reportFlags, env *Environment) error {
	if len(positionalArgs) != 1 {
		return fmt.Errorf("%w: report takes exactly one .err.json file, got %d", ErrUsage, len(positionalArgs))
	}
	path := positionalArgs[0]

	data, err := os.ReadFile(path) // #nosec G304 -- user-provided path
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReadFile, err)
	}
	all, err := report.Unmarshal(data)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidReport, path, err)
	}

	renderer, err := htmlreport.New()
	if err != nil {
		return err
	}
	page, err := renderer.Report(ctx, filepath.Base(path), all, data)
	if err != nil {
		return err
	}

	if flags.output == "" {
		_, err := env.Stdout.Write(page)
		return err
	}
	if err := fileutil.WriteAtomic(flags.output, page); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	if !flags.common.quiet {
		fmt.Fprintf(env.Stderr, "Created %s\n", flags.output)
	}
	return nil
}
