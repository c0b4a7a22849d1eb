package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	qrda2qpp "github.com/alnah/go-qrda2qpp"
	"github.com/alnah/go-qrda2qpp/internal/fileutil"
	"github.com/alnah/go-qrda2qpp/internal/hints"
	"github.com/alnah/go-qrda2qpp/internal/htmlreport"
)

// CLIConverter is the interface for the conversion service.
type CLIConverter interface {
	Transform(ctx context.Context, input qrda2qpp.Input, sink qrda2qpp.Sink) (*qrda2qpp.Result, error)
}

// Compile-time interface implementation check.
var _ CLIConverter = (*qrda2qpp.Converter)(nil)

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	// ReportPath is the HTML report written for a failed conversion.
	ReportPath string
	Status     qrda2qpp.TransformationStatus
	ErrorCount int
	// Message is the first report entry, shown for rejected files.
	Message string
	Err        error
	Duration   time.Duration
}

// batch converts files concurrently with one shared converter.
type batch struct {
	conv    CLIConverter
	reports *htmlreport.Renderer // nil disables HTML reports
	workers int
	now     func() time.Time
}

// run converts files with at most b.workers in flight. Results keep the
// order of files.
func (b *batch) run(ctx context.Context, files []FileToConvert) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	results := make([]ConversionResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(b.workers, len(files))))

	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = ConversionResult{InputPath: f.InputPath, Err: err}
				return nil
			}
			results[i] = b.convertFile(gctx, f)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors; failures live in results
	return results
}

// convertFile processes a single file and returns the result.
func (b *batch) convertFile(ctx context.Context, f FileToConvert) (result ConversionResult) {
	start := b.clock()
	result = ConversionResult{InputPath: f.InputPath}
	defer func() { result.Duration = b.clock().Sub(start) }()

	data, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered path
	if err != nil {
		result.Err = fmt.Errorf("%w: %w", ErrReadFile, err)
		return result
	}

	sink := &qrda2qpp.FileSink{Dir: f.OutputDir}
	source := filepath.Base(f.InputPath)
	res, err := b.conv.Transform(ctx, qrda2qpp.Input{Source: source, Data: data}, sink)
	if res == nil {
		result.Err = err
		return result
	}

	result.Status = res.Status
	result.OutputPath, _ = sink.Paths(res)
	if res.Errors != nil {
		result.ErrorCount = res.Errors.Count()
		if texts := res.Errors.Texts(); len(texts) > 0 {
			result.Message = texts[0]
		}
	}
	if err != nil {
		if errors.Is(err, qrda2qpp.ErrSinkWrite) {
			err = fmt.Errorf("%w%s", err, hints.ForOutputDirectory())
		}
		result.Err = err
		return result
	}

	if b.reports != nil {
		result.ReportPath, result.Err = b.writeReport(ctx, f.OutputDir, res)
	}
	return result
}

// writeReport writes the HTML rendering of a failed result next to its
// JSON report, or removes a stale one after a success.
func (b *batch) writeReport(ctx context.Context, dir string, res *qrda2qpp.Result) (string, error) {
	path := fileutil.ReportPath(dir, res.Source)
	if res.Status == qrda2qpp.Success {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: removing stale %s: %w", ErrWriteOutput, path, err)
		}
		return "", nil
	}

	page, err := b.reports.Report(ctx, res.Source, res.Errors, res.ErrorJSON)
	if err != nil {
		return "", fmt.Errorf("rendering report for %s: %w", res.Source, err)
	}
	if err := fileutil.WriteAtomic(path, page); err != nil {
		return "", fmt.Errorf("%w: %w", ErrWriteOutput, err)
	}
	return path, nil
}

func (b *batch) clock() time.Time {
	if b.now == nil {
		return time.Now()
	}
	return b.now()
}

// ResultSummary holds conversion counts per outcome.
type ResultSummary struct {
	Succeeded int
	Invalid   int // ValidationError
	Rejected  int // NonRecoverable
	Failed    int // could not be read, converted or stored
}

// countResults tallies conversion outcomes.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		switch {
		case r.Err != nil:
			summary.Failed++
		case r.Status == qrda2qpp.Success:
			summary.Succeeded++
		case r.Status == qrda2qpp.ValidationError:
			summary.Invalid++
		default:
			summary.Rejected++
		}
	}
	return summary
}

// printResultsWithWriter outputs conversion results using the provided writers.
// Failures always go to stderr; quiet only hides successes and the summary.
func printResultsWithWriter(results []ConversionResult, quiet, verbose bool, pal *palette, env *Environment) {
	for _, r := range results {
		switch {
		case r.Err != nil:
			fmt.Fprintf(env.Stderr, "%s %s: %v\n", pal.fail.Sprint("FAILED"), r.InputPath, r.Err)
		case r.Status == qrda2qpp.Success:
			if quiet {
				continue
			}
			if verbose {
				fmt.Fprintf(env.Stdout, "%s %s -> %s %s\n", pal.ok.Sprint("OK"), r.InputPath, r.OutputPath,
					pal.faint.Sprintf("(%v)", r.Duration.Round(time.Millisecond)))
			} else {
				fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
			}
		case r.Status == qrda2qpp.ValidationError:
			fmt.Fprintf(env.Stderr, "%s %s: %d error(s)%s\n", pal.warn.Sprint("INVALID"), r.InputPath, r.ErrorCount,
				hints.ForValidation(r.OutputPath))
			if r.ReportPath != "" {
				fmt.Fprintf(env.Stderr, "  report: %s\n", r.ReportPath)
			}
		default:
			fmt.Fprintf(env.Stderr, "%s %s: %s%s\n", pal.fail.Sprint("REJECTED"), r.InputPath, r.Message,
				rejectionHint(r))
		}
	}

	if !quiet && len(results) > 1 {
		s := countResults(results)
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d invalid, %d rejected, %d failed\n",
			s.Succeeded, s.Invalid, s.Rejected, s.Failed)
	}
}

// rejectionHint explains why a file was not converted at all.
func rejectionHint(r ConversionResult) string {
	switch r.Message {
	case qrda2qpp.NotValidXMLDocument:
		return hints.ForInvalidXML()
	case qrda2qpp.NotQRDADocument:
		return hints.ForNotQRDA()
	default:
		return hints.ForValidation(r.OutputPath)
	}
}
