package qrda2qpp

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/alnah/go-qrda2qpp/internal/fileutil"
)

// Sink stores conversion results.
type Sink interface {
	Write(r *Result) error
}

// FileSink writes <name>.qpp.json on success and <name>.err.json otherwise
// into Dir. A stale file of the opposite kind from an earlier run is
// removed so a directory never holds both for one source.
type FileSink struct {
	Dir string
}

var _ Sink = (*FileSink)(nil)

// Write stores r atomically.
func (s *FileSink) Write(r *Result) error {
	if err := fileutil.ValidateName(fileutil.BaseName(r.Source)); err != nil {
		return err
	}
	if s.Dir != "" {
		if err := os.MkdirAll(s.Dir, fileutil.DirPermissions); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}

	path, stale := s.Paths(r)
	if err := fileutil.WriteAtomic(path, r.Payload()); err != nil {
		return err
	}
	if err := os.Remove(stale); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing stale %s: %w", stale, err)
	}
	return nil
}

// Paths returns the file r is written to and the opposite-kind file that
// Write removes.
func (s *FileSink) Paths(r *Result) (path, stale string) {
	out := fileutil.OutputPath(s.Dir, r.Source)
	errPath := fileutil.ErrorPath(s.Dir, r.Source)
	if r.Status == Success {
		return out, errPath
	}
	return errPath, out
}

// Transform converts input and stores the result in sink. A sink failure
// is returned wrapped in ErrSinkWrite alongside the result, whose status
// still reflects the conversion itself.
func (c *Converter) Transform(ctx context.Context, input Input, sink Sink) (*Result, error) {
	if sink == nil {
		return nil, ErrNilSink
	}
	result, convErr := c.Convert(ctx, input)
	if result == nil {
		return nil, convErr
	}
	// A recovered panic still yields an error report worth storing.
	if err := sink.Write(result); err != nil {
		err = fmt.Errorf("%w: %s: %w", ErrSinkWrite, input.Source, err)
		c.logger.Error("could not store result", "source", input.Source, "status", result.Status.String(), "error", err)
		return result, errors.Join(convErr, err)
	}
	return result, convErr
}
