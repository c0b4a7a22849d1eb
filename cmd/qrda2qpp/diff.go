package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	jsonpatch "github.com/evanphx/json-patch"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"

	qrda2qpp "github.com/alnah/go-qrda2qpp"
)

// Sentinel errors for the diff command.
var (
	ErrInvalidJSON  = errors.New("input is not valid JSON")
	ErrDiffMismatch = errors.New("documents differ")
)

// runDiff compares two QPP JSON documents semantically. Key order and
// whitespace are ignored. An .xml argument is converted first and its
// stored payload (output or error report) is compared. On mismatch it
// prints the RFC 7386 merge patch that turns the first document into the
// second, then a line diff.
func runDiff(ctx context.Context, positionalArgs []string, flags *diffFlags, env *Environment) error {
	if len(positionalArgs) != 2 {
		return fmt.Errorf("%w: diff takes exactly two files, got %d", ErrUsage, len(positionalArgs))
	}

	var conv *qrda2qpp.Converter
	docs := make([][]byte, 2)
	for i, path := range positionalArgs {
		data, err := os.ReadFile(path) // #nosec G304 -- user-provided path
		if err != nil {
			return fmt.Errorf("%w: %w", ErrReadFile, err)
		}

		if isXML(path) {
			if conv == nil {
				if conv, err = qrda2qpp.New(); err != nil {
					return err
				}
			}
			res, err := conv.Convert(ctx, qrda2qpp.Input{Source: filepath.Base(path), Data: data})
			if err != nil {
				return fmt.Errorf("converting %s: %w", path, err)
			}
			data = res.Payload()
		}

		if docs[i], err = normalizeJSON(data); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidJSON, path, err)
		}
	}

	if jsonpatch.Equal(docs[0], docs[1]) {
		if !flags.common.quiet {
			fmt.Fprintln(env.Stdout, "documents are equivalent")
		}
		return nil
	}

	if !flags.common.quiet {
		patch, err := jsonpatch.CreateMergePatch(docs[0], docs[1])
		if err != nil {
			return fmt.Errorf("creating merge patch: %w", err)
		}
		pal := newPalette(colorEnabled(env.Stdout, flags.common.noColor || env.hasEnv("NO_COLOR")))
		fmt.Fprintf(env.Stdout, "merge patch: %s\n\n", patch)
		printLineDiff(env.Stdout, pal, string(docs[0]), string(docs[1]))
	}
	return fmt.Errorf("%w: %s and %s", ErrDiffMismatch, positionalArgs[0], positionalArgs[1])
}

// normalizeJSON re-indents data with sorted object keys so line diffs
// only show real changes.
func normalizeJSON(data []byte) ([]byte, error) {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON value")
	}
	return json.MarshalIndent(v, "", "  ")
}

// printLineDiff writes a unified-style line diff of a and b.
func printLineDiff(w io.Writer, pal *palette, a, b string) {
	dmp := diffpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(ca, cb, false), lines)

	for _, d := range diffs {
		prefix, c := "  ", pal.faint
		switch d.Type {
		case diffpatch.DiffInsert:
			prefix, c = "+ ", pal.ok
		case diffpatch.DiffDelete:
			prefix, c = "- ", pal.fail
		case diffpatch.DiffEqual:
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			fmt.Fprint(w, c.Sprint(prefix+strings.TrimSuffix(line, "\n")), "\n")
		}
	}
}
