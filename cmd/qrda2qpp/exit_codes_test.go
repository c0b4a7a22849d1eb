package main

// Notes:
// - exitCodeFor: we test every sentinel error from the CLI, the library and
//   the config package, plus wrapped and joined errors to verify the
//   errors.Is() chain and the priority between codes.
// - Exit code constants: we verify Unix conventions (0=success, 1=general, 2=usage)
//   and custom codes are below 126.
// These are acceptable gaps: we test observable behavior, not implementation details.

import (
	"errors"
	"fmt"
	"os"
	"testing"

	qrda2qpp "github.com/alnah/go-qrda2qpp"
	"github.com/alnah/go-qrda2qpp/internal/config"
)

// ---------------------------------------------------------------------------
// TestExitCodeFor - Error to exit code mapping
// ---------------------------------------------------------------------------

func TestExitCodeFor(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		err  error
		want int
	}{
		// Success
		{"nil error", nil, ExitSuccess},

		// I/O errors (exit 3)
		{"file not exist", os.ErrNotExist, ExitIO},
		{"permission denied", os.ErrPermission, ExitIO},
		{"read file", ErrReadFile, ExitIO},
		{"write output", ErrWriteOutput, ExitIO},
		{"no files", ErrNoFiles, ExitIO},
		{"sink write", qrda2qpp.ErrSinkWrite, ExitIO},
		{"read input", qrda2qpp.ErrReadInput, ExitIO},
		{"wrapped file not exist", fmt.Errorf("reading: %w", os.ErrNotExist), ExitIO},

		// Conversion outcomes (exit 5, 4)
		{"non recoverable", ErrNonRecoverable, ExitNonRecoverable},
		{"validation failed", ErrValidationFailed, ExitValidation},
		{"diff mismatch", ErrDiffMismatch, ExitValidation},

		// Usage/config errors (exit 2)
		{"usage", ErrUsage, ExitUsage},
		{"unknown command", ErrUnknownCommand, ExitUsage},
		{"no input", ErrNoInput, ExitUsage},
		{"invalid worker count", ErrInvalidWorkerCount, ExitUsage},
		{"invalid extension", ErrInvalidExtension, ExitUsage},
		{"invalid report", ErrInvalidReport, ExitUsage},
		{"invalid json", ErrInvalidJSON, ExitUsage},
		{"config not found", config.ErrConfigNotFound, ExitUsage},
		{"config parse", config.ErrConfigParse, ExitUsage},
		{"empty config name", config.ErrEmptyConfigName, ExitUsage},
		{"invalid config value", config.ErrInvalidValue, ExitUsage},
		{"wrapped config parse", fmt.Errorf("loading: %w", config.ErrConfigParse), ExitUsage},

		// Priority between joined errors
		{"io beats non recoverable", errors.Join(ErrNonRecoverable, fmt.Errorf("x: %w", ErrWriteOutput)), ExitIO},
		{"non recoverable beats validation", errors.Join(ErrValidationFailed, ErrNonRecoverable), ExitNonRecoverable},

		// General errors (exit 1)
		{"unknown error", errors.New("something unexpected"), ExitGeneral},
		{"internal error", qrda2qpp.ErrInternal, ExitGeneral},
		{"wrapped unknown", fmt.Errorf("context: %w", errors.New("unknown")), ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestExitCodeConstants - Exit code values
// ---------------------------------------------------------------------------

func TestExitCodeConstants(t *testing.T) {
	t.Parallel()

	if ExitSuccess != 0 {
		t.Errorf("ExitSuccess = %d, want 0", ExitSuccess)
	}
	if ExitGeneral != 1 {
		t.Errorf("ExitGeneral = %d, want 1", ExitGeneral)
	}
	if ExitUsage != 2 {
		t.Errorf("ExitUsage = %d, want 2", ExitUsage)
	}
	for _, code := range []int{ExitIO, ExitValidation, ExitNonRecoverable} {
		if code <= ExitUsage || code >= 126 {
			t.Errorf("custom exit code %d must be in (2, 126)", code)
		}
	}
}
