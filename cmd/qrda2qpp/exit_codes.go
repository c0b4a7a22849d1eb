package main

import (
	"errors"
	"os"

	qrda2qpp "github.com/alnah/go-qrda2qpp"
	"github.com/alnah/go-qrda2qpp/internal/config"
)

// Exit codes for the qrda2qpp CLI.
// Follows Unix conventions: 0=success, 1=general, 2=usage, and custom codes < 126.
const (
	ExitSuccess        = 0 // Every file converted
	ExitGeneral        = 1 // General/unexpected error
	ExitUsage          = 2 // Invalid flags, config or command
	ExitIO             = 3 // File not found, permission denied, write failure
	ExitValidation     = 4 // At least one file broke validation rules, or diff found changes
	ExitNonRecoverable = 5 // At least one file was not QRDA-III XML
)

// exitCodeFor returns the appropriate exit code for an error.
// It uses errors.Is to check wrapped errors, so callers must use fmt.Errorf("%w", err).
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	// I/O errors (exit 3) win: a result that could not be stored is worse
	// than one that was stored as an error report.
	if errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, os.ErrPermission) ||
		errors.Is(err, ErrReadFile) ||
		errors.Is(err, ErrWriteOutput) ||
		errors.Is(err, ErrNoFiles) ||
		errors.Is(err, qrda2qpp.ErrSinkWrite) ||
		errors.Is(err, qrda2qpp.ErrReadInput) {
		return ExitIO
	}

	// Conversion outcomes (exit 5, then 4)
	if errors.Is(err, ErrNonRecoverable) {
		return ExitNonRecoverable
	}
	if errors.Is(err, ErrValidationFailed) || errors.Is(err, ErrDiffMismatch) {
		return ExitValidation
	}

	// Usage/config errors (exit 2)
	if errors.Is(err, ErrUsage) ||
		errors.Is(err, ErrUnknownCommand) ||
		errors.Is(err, ErrNoInput) ||
		errors.Is(err, ErrInvalidWorkerCount) ||
		errors.Is(err, ErrInvalidExtension) ||
		errors.Is(err, ErrInvalidReport) ||
		errors.Is(err, ErrInvalidJSON) ||
		errors.Is(err, config.ErrConfigNotFound) ||
		errors.Is(err, config.ErrConfigParse) ||
		errors.Is(err, config.ErrEmptyConfigName) ||
		errors.Is(err, config.ErrInvalidValue) {
		return ExitUsage
	}

	return ExitGeneral
}
