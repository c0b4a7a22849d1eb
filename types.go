package qrda2qpp

import (
	"io"

	"github.com/alnah/go-qrda2qpp/internal/report"
)

// TransformationStatus is the terminal outcome of one conversion.
type TransformationStatus int

const (
	// Success means the document validated and encoded.
	Success TransformationStatus = iota
	// ValidationError means the document broke one or more rules.
	ValidationError
	// NonRecoverable means conversion stopped before validation could
	// run, or failed internally.
	NonRecoverable
)

func (s TransformationStatus) String() string {
	switch s {
	case Success:
		return "success"
	case ValidationError:
		return "validation_error"
	case NonRecoverable:
		return "non_recoverable"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s TransformationStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Report types are shared with the internal stages.
type (
	// DocumentError is one problem found in a document.
	DocumentError = report.ValidationError
	// ErrorSource groups the errors of one input.
	ErrorSource = report.ErrorSource
	// AllErrors is the error report written for a failed conversion.
	AllErrors = report.AllErrors
)

// Input is one document to convert.
type Input struct {
	// Source identifies the document in error reports and output names,
	// typically its file name.
	Source string
	// Data holds the document. When nil, Reader is read instead.
	Data []byte
	// Reader supplies the document when Data is nil.
	Reader io.Reader
}

// Result is the outcome of Convert.
type Result struct {
	Status TransformationStatus
	Source string
	// Output is the QPP JSON document. Set only on Success.
	Output []byte
	// Errors is the structured error report. Nil on Success.
	Errors *AllErrors
	// ErrorJSON is the serialized error report, or the fixed fallback
	// payload when the report itself could not be serialized.
	ErrorJSON []byte
	// Cause is the underlying failure for NonRecoverable results.
	Cause error
}

// Payload returns the bytes a sink should store: the output document on
// success, the error report otherwise.
func (r *Result) Payload() []byte {
	if r.Status == Success {
		return r.Output
	}
	return r.ErrorJSON
}
