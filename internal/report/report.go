// Package report defines the validation error report written when a
// document cannot be converted.
package report

import (
	"encoding/json"
	"fmt"
)

// ValidationError is one problem found in a document.
type ValidationError struct {
	ErrorText string `json:"errorText"`
	Path      string `json:"path,omitempty"`
}

// New returns a ValidationError for the given message and node path.
func New(text, path string) ValidationError {
	return ValidationError{ErrorText: text, Path: path}
}

// Newf formats the message with args.
func Newf(path, format string, args ...any) ValidationError {
	return ValidationError{ErrorText: fmt.Sprintf(format, args...), Path: path}
}

func (e ValidationError) String() string {
	if e.Path == "" {
		return e.ErrorText
	}
	return e.ErrorText + " (" + e.Path + ")"
}

// ErrorSource groups the errors of one input.
type ErrorSource struct {
	SourceIdentifier string            `json:"sourceIdentifier"`
	ValidationErrors []ValidationError `json:"validationErrors"`
}

// AllErrors is the top-level error report.
type AllErrors struct {
	ErrorSources []ErrorSource `json:"errorSources"`
}

// For builds a single-source report.
func For(source string, errs []ValidationError) *AllErrors {
	a := &AllErrors{}
	a.Add(source, errs...)
	return a
}

// Add appends a source to the report. A source without errors still
// serializes its list as [].
func (a *AllErrors) Add(source string, errs ...ValidationError) {
	if errs == nil {
		errs = []ValidationError{}
	}
	a.ErrorSources = append(a.ErrorSources, ErrorSource{
		SourceIdentifier: source,
		ValidationErrors: errs,
	})
}

// Count returns the total number of validation errors.
func (a *AllErrors) Count() int {
	if a == nil {
		return 0
	}
	n := 0
	for _, s := range a.ErrorSources {
		n += len(s.ValidationErrors)
	}
	return n
}

// Texts returns every error message in report order.
func (a *AllErrors) Texts() []string {
	if a == nil {
		return nil
	}
	var out []string
	for _, s := range a.ErrorSources {
		for _, e := range s.ValidationErrors {
			out = append(out, e.ErrorText)
		}
	}
	return out
}

// Marshal renders the report as indented JSON.
func Marshal(a *AllErrors) ([]byte, error) {
	data, err := json.MarshalIndent(a, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("marshaling error report: %w", err)
	}
	return data, nil
}

// Unmarshal parses a report previously written by Marshal.
func Unmarshal(data []byte) (*AllErrors, error) {
	var a AllErrors
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parsing error report: %w", err)
	}
	return &a, nil
}
