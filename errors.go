package qrda2qpp

import "errors"

// Sentinel errors for library operations.
var (
	// ErrInvalidDocument means the input is not well-formed XML.
	ErrInvalidDocument = errors.New("input is not a valid XML document")
	// ErrNotQRDA means no element carries a QRDA-III document template.
	ErrNotQRDA = errors.New("input is not a QRDA-III document")
	// ErrEncode wraps encoder failures. They indicate a rule validation
	// should have enforced.
	ErrEncode = errors.New("encoding failed")
	// ErrInternal wraps recovered panics.
	ErrInternal = errors.New("internal error")
	// ErrSinkWrite wraps failures to store a result. It is distinct from
	// conversion outcomes.
	ErrSinkWrite = errors.New("failed to write conversion result")
	// ErrReadInput wraps failures reading Input.Reader.
	ErrReadInput = errors.New("failed to read input")
	// ErrNilSink is returned by Transform when no sink is given.
	ErrNilSink = errors.New("sink cannot be nil")
)

// Messages placed in error reports for conditions that stop conversion
// before validation.
const (
	NotValidXMLDocument = "The file is not a valid XML document"
	NotQRDADocument     = "The file is not a QRDA-III XML document"
	UnexpectedError     = "Unexpected exception occurred during conversion"
)
