package qrda2qpp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/alnah/go-qrda2qpp/internal/decode"
	"github.com/alnah/go-qrda2qpp/internal/encode"
	"github.com/alnah/go-qrda2qpp/internal/jsonw"
	"github.com/alnah/go-qrda2qpp/internal/node"
	"github.com/alnah/go-qrda2qpp/internal/registry"
	"github.com/alnah/go-qrda2qpp/internal/report"
	"github.com/alnah/go-qrda2qpp/internal/validate"
)

// documentDecoder builds a node tree from raw markup.
type documentDecoder interface {
	Decode(data []byte) (*decode.Result, error)
}

// treeValidator checks a decoded tree.
type treeValidator interface {
	Validate(tree *node.Tree) []report.ValidationError
}

// treeEncoder renders a validated tree.
type treeEncoder interface {
	Encode(tree *node.Tree) (*jsonw.Object, error)
}

// Compile-time interface implementation checks.
var (
	_ documentDecoder = (*decode.Stage)(nil)
	_ treeValidator   = (*validate.Stage)(nil)
	_ treeEncoder     = (*encode.Stage)(nil)
)

// Converter runs the decode, validate and encode pipeline. It holds no
// per-document state: one Converter may serve concurrent Convert calls.
type Converter struct {
	cfg       converterConfig
	logger    *slog.Logger
	registry  *registry.Registry
	decoder   documentDecoder
	validator treeValidator
	encoder   treeEncoder

	marshalOutput func(*jsonw.Object) ([]byte, error)
	marshalReport func(*report.AllErrors) ([]byte, error)
}

// New creates a Converter with validation and default-node substitution
// enabled. Returns an error if the measure catalogue or the template
// registry cannot be built.
func New(opts ...Option) (*Converter, error) {
	c := &Converter{
		cfg:           converterConfig{validation: true, defaults: true},
		logger:        slog.New(slog.DiscardHandler),
		marshalOutput: jsonw.Indent,
		marshalReport: report.Marshal,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.registry == nil {
		reg, err := defaultRegistry()
		if err != nil {
			return nil, err
		}
		c.registry = reg
	}

	// Stages not injected by tests are built from the registry.
	if c.decoder == nil {
		c.decoder = decode.NewStage(c.registry,
			decode.WithDefaults(c.cfg.defaults),
			decode.WithLogger(c.logger),
		)
	}
	if c.validator == nil {
		c.validator = validate.NewStage(c.registry, c.logger)
	}
	if c.encoder == nil {
		c.encoder = encode.NewStage(c.registry, c.logger)
	}
	return c, nil
}

// Convert runs the pipeline on one document. Conversion outcomes,
// including invalid documents, are reported through Result.Status; the
// error return is reserved for unreadable input, cancellation before
// start, and recovered panics.
//
// Stages run synchronously and are not interrupted once started.
func (c *Converter) Convert(ctx context.Context, input Input) (result *Result, err error) {
	source := input.Source
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInternal, r)
			c.logger.Error("conversion panicked", "source", source, "error", err)
			result = c.failure(source, []report.ValidationError{report.New(UnexpectedError, "")}, err)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := readInput(input)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("decoding", "source", source, "bytes", len(data))
	decoded, err := c.decoder.Decode(data)
	if err != nil {
		return c.decodeFailure(source, err), nil
	}
	for _, issue := range decoded.Issues {
		c.logger.Warn("decode issue", "source", source, "kind", issue.Kind.String(), "path", issue.Path, "error", issue.Err)
	}

	if c.cfg.validation {
		errs := c.validator.Validate(decoded.Tree)
		if len(errs) > 0 {
			c.logger.Info("validation failed", "source", source, "errors", len(errs))
			return c.report(ValidationError, source, errs, nil), nil
		}
	}

	obj, err := c.encoder.Encode(decoded.Tree)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrEncode, err)
		c.logger.Error("encoder failed on validated document", "source", source, "error", err)
		return c.failure(source, []report.ValidationError{report.New(UnexpectedError, "")}, err), nil
	}

	out, err := c.marshalOutput(obj)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrEncode, err)
		c.logger.Error("marshaling output", "source", source, "error", err)
		return c.failure(source, []report.ValidationError{report.New(UnexpectedError, "")}, err), nil
	}

	c.logger.Debug("converted", "source", source, "bytes", len(out))
	return &Result{Status: Success, Source: source, Output: out}, nil
}

func readInput(input Input) ([]byte, error) {
	if input.Data != nil || input.Reader == nil {
		return input.Data, nil
	}
	data, err := io.ReadAll(input.Reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadInput, err)
	}
	return data, nil
}

func (c *Converter) decodeFailure(source string, err error) *Result {
	switch {
	case errors.Is(err, decode.ErrMissingDocument):
		c.logger.Info("not a QRDA-III document", "source", source)
		return c.failure(source, []report.ValidationError{report.New(NotQRDADocument, "")}, fmt.Errorf("%w: %v", ErrNotQRDA, err))
	default:
		c.logger.Info("not a valid XML document", "source", source, "error", err)
		return c.failure(source, []report.ValidationError{report.New(NotValidXMLDocument, "")}, fmt.Errorf("%w: %v", ErrInvalidDocument, err))
	}
}

func (c *Converter) failure(source string, errs []report.ValidationError, cause error) *Result {
	return c.report(NonRecoverable, source, errs, cause)
}

// report builds an error result. When the report cannot be serialized,
// the fixed last-resort payload is used instead.
func (c *Converter) report(status TransformationStatus, source string, errs []report.ValidationError, cause error) *Result {
	all := report.For(source, errs)
	data, err := c.marshalReport(all)
	if err != nil {
		c.logger.Error("marshaling error report", "source", source, "error", err)
		data = exceptionPayload(err)
	}
	return &Result{
		Status:    status,
		Source:    source,
		Errors:    all,
		ErrorJSON: data,
		Cause:     cause,
	}
}

// exceptionPayload renders { "exception": "<kind>" } naming the type of the
// innermost wrapped error.
func exceptionPayload(err error) []byte {
	for {
		inner := errors.Unwrap(err)
		if inner == nil {
			break
		}
		err = inner
	}
	kind := fmt.Sprintf("%T", err)
	kind = strings.TrimPrefix(kind, "*")
	if i := strings.LastIndexByte(kind, '.'); i >= 0 {
		kind = kind[i+1:]
	}
	var b bytes.Buffer
	b.WriteString(`{ "exception": "`)
	b.WriteString(kind)
	b.WriteString(`" }`)
	return b.Bytes()
}
