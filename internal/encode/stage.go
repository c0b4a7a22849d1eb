// Package encode renders a validated node tree as QPP JSON.
package encode

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/alnah/go-qrda2qpp/internal/jsonw"
	"github.com/alnah/go-qrda2qpp/internal/node"
	"github.com/alnah/go-qrda2qpp/internal/registry"
	"github.com/alnah/go-qrda2qpp/internal/template"
)

// Sentinel causes carried by EncodeError.
var (
	ErrNoEncoder    = errors.New("no encoder registered")
	ErrMissingChild = errors.New("required child node is missing")
	ErrBadValue     = errors.New("node value cannot be encoded")
	ErrNoDocument   = errors.New("tree has no clinical document")
)

// EncodeError reports a precondition that validation should have caught.
// It is an internal failure, not a problem with the input.
type EncodeError struct {
	Kind template.Kind
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encoding %s at %s: %v", e.Kind, e.Path, e.Err)
}

func (e *EncodeError) Unwrap() error {
	return e.Err
}

func encodeErr(n node.Node, err error) *EncodeError {
	return &EncodeError{Kind: n.Kind(), Path: n.Path(), Err: err}
}

// Compile-time interface check.
var _ registry.Emitter = (*Stage)(nil)

// Stage encodes trees through the registry.
type Stage struct {
	reg    *registry.Registry
	logger *slog.Logger
}

// NewStage returns an encode stage backed by reg. A nil logger discards
// output.
func NewStage(reg *registry.Registry, logger *slog.Logger) *Stage {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Stage{reg: reg, logger: logger}
}

// Encode renders the first clinical document root of tree.
func (s *Stage) Encode(tree *node.Tree) (*jsonw.Object, error) {
	for _, root := range tree.Roots() {
		if root.Kind() == template.ClinicalDocument {
			return s.EncodeNode(root)
		}
	}
	return nil, &EncodeError{Kind: template.ClinicalDocument, Path: "/", Err: ErrNoDocument}
}

// EncodeNode renders one node with the encoder bound to its kind.
func (s *Stage) EncodeNode(n node.Node) (*jsonw.Object, error) {
	enc, ok := s.reg.Encoder(n.Kind())
	if !ok {
		return nil, encodeErr(n, ErrNoEncoder)
	}
	out := jsonw.New()
	if err := enc.Encode(s, n, out); err != nil {
		var ee *EncodeError
		if !errors.As(err, &ee) {
			err = encodeErr(n, err)
		}
		return nil, err
	}
	return out, nil
}
