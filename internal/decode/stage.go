// Package decode turns QRDA-III markup into a template-tagged node tree.
//
// The stage walks the XML depth-first. Elements whose templateId resolves
// to a registered decoder become nodes; every other element is skipped
// while its descendants are still searched, so unrecognized markup between
// recognized elements does not affect decoding.
package decode

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/beevik/etree"

	"github.com/alnah/go-qrda2qpp/internal/node"
	"github.com/alnah/go-qrda2qpp/internal/registry"
	"github.com/alnah/go-qrda2qpp/internal/template"
)

// Sentinel errors for fatal decode conditions.
var (
	ErrInvalidXML      = errors.New("input is not well-formed XML")
	ErrMissingDocument = errors.New("no clinical document template found")
	ErrValueType       = errors.New("unexpected value type")
)

// DecodeError reports a decoder failure for one element. It never aborts
// the stage.
type DecodeError struct {
	Kind template.Kind
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding %s at %s: %v", e.Kind, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Result is the outcome of a successful decode.
type Result struct {
	Tree *node.Tree
	// Issues lists decoder failures that were absorbed.
	Issues []*DecodeError
}

// Stage decodes documents using a registry. A Stage is safe for
// concurrent use; each Decode call owns its tree.
type Stage struct {
	reg      *registry.Registry
	defaults bool
	logger   *slog.Logger
}

// Option configures a Stage.
type Option func(*Stage)

// WithDefaults controls default-node substitution. When enabled, elements
// with an unknown templateId inside the document become default nodes and
// a failing decoder turns its node into a default node.
func WithDefaults(enabled bool) Option {
	return func(s *Stage) {
		s.defaults = enabled
	}
}

// WithLogger sets the logger for absorbed decode failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Stage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStage returns a decode stage backed by reg.
func NewStage(reg *registry.Registry, opts ...Option) *Stage {
	s := &Stage{
		reg:      reg,
		defaults: true,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Decode parses data and builds the node tree. It fails only when data is
// not well-formed XML or carries no clinical document template.
func (s *Stage) Decode(data []byte) (*Result, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidXML, err)
	}
	root := doc.Root()
	if root == nil {
		return nil, ErrInvalidXML
	}
	if !containsDocument(root) {
		return nil, ErrMissingDocument
	}

	w := &walker{stage: s, tree: node.NewTree()}
	w.element(root, node.Node{})
	return &Result{Tree: w.tree, Issues: w.issues}, nil
}

// containsDocument reports whether any element declares a clinical
// document templateId.
func containsDocument(el *etree.Element) bool {
	for _, id := range templateIDs(el) {
		if template.IsDocument(id[0]) {
			return true
		}
	}
	for _, c := range el.ChildElements() {
		if containsDocument(c) {
			return true
		}
	}
	return false
}

type walker struct {
	stage  *Stage
	tree   *node.Tree
	issues []*DecodeError
}

// resolve returns the first registered kind among el's templateIds.
// known reports whether el declared any templateId at all.
func (w *walker) resolve(el *etree.Element) (kind template.Kind, id string, known bool) {
	ids := templateIDs(el)
	for _, tid := range ids {
		if k, ok := w.stage.reg.Resolve(tid[0], tid[1]); ok {
			return k, template.ID(tid[0], tid[1]), true
		}
	}
	if len(ids) > 0 {
		return template.Unknown, template.ID(ids[0][0], ids[0][1]), true
	}
	return template.Unknown, "", false
}

func (w *walker) children(el *etree.Element, parent node.Node) {
	for _, c := range el.ChildElements() {
		w.element(c, parent)
	}
}

func (w *walker) element(el *etree.Element, parent node.Node) {
	kind, tid, declared := w.resolve(el)
	if kind == template.Unknown {
		if declared && w.stage.defaults && !parent.IsZero() {
			w.defaultNode(el, parent, tid)
		}
		// Recognized descendants attach to the nearest recognized ancestor.
		w.children(el, parent)
		return
	}

	n, err := w.attach(kind, parent)
	if err != nil {
		w.issues = append(w.issues, &DecodeError{Kind: kind, Path: parentPath(parent), Err: err})
		return
	}
	dec, _ := w.stage.reg.Decoder(kind)
	action, err := dec.Decode(el, n)
	if err != nil {
		de := &DecodeError{Kind: kind, Path: n.Path(), Err: err}
		w.issues = append(w.issues, de)
		w.stage.logger.Warn("decoder failed", "kind", kind.String(), "path", de.Path, "error", err)
		if w.stage.defaults {
			n.SetKind(template.Default)
			n.Put("originalTemplateId", tid)
		}
		action = registry.Continue
	}
	if action == registry.Continue {
		w.children(el, n)
	}
}

func (w *walker) attach(kind template.Kind, parent node.Node) (node.Node, error) {
	if parent.IsZero() {
		return w.tree.NewRoot(kind)
	}
	return parent.AddChild(kind)
}

func (w *walker) defaultNode(el *etree.Element, parent node.Node, tid string) {
	n, err := parent.AddChild(template.Default)
	if err != nil {
		w.issues = append(w.issues, &DecodeError{Kind: template.Default, Path: parent.Path(), Err: err})
		return
	}
	if dec, ok := w.stage.reg.Decoder(template.Default); ok {
		if _, err := dec.Decode(el, n); err != nil {
			w.issues = append(w.issues, &DecodeError{Kind: template.Default, Path: n.Path(), Err: err})
		}
	}
	n.Put("originalTemplateId", tid)
}

func parentPath(parent node.Node) string {
	if parent.IsZero() {
		return "/"
	}
	return parent.Path()
}
