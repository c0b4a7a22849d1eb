// Package registry binds template kinds to the decoder, validators and
// encoder responsible for them.
//
// Registration happens once through a Builder. Build returns an immutable
// Registry that is safe for concurrent lookups without locking.
package registry

import (
	"errors"
	"fmt"
	"slices"

	"github.com/beevik/etree"

	"github.com/alnah/go-qrda2qpp/internal/jsonw"
	"github.com/alnah/go-qrda2qpp/internal/node"
	"github.com/alnah/go-qrda2qpp/internal/report"
	"github.com/alnah/go-qrda2qpp/internal/template"
)

// Sentinel errors for registration.
var (
	ErrAlreadyRegistered = errors.New("already registered")
	ErrInvalidKind       = errors.New("invalid template kind")
	ErrNilHandler        = errors.New("nil handler")
)

// Action tells the decode stage what to do after a decoder ran.
type Action uint8

const (
	// Continue decodes the element's children beneath the new node.
	Continue Action = iota
	// Finish means the decoder consumed its whole subtree.
	Finish
)

// Decoder fills n from the markup element that selected it.
type Decoder interface {
	Decode(el *etree.Element, n node.Node) (Action, error)
}

// Validator checks one node in isolation and appends failures to errs.
type Validator interface {
	ValidateNode(n node.Node, errs *[]report.ValidationError)
}

// CrossValidator checks every node of one kind together. It runs even when
// nodes is empty.
type CrossValidator interface {
	ValidateNodes(nodes []node.Node, errs *[]report.ValidationError)
}

// Emitter encodes a node through the registry. Encoders use it to encode
// their children.
type Emitter interface {
	EncodeNode(n node.Node) (*jsonw.Object, error)
}

// Encoder writes the output fragment for n into out.
type Encoder interface {
	Encode(e Emitter, n node.Node, out *jsonw.Object) error
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(el *etree.Element, n node.Node) (Action, error)

func (f DecoderFunc) Decode(el *etree.Element, n node.Node) (Action, error) { return f(el, n) }

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(n node.Node, errs *[]report.ValidationError)

func (f ValidatorFunc) ValidateNode(n node.Node, errs *[]report.ValidationError) { f(n, errs) }

// CrossValidatorFunc adapts a function to CrossValidator.
type CrossValidatorFunc func(nodes []node.Node, errs *[]report.ValidationError)

func (f CrossValidatorFunc) ValidateNodes(nodes []node.Node, errs *[]report.ValidationError) {
	f(nodes, errs)
}

// EncoderFunc adapts a function to Encoder.
type EncoderFunc func(e Emitter, n node.Node, out *jsonw.Object) error

func (f EncoderFunc) Encode(e Emitter, n node.Node, out *jsonw.Object) error { return f(e, n, out) }

type entry struct {
	decoder    Decoder
	validators []Validator
	cross      []CrossValidator
	encoder    Encoder
}

// Builder collects registrations. It is not safe for concurrent use.
type Builder struct {
	entries map[template.Kind]*entry
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{entries: make(map[template.Kind]*entry)}
}

func (b *Builder) get(k template.Kind) (*entry, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidKind, k)
	}
	e, ok := b.entries[k]
	if !ok {
		e = &entry{}
		b.entries[k] = e
	}
	return e, nil
}

// Decoder binds the decoder for k. Each kind has at most one decoder.
func (b *Builder) Decoder(k template.Kind, d Decoder) error {
	if d == nil {
		return fmt.Errorf("%w: decoder for %s", ErrNilHandler, k)
	}
	e, err := b.get(k)
	if err != nil {
		return err
	}
	if e.decoder != nil {
		return fmt.Errorf("%w: decoder for %s", ErrAlreadyRegistered, k)
	}
	e.decoder = d
	return nil
}

// Validator adds a single-node validator for k. Validators run in
// registration order.
func (b *Builder) Validator(k template.Kind, v Validator) error {
	if v == nil {
		return fmt.Errorf("%w: validator for %s", ErrNilHandler, k)
	}
	e, err := b.get(k)
	if err != nil {
		return err
	}
	e.validators = append(e.validators, v)
	return nil
}

// CrossValidator adds a cross-node validator for k.
func (b *Builder) CrossValidator(k template.Kind, v CrossValidator) error {
	if v == nil {
		return fmt.Errorf("%w: cross validator for %s", ErrNilHandler, k)
	}
	e, err := b.get(k)
	if err != nil {
		return err
	}
	e.cross = append(e.cross, v)
	return nil
}

// Encoder binds the encoder for k. Each kind has at most one encoder.
func (b *Builder) Encoder(k template.Kind, enc Encoder) error {
	if enc == nil {
		return fmt.Errorf("%w: encoder for %s", ErrNilHandler, k)
	}
	e, err := b.get(k)
	if err != nil {
		return err
	}
	if e.encoder != nil {
		return fmt.Errorf("%w: encoder for %s", ErrAlreadyRegistered, k)
	}
	e.encoder = enc
	return nil
}

// Build freezes the registrations. The Builder must not be reused.
func (b *Builder) Build() *Registry {
	r := &Registry{entries: make(map[template.Kind]entry, len(b.entries))}
	for k, e := range b.entries {
		r.entries[k] = entry{
			decoder:    e.decoder,
			validators: slices.Clone(e.validators),
			cross:      slices.Clone(e.cross),
			encoder:    e.encoder,
		}
		if len(e.cross) > 0 {
			r.crossKinds = append(r.crossKinds, k)
		}
	}
	slices.Sort(r.crossKinds)
	b.entries = nil
	return r
}

// Registry is the read-only dispatch table.
type Registry struct {
	entries    map[template.Kind]entry
	crossKinds []template.Kind
}

// Decoder returns the decoder bound to k.
func (r *Registry) Decoder(k template.Kind) (Decoder, bool) {
	e, ok := r.entries[k]
	if !ok || e.decoder == nil {
		return nil, false
	}
	return e.decoder, true
}

// Validators returns the single-node validators bound to k.
func (r *Registry) Validators(k template.Kind) []Validator {
	return r.entries[k].validators
}

// CrossValidators returns the cross-node validators bound to k.
func (r *Registry) CrossValidators(k template.Kind) []CrossValidator {
	return r.entries[k].cross
}

// CrossKinds returns the kinds with cross-node validators, in kind order.
func (r *Registry) CrossKinds() []template.Kind {
	return r.crossKinds
}

// Encoder returns the encoder bound to k.
func (r *Registry) Encoder(k template.Kind) (Encoder, bool) {
	e, ok := r.entries[k]
	if !ok || e.encoder == nil {
		return nil, false
	}
	return e.encoder, true
}

// Resolve maps a templateId root/extension pair to a kind that has a
// decoder.
func (r *Registry) Resolve(root, extension string) (template.Kind, bool) {
	k, ok := template.Lookup(root, extension)
	if !ok {
		return template.Unknown, false
	}
	if _, ok := r.Decoder(k); !ok {
		return template.Unknown, false
	}
	return k, true
}
