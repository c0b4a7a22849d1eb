package registry_test

import (
	"errors"
	"testing"

	"github.com/beevik/etree"
	"github.com/google/go-cmp/cmp"

	"github.com/alnah/go-qrda2qpp/internal/jsonw"
	"github.com/alnah/go-qrda2qpp/internal/node"
	"github.com/alnah/go-qrda2qpp/internal/registry"
	"github.com/alnah/go-qrda2qpp/internal/report"
	"github.com/alnah/go-qrda2qpp/internal/template"
)

func noopDecoder(*etree.Element, node.Node) (registry.Action, error) { return registry.Continue, nil }

func noopEncoder(registry.Emitter, node.Node, *jsonw.Object) error { return nil }

// ---------------------------------------------------------------------------
// TestBuilder_Errors - Registration failures
// ---------------------------------------------------------------------------

func TestBuilder_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		build   func(b *registry.Builder) error
		wantErr error
	}{
		{
			name: "duplicate decoder",
			build: func(b *registry.Builder) error {
				if err := b.Decoder(template.IASection, registry.DecoderFunc(noopDecoder)); err != nil {
					return err
				}
				return b.Decoder(template.IASection, registry.DecoderFunc(noopDecoder))
			},
			wantErr: registry.ErrAlreadyRegistered,
		},
		{
			name: "duplicate encoder",
			build: func(b *registry.Builder) error {
				if err := b.Encoder(template.IASection, registry.EncoderFunc(noopEncoder)); err != nil {
					return err
				}
				return b.Encoder(template.IASection, registry.EncoderFunc(noopEncoder))
			},
			wantErr: registry.ErrAlreadyRegistered,
		},
		{
			name: "invalid kind",
			build: func(b *registry.Builder) error {
				return b.Decoder(template.Kind(250), registry.DecoderFunc(noopDecoder))
			},
			wantErr: registry.ErrInvalidKind,
		},
		{
			name: "nil decoder",
			build: func(b *registry.Builder) error {
				return b.Decoder(template.IASection, nil)
			},
			wantErr: registry.ErrNilHandler,
		},
		{
			name: "nil validator",
			build: func(b *registry.Builder) error {
				return b.Validator(template.IASection, nil)
			},
			wantErr: registry.ErrNilHandler,
		},
		{
			name: "multiple validators allowed",
			build: func(b *registry.Builder) error {
				v := registry.ValidatorFunc(func(node.Node, *[]report.ValidationError) {})
				if err := b.Validator(template.IASection, v); err != nil {
					return err
				}
				return b.Validator(template.IASection, v)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.build(registry.NewBuilder())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestRegistry_Lookup - Read-only dispatch
// ---------------------------------------------------------------------------

func TestRegistry_Lookup(t *testing.T) {
	t.Parallel()

	var order []string
	b := registry.NewBuilder()
	mustNoErr(t, b.Decoder(template.IASection, registry.DecoderFunc(noopDecoder)))
	mustNoErr(t, b.Validator(template.IASection, registry.ValidatorFunc(func(node.Node, *[]report.ValidationError) {
		order = append(order, "first")
	})))
	mustNoErr(t, b.Validator(template.IASection, registry.ValidatorFunc(func(node.Node, *[]report.ValidationError) {
		order = append(order, "second")
	})))
	mustNoErr(t, b.CrossValidator(template.IAMeasure, registry.CrossValidatorFunc(func([]node.Node, *[]report.ValidationError) {})))
	mustNoErr(t, b.CrossValidator(template.ClinicalDocument, registry.CrossValidatorFunc(func([]node.Node, *[]report.ValidationError) {})))
	mustNoErr(t, b.Encoder(template.IAMeasure, registry.EncoderFunc(noopEncoder)))
	reg := b.Build()

	if _, ok := reg.Decoder(template.IASection); !ok {
		t.Error("Decoder(IASection) not found")
	}
	if _, ok := reg.Decoder(template.IAMeasure); ok {
		t.Error("Decoder(IAMeasure) found, want none (encoder only)")
	}
	if _, ok := reg.Encoder(template.IAMeasure); !ok {
		t.Error("Encoder(IAMeasure) not found")
	}
	if _, ok := reg.Encoder(template.MeasureData); ok {
		t.Error("Encoder(MeasureData) found, want none")
	}

	for _, v := range reg.Validators(template.IASection) {
		v.ValidateNode(node.Node{}, nil)
	}
	if diff := cmp.Diff([]string{"first", "second"}, order); diff != "" {
		t.Errorf("validator order mismatch (-want +got):\n%s", diff)
	}

	want := []template.Kind{template.ClinicalDocument, template.IAMeasure}
	if diff := cmp.Diff(want, reg.CrossKinds()); diff != "" {
		t.Errorf("CrossKinds() mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_Resolve(t *testing.T) {
	t.Parallel()

	b := registry.NewBuilder()
	mustNoErr(t, b.Decoder(template.IASection, registry.DecoderFunc(noopDecoder)))
	reg := b.Build()

	tests := []struct {
		name      string
		root, ext string
		want      template.Kind
		wantOK    bool
	}{
		{name: "registered root", root: "2.16.840.1.113883.10.20.27.2.4", want: template.IASection, wantOK: true},
		{name: "registered root with unknown extension", root: "2.16.840.1.113883.10.20.27.2.4", ext: "2099-01-01", want: template.IASection, wantOK: true},
		{name: "known template without decoder", root: "2.16.840.1.113883.10.20.27.2.5", want: template.Unknown},
		{name: "unknown root", root: "1.2.3", want: template.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := reg.Resolve(tt.root, tt.ext)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Resolve(%q, %q) = (%v, %v), want (%v, %v)", tt.root, tt.ext, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
