package encode_test

// Notes:
// - Output is compared after a round trip through encoding/json so the
//   assertions read as plain maps; key order is read back from the token
//   stream of the marshaled object.

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/alnah/go-qrda2qpp/internal/decode"
	"github.com/alnah/go-qrda2qpp/internal/encode"
	"github.com/alnah/go-qrda2qpp/internal/jsonw"
	"github.com/alnah/go-qrda2qpp/internal/measures"
	"github.com/alnah/go-qrda2qpp/internal/node"
	"github.com/alnah/go-qrda2qpp/internal/registry"
	"github.com/alnah/go-qrda2qpp/internal/template"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	cat, err := measures.Default()
	if err != nil {
		t.Fatalf("measures.Default() error = %v", err)
	}
	b := registry.NewBuilder()
	if err := decode.Register(b, cat); err != nil {
		t.Fatalf("decode.Register() error = %v", err)
	}
	if err := encode.Register(b); err != nil {
		t.Fatalf("encode.Register() error = %v", err)
	}
	return b.Build()
}

func decodeFixture(t *testing.T, reg *registry.Registry, name string) *node.Tree {
	t.Helper()
	data, err := os.ReadFile("../../testdata/" + name)
	if err != nil {
		t.Fatalf("reading fixture: %v", err)
	}
	res, err := decode.NewStage(reg).Decode(data)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return res.Tree
}

func asMap(t *testing.T, o *jsonw.Object) map[string]any {
	t.Helper()
	data, err := jsonw.Indent(o)
	if err != nil {
		t.Fatalf("Indent() error = %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	return m
}

func topLevelKeys(t *testing.T, o *jsonw.Object) []string {
	t.Helper()
	data, err := json.Marshal(o)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			t.Fatalf("Token() error = %v", err)
		}
		keys = append(keys, tok.(string))
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			t.Fatalf("Decode() error = %v", err)
		}
	}
	return keys
}

func addChild(t *testing.T, parent node.Node, kind template.Kind, kv ...string) node.Node {
	t.Helper()
	c, err := parent.AddChild(kind)
	if err != nil {
		t.Fatalf("AddChild() error = %v", err)
	}
	for i := 0; i+1 < len(kv); i += 2 {
		c.Put(kv[i], kv[i+1])
	}
	return c
}

// ---------------------------------------------------------------------------
// TestStage_EncodeValidDocument - Full submission rendering
// ---------------------------------------------------------------------------

func TestStage_EncodeValidDocument(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t)
	tree := decodeFixture(t, reg, "valid.xml")

	out, err := encode.NewStage(reg, nil).Encode(tree)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	want := map[string]any{
		"programName":                  "mips",
		"entityType":                   "group",
		"taxpayerIdentificationNumber": "123456789",
		"nationalProviderIdentifier":   "2567891421",
		"performanceYear":              float64(2017),
		"measurementSets": []any{
			map[string]any{
				"category":         "ia",
				"submissionMethod": encode.SubmissionMethod,
				"performanceStart": "2017-01-01",
				"performanceEnd":   "2017-12-31",
				"measurements": []any{
					map[string]any{"measureId": "IA_EPA_1", "value": true},
				},
			},
			map[string]any{
				"category":         "quality",
				"submissionMethod": encode.SubmissionMethod,
				"performanceStart": "2017-01-01",
				"performanceEnd":   "2017-12-31",
				"measurements": []any{
					map[string]any{
						"measureId": "001",
						"value": map[string]any{
							"isEndToEndReported":   true,
							"populationTotal":      float64(600),
							"performanceMet":       float64(350),
							"performanceExclusion": float64(50),
							"performanceNotMet":    float64(450),
						},
					},
				},
			},
		},
	}
	if diff := cmp.Diff(want, asMap(t, out)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}

func TestStage_EncodeKeyOrder(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t)
	out, err := encode.NewStage(reg, nil).Encode(decodeFixture(t, reg, "valid.xml"))
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	want := []string{
		"programName", "entityType", "taxpayerIdentificationNumber",
		"nationalProviderIdentifier", "performanceYear", "measurementSets",
	}
	if diff := cmp.Diff(want, topLevelKeys(t, out)); diff != "" {
		t.Errorf("key order mismatch (-want +got):\n%s", diff)
	}
}

// ---------------------------------------------------------------------------
// TestStage_EncodeErrors - Broken preconditions
// ---------------------------------------------------------------------------

func TestStage_EncodeErrors(t *testing.T) {
	t.Parallel()

	reg := newRegistry(t)

	tests := []struct {
		name     string
		build    func(t *testing.T) *node.Tree
		wantErr  error
		wantKind template.Kind
		wantPath string
	}{
		{
			name:     "empty tree",
			build:    func(*testing.T) *node.Tree { return node.NewTree() },
			wantErr:  encode.ErrNoDocument,
			wantKind: template.ClinicalDocument,
			wantPath: "/",
		},
		{
			name: "missing denominator exclusion",
			build: func(t *testing.T) *node.Tree {
				tree := node.NewTree()
				doc, _ := tree.NewRoot(template.ClinicalDocument)
				sec := addChild(t, doc, template.MeasureSection, decode.KeyCategory, decode.CategoryQuality)
				ref := addChild(t, sec, template.MeasureReferenceResults, decode.KeyMeasureID, "001")
				for _, pop := range []string{measures.InitialPopulation, measures.Denominator, measures.Numerator} {
					data := addChild(t, ref, template.MeasureData, decode.KeyType, pop)
					addChild(t, data, template.AggregateCount, decode.KeyAggregateCount, "1")
				}
				return tree
			},
			wantErr:  encode.ErrMissingChild,
			wantKind: template.MeasureReferenceResults,
			wantPath: "/clinicalDocument/measureSection[0]/measureReferenceResults[0]",
		},
		{
			name: "non integer aggregate",
			build: func(t *testing.T) *node.Tree {
				tree := node.NewTree()
				doc, _ := tree.NewRoot(template.ClinicalDocument)
				sec := addChild(t, doc, template.ACISection, decode.KeyCategory, decode.CategoryACI)
				nd := addChild(t, sec, template.ACINumeratorDenominator, decode.KeyMeasureID, "ACI_EP_1")
				num := addChild(t, nd, template.ACINumerator)
				addChild(t, num, template.AggregateCount, decode.KeyAggregateCount, "many")
				den := addChild(t, nd, template.ACIDenominator)
				addChild(t, den, template.AggregateCount, decode.KeyAggregateCount, "2")
				return tree
			},
			wantErr:  encode.ErrBadValue,
			wantKind: template.AggregateCount,
			wantPath: "/clinicalDocument/aciSection[0]/aciNumeratorDenominator[0]/aciNumerator[0]/aggregateCount[0]",
		},
		{
			name: "IA measure without measure performed",
			build: func(t *testing.T) *node.Tree {
				tree := node.NewTree()
				doc, _ := tree.NewRoot(template.ClinicalDocument)
				sec := addChild(t, doc, template.IASection, decode.KeyCategory, decode.CategoryIA)
				addChild(t, sec, template.IAMeasure, decode.KeyMeasureID, "IA_1")
				return tree
			},
			wantErr:  encode.ErrMissingChild,
			wantKind: template.IAMeasure,
			wantPath: "/clinicalDocument/iaSection[0]/iaMeasure[0]",
		},
		{
			name: "bad performed value",
			build: func(t *testing.T) *node.Tree {
				tree := node.NewTree()
				doc, _ := tree.NewRoot(template.ClinicalDocument)
				sec := addChild(t, doc, template.ACISection, decode.KeyCategory, decode.CategoryACI)
				addChild(t, sec, template.ACIMeasurePerformed, decode.KeyMeasureID, "ACI_1", decode.KeyMeasurePerformed, "maybe")
				return tree
			},
			wantErr:  encode.ErrBadValue,
			wantKind: template.ACIMeasurePerformed,
			wantPath: "/clinicalDocument/aciSection[0]/aciMeasurePerformed[0]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out, err := encode.NewStage(reg, nil).Encode(tt.build(t))
			if out != nil {
				t.Errorf("Encode() output = %v, want nil", out)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Encode() error = %v, want %v", err, tt.wantErr)
			}
			var ee *encode.EncodeError
			if !errors.As(err, &ee) {
				t.Fatalf("Encode() error type = %T, want *encode.EncodeError", err)
			}
			if ee.Kind != tt.wantKind || ee.Path != tt.wantPath {
				t.Errorf("EncodeError at %s %s, want %s %s", ee.Kind, ee.Path, tt.wantKind, tt.wantPath)
			}
		})
	}
}

func TestStage_EncodeNodeWithoutEncoder(t *testing.T) {
	t.Parallel()

	n, err := node.NewTree().NewRoot(template.MeasureData)
	if err != nil {
		t.Fatal(err)
	}
	_, err = encode.NewStage(newRegistry(t), nil).EncodeNode(n)
	if !errors.Is(err, encode.ErrNoEncoder) {
		t.Errorf("EncodeNode() error = %v, want ErrNoEncoder", err)
	}
}

// ---------------------------------------------------------------------------
// TestStage_SectionsSkipForeignChildren - Unencoded children are ignored
// ---------------------------------------------------------------------------

func TestStage_SectionsSkipForeignChildren(t *testing.T) {
	t.Parallel()

	tree := node.NewTree()
	doc, _ := tree.NewRoot(template.ClinicalDocument)
	sec := addChild(t, doc, template.IASection, decode.KeyCategory, decode.CategoryIA)
	addChild(t, sec, template.Default)
	m := addChild(t, sec, template.IAMeasure, decode.KeyMeasureID, "IA_1")
	addChild(t, m, template.MeasurePerformed, decode.KeyMeasurePerformed, "N")

	out, err := encode.NewStage(newRegistry(t), nil).Encode(tree)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	want := map[string]any{
		"measurementSets": []any{
			map[string]any{
				"category":         "ia",
				"submissionMethod": encode.SubmissionMethod,
				"measurements": []any{
					map[string]any{"measureId": "IA_1", "value": false},
				},
			},
		},
	}
	if diff := cmp.Diff(want, asMap(t, out)); diff != "" {
		t.Errorf("output mismatch (-want +got):\n%s", diff)
	}
}
