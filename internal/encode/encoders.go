package encode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alnah/go-qrda2qpp/internal/dateutil"
	"github.com/alnah/go-qrda2qpp/internal/decode"
	"github.com/alnah/go-qrda2qpp/internal/jsonw"
	"github.com/alnah/go-qrda2qpp/internal/measures"
	"github.com/alnah/go-qrda2qpp/internal/node"
	"github.com/alnah/go-qrda2qpp/internal/registry"
	"github.com/alnah/go-qrda2qpp/internal/template"
)

// SubmissionMethod is the QPP submission method for QRDA-III uploads.
const SubmissionMethod = "electronicHealthRecord"

// Register binds every encoder to b.
func Register(b *registry.Builder) error {
	encoders := []struct {
		kind template.Kind
		enc  registry.EncoderFunc
	}{
		{template.ClinicalDocument, ClinicalDocument},
		{template.ACISection, sectionEncoder(template.ACINumeratorDenominator, template.ACIMeasurePerformed)},
		{template.IASection, sectionEncoder(template.IAMeasure)},
		{template.MeasureSection, sectionEncoder(template.MeasureReferenceResults)},
		{template.ACINumeratorDenominator, ACINumeratorDenominator},
		{template.ACIMeasurePerformed, ACIMeasurePerformed},
		{template.IAMeasure, IAMeasure},
		{template.MeasureReferenceResults, QualityMeasureID},
	}
	for _, e := range encoders {
		if err := b.Encoder(e.kind, e.enc); err != nil {
			return err
		}
	}
	return nil
}

// ClinicalDocument writes submission identity and one measurement set per
// section.
func ClinicalDocument(e registry.Emitter, n node.Node, out *jsonw.Object) error {
	putIfSet(out, n, decode.KeyProgramName)
	putIfSet(out, n, decode.KeyEntityType)
	putIfSet(out, n, decode.KeyTIN)
	putIfSet(out, n, decode.KeyNPI)

	act, hasAct := reportingAct(n)
	if hasAct {
		if year := act.Value(decode.KeyPerformanceYear); year != "" {
			if err := out.PutInteger(decode.KeyPerformanceYear, year); err != nil {
				return encodeErr(act, fmt.Errorf("%w: %v", ErrBadValue, err))
			}
		}
	}

	var sets []*jsonw.Object
	for _, sec := range n.ChildrenOf(template.ACISection, template.IASection, template.MeasureSection) {
		set, err := e.EncodeNode(sec)
		if err != nil {
			return err
		}
		if hasAct {
			if err := putDate(set, act, decode.KeyPerformanceStart); err != nil {
				return err
			}
			if err := putDate(set, act, decode.KeyPerformanceEnd); err != nil {
				return err
			}
		}
		sets = append(sets, set)
	}
	out.PutArray("measurementSets", sets)
	return nil
}

func reportingAct(doc node.Node) (node.Node, bool) {
	for _, sec := range doc.ChildrenOf(template.ReportingParametersSection) {
		if acts := sec.Descendants(template.ReportingParametersAct); len(acts) > 0 {
			return acts[0], true
		}
	}
	return node.Node{}, false
}

func putDate(out *jsonw.Object, act node.Node, key string) error {
	v := act.Value(key)
	if v == "" {
		return nil
	}
	iso, err := dateutil.ISODate(v)
	if err != nil {
		return encodeErr(act, fmt.Errorf("%w: %v", ErrBadValue, err))
	}
	out.PutString(key, iso)
	return nil
}

func putIfSet(out *jsonw.Object, n node.Node, key string) {
	if v := n.Value(key); v != "" {
		out.PutString(key, v)
	}
}

// sectionEncoder writes a measurement set from the children of the given
// kinds. Other children are ignored.
func sectionEncoder(kinds ...template.Kind) registry.EncoderFunc {
	return func(e registry.Emitter, n node.Node, out *jsonw.Object) error {
		out.PutString(decode.KeyCategory, n.Value(decode.KeyCategory))
		out.PutString("submissionMethod", SubmissionMethod)
		var items []*jsonw.Object
		for _, c := range n.ChildrenOf(kinds...) {
			item, err := e.EncodeNode(c)
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		out.PutArray("measurements", items)
		return nil
	}
}

// ACINumeratorDenominator writes {measureId, value: {numerator, denominator}}.
func ACINumeratorDenominator(_ registry.Emitter, n node.Node, out *jsonw.Object) error {
	num, err := childCount(n, template.ACINumerator)
	if err != nil {
		return err
	}
	den, err := childCount(n, template.ACIDenominator)
	if err != nil {
		return err
	}
	value := jsonw.New()
	value.PutInt("numerator", num)
	value.PutInt("denominator", den)
	out.PutString(decode.KeyMeasureID, n.Value(decode.KeyMeasureID))
	out.PutObject("value", value)
	return nil
}

// childCount reads the aggregate count below the first child of kind.
func childCount(n node.Node, kind template.Kind) (int, error) {
	cs := n.ChildrenOf(kind)
	if len(cs) == 0 {
		return 0, encodeErr(n, fmt.Errorf("%w: %s", ErrMissingChild, kind))
	}
	return aggregate(cs[0])
}

// aggregate parses the aggregate count of n's first AggregateCount child.
func aggregate(n node.Node) (int, error) {
	counts := n.ChildrenOf(template.AggregateCount)
	if len(counts) == 0 {
		return 0, encodeErr(n, fmt.Errorf("%w: %s", ErrMissingChild, template.AggregateCount))
	}
	raw := counts[0].Value(decode.KeyAggregateCount)
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, encodeErr(counts[0], fmt.Errorf("%w: aggregate count %q", ErrBadValue, raw))
	}
	return v, nil
}

// ACIMeasurePerformed writes {measureId, value: bool}.
func ACIMeasurePerformed(_ registry.Emitter, n node.Node, out *jsonw.Object) error {
	out.PutString(decode.KeyMeasureID, n.Value(decode.KeyMeasureID))
	if err := out.PutBoolean("value", n.Value(decode.KeyMeasurePerformed)); err != nil {
		return encodeErr(n, fmt.Errorf("%w: %v", ErrBadValue, err))
	}
	return nil
}

// IAMeasure writes {measureId, value: bool} from its measure performed child.
func IAMeasure(_ registry.Emitter, n node.Node, out *jsonw.Object) error {
	performed := n.ChildrenOf(template.MeasurePerformed)
	if len(performed) == 0 {
		return encodeErr(n, fmt.Errorf("%w: %s", ErrMissingChild, template.MeasurePerformed))
	}
	out.PutString(decode.KeyMeasureID, n.Value(decode.KeyMeasureID))
	if err := out.PutBoolean("value", performed[0].Value(decode.KeyMeasurePerformed)); err != nil {
		return encodeErr(performed[0], fmt.Errorf("%w: %v", ErrBadValue, err))
	}
	return nil
}

// QualityMeasureID writes an eCQM with its population totals.
// performanceNotMet is the denominator minus the denominator exclusions.
func QualityMeasureID(_ registry.Emitter, n node.Node, out *jsonw.Object) error {
	counts := make(map[string]int, 4)
	for _, pop := range []string{measures.InitialPopulation, measures.Numerator, measures.DenominatorExclusion, measures.Denominator} {
		data, ok := n.FindChild(func(c node.Node) bool {
			return c.Kind() == template.MeasureData && c.Value(decode.KeyType) == pop
		})
		if !ok {
			return encodeErr(n, fmt.Errorf("%w: %s population", ErrMissingChild, pop))
		}
		v, err := aggregate(data)
		if err != nil {
			return err
		}
		counts[pop] = v
	}

	value := jsonw.New()
	value.PutBool("isEndToEndReported", true)
	value.PutInt("populationTotal", counts[measures.InitialPopulation])
	value.PutInt("performanceMet", counts[measures.Numerator])
	value.PutInt("performanceExclusion", counts[measures.DenominatorExclusion])
	value.PutInt("performanceNotMet", counts[measures.Denominator]-counts[measures.DenominatorExclusion])

	out.PutString(decode.KeyMeasureID, n.Value(decode.KeyMeasureID))
	out.PutObject("value", value)
	return nil
}
