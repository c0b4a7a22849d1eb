package validate

import (
	"fmt"
	"strings"

	"github.com/alnah/go-qrda2qpp/internal/decode"
	"github.com/alnah/go-qrda2qpp/internal/measures"
	"github.com/alnah/go-qrda2qpp/internal/node"
	"github.com/alnah/go-qrda2qpp/internal/registry"
	"github.com/alnah/go-qrda2qpp/internal/report"
	"github.com/alnah/go-qrda2qpp/internal/template"
)

var sectionKinds = []template.Kind{template.ACISection, template.IASection, template.MeasureSection}

// Register binds every validator to b.
func Register(b *registry.Builder, cat *measures.Catalogue) error {
	single := []struct {
		kind template.Kind
		v    registry.Validator
	}{
		{template.ClinicalDocument, registry.ValidatorFunc(ClinicalDocument)},
		{template.ReportingParametersAct, registry.ValidatorFunc(ReportingParameters)},
		{template.ACISection, &ACISectionValidator{Required: cat.RequiredACI()}},
		{template.ACINumeratorDenominator, registry.ValidatorFunc(ACINumeratorDenominator)},
		{template.ACINumerator, aciCountValidator("Numerator")},
		{template.ACIDenominator, aciCountValidator("Denominator")},
		{template.ACIMeasurePerformed, registry.ValidatorFunc(ACIMeasurePerformed)},
		{template.IASection, registry.ValidatorFunc(IASection)},
		{template.IAMeasure, registry.ValidatorFunc(IAMeasure)},
		{template.MeasurePerformed, registry.ValidatorFunc(MeasurePerformed)},
		{template.AggregateCount, registry.ValidatorFunc(AggregateCount)},
		{template.MeasureData, registry.ValidatorFunc(MeasureData)},
		{template.MeasureReferenceResults, &QualityMeasureValidator{Catalogue: cat}},
		{template.MeasureReferenceResults, &PerformanceRateCountValidator{Catalogue: cat}},
	}
	for _, s := range single {
		if err := b.Validator(s.kind, s.v); err != nil {
			return err
		}
	}

	cross := []struct {
		kind template.Kind
		v    registry.CrossValidator
	}{
		{template.ClinicalDocument, registry.CrossValidatorFunc(ClinicalDocuments)},
		{template.MeasureReferenceResults, registry.CrossValidatorFunc(UniqueMeasures)},
		{template.ACINumeratorDenominator, registry.CrossValidatorFunc(UniqueMeasures)},
		{template.ACIMeasurePerformed, registry.CrossValidatorFunc(UniqueMeasures)},
		{template.IAMeasure, registry.CrossValidatorFunc(UniqueMeasures)},
	}
	for _, c := range cross {
		if err := b.CrossValidator(c.kind, c.v); err != nil {
			return err
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Clinical document
// ---------------------------------------------------------------------------

// ClinicalDocument checks program identity, organization identifiers and
// section layout. Every failing rule is reported.
func ClinicalDocument(n node.Node, errs *[]report.ValidationError) {
	ThoroughlyCheck(n, errs).
		Value(ContainsProgramName, decode.KeyProgramName).
		ValueIn(IncorrectProgramName, decode.KeyProgramName, decode.ProgramMIPS, decode.ProgramCPCPlus).
		Value(ContainsTaxIDNumber, decode.KeyTIN).
		ChildMinimum(ContainsSections, 1, sectionKinds...).
		ChildMaximum(ContainsDuplicateACISections, 1, template.ACISection).
		ChildMaximum(ContainsDuplicateIASections, 1, template.IASection).
		ChildMaximum(ContainsDuplicateECQMSection, 1, template.MeasureSection).
		Satisfies(ReportingParameterRequired, func(n node.Node) bool {
			return len(n.ChildrenOf(template.ReportingParametersSection)) == 1
		}).
		Satisfies(ContainsPerformanceYear, hasPerformanceYear)
}

// hasPerformanceYear reports whether a reporting act carries a performance
// start, the value the year is derived from.
func hasPerformanceYear(doc node.Node) bool {
	for _, sec := range doc.ChildrenOf(template.ReportingParametersSection) {
		for _, act := range sec.Descendants(template.ReportingParametersAct) {
			if strings.TrimSpace(act.Value(decode.KeyPerformanceStart)) != "" {
				return true
			}
		}
	}
	return false
}

// ClinicalDocuments requires exactly one clinical document per tree.
func ClinicalDocuments(nodes []node.Node, errs *[]report.ValidationError) {
	switch len(nodes) {
	case 0:
		*errs = append(*errs, report.New(ClinicalDocumentRequired, ""))
	case 1:
	default:
		*errs = append(*errs, report.New(OnlyOneClinicalDocument, nodes[1].Path()))
	}
}

// ReportingParameters requires both ends of the performance period.
func ReportingParameters(n node.Node, errs *[]report.ValidationError) {
	ThoroughlyCheck(n, errs).
		Value(PerformanceStartRequired, decode.KeyPerformanceStart).
		Value(PerformanceEndRequired, decode.KeyPerformanceEnd)
}

// ---------------------------------------------------------------------------
// ACI
// ---------------------------------------------------------------------------

// ACISectionValidator checks the category and the required base measures.
type ACISectionValidator struct {
	Required []string
}

func (v *ACISectionValidator) ValidateNode(n node.Node, errs *[]report.ValidationError) {
	c := ThoroughlyCheck(n, errs).
		ValueIn(ACISectionCategory, decode.KeyCategory, decode.CategoryACI).
		HasChildren(ACISectionMeasures)
	if len(v.Required) > 0 {
		c.HasMeasures(fmt.Sprintf(ACISectionRequired, strings.Join(v.Required, ", ")), v.Required...)
	}
}

// ACINumeratorDenominator requires a measure id and one numerator and
// denominator.
func ACINumeratorDenominator(n node.Node, errs *[]report.ValidationError) {
	ThoroughlyCheck(n, errs).
		Value(ACINumDenomMeasureID, decode.KeyMeasureID).
		ChildMinimum(ACINumDenomNumerator, 1, template.ACINumerator).
		ChildMaximum(ACINumDenomNumerator, 1, template.ACINumerator).
		ChildMinimum(ACINumDenomDenominator, 1, template.ACIDenominator).
		ChildMaximum(ACINumDenomDenominator, 1, template.ACIDenominator)
}

func aciCountValidator(name string) registry.ValidatorFunc {
	msg := fmt.Sprintf(ACIAggregateCount, name)
	return func(n node.Node, errs *[]report.ValidationError) {
		Check(n, errs).
			ChildMinimum(msg, 1, template.AggregateCount).
			ChildMaximum(msg, 1, template.AggregateCount)
	}
}

// ACIMeasurePerformed checks a yes/no ACI attestation.
func ACIMeasurePerformed(n node.Node, errs *[]report.ValidationError) {
	ThoroughlyCheck(n, errs).
		Value(ACIMeasurePerformedID, decode.KeyMeasureID).
		ValueIn(ACIMeasurePerformedValue, decode.KeyMeasurePerformed, "Y", "N")
}

// ---------------------------------------------------------------------------
// IA
// ---------------------------------------------------------------------------

// IASection accepts only IA measures and needs at least one.
func IASection(n node.Node, errs *[]report.ValidationError) {
	ThoroughlyCheck(n, errs).
		ChildMinimum(IASectionMeasures, 1, template.IAMeasure).
		OnlyHasChildren(IASectionOnlyMeasures, template.IAMeasure)
}

// IAMeasure needs an id and exactly one measure performed.
func IAMeasure(n node.Node, errs *[]report.ValidationError) {
	Check(n, errs).
		Value(IAMeasureID, decode.KeyMeasureID).
		ChildMinimum(IAMeasurePerformedCount, 1, template.MeasurePerformed).
		ChildMaximum(IAMeasurePerformedCount, 1, template.MeasurePerformed)
}

// MeasurePerformed accepts Y or N.
func MeasurePerformed(n node.Node, errs *[]report.ValidationError) {
	Check(n, errs).
		ValueIn(MeasurePerformedValue, decode.KeyMeasurePerformed, "Y", "N")
}

// ---------------------------------------------------------------------------
// Quality measures
// ---------------------------------------------------------------------------

// AggregateCount requires a non-negative integer under a counting parent.
func AggregateCount(n node.Node, errs *[]report.ValidationError) {
	Check(n, errs).
		HasParent(AggregateCountParent, template.MeasureData, template.ACINumerator, template.ACIDenominator).
		IntValue(AggregateCountInteger, decode.KeyAggregateCount).
		GreaterThan(AggregateCountNegative, -1)
}

// MeasureData requires a known population type and one aggregate count.
func MeasureData(n node.Node, errs *[]report.ValidationError) {
	Check(n, errs).
		Value(MeasureDataType, decode.KeyType).
		ValueIn(MeasureDataTypeUnknown, decode.KeyType, measures.PopulationTypes...).
		ChildMinimum(MeasureDataAggregate, 1, template.AggregateCount).
		ChildMaximum(MeasureDataAggregate, 1, template.AggregateCount)
}

// QualityMeasureValidator checks that an eCQM is catalogued and reports
// each of its required populations exactly once.
type QualityMeasureValidator struct {
	Catalogue *measures.Catalogue
}

func (v *QualityMeasureValidator) ValidateNode(n node.Node, errs *[]report.ValidationError) {
	emid := n.Value(decode.KeyElectronicMeasureID)
	m, known := v.Catalogue.ByElectronicID(emid)
	c := Check(n, errs).
		Value(QualityMeasureID, decode.KeyElectronicMeasureID).
		Satisfies(fmt.Sprintf(QualityMeasureUnknown, emid), func(node.Node) bool { return known })
	if c.Failed() {
		return
	}

	pc := ThoroughlyCheck(n, errs)
	for _, pop := range m.Populations {
		pc.Satisfies(fmt.Sprintf(QualityMeasurePopulation, measureLabel(m), pop), func(n node.Node) bool {
			return countPopulation(n, pop) == 1
		})
	}
}

func countPopulation(n node.Node, pop string) int {
	count := 0
	for _, d := range n.ChildrenOf(template.MeasureData) {
		if d.Value(decode.KeyType) == pop {
			count++
		}
	}
	return count
}

func measureLabel(m measures.Measure) string {
	if m.MeasureID != "" {
		return m.MeasureID
	}
	return m.ElectronicMeasureID
}

// PerformanceRateCountValidator checks, for CPC+ submissions, that each
// eCQM carries the number of performance rates its catalogue entry
// declares.
type PerformanceRateCountValidator struct {
	Catalogue *measures.Catalogue
}

func (v *PerformanceRateCountValidator) ValidateNode(n node.Node, errs *[]report.ValidationError) {
	if programOf(n) != decode.ProgramCPCPlus {
		return
	}
	m, ok := v.Catalogue.ByElectronicID(n.Value(decode.KeyElectronicMeasureID))
	if !ok {
		return
	}
	msg := fmt.Sprintf(InvalidPerformanceRates, m.PerformanceRates)
	Check(n, errs).
		ChildMinimum(msg, m.PerformanceRates, template.PerformanceRate).
		ChildMaximum(msg, m.PerformanceRates, template.PerformanceRate)
}

// programOf returns the program name of the enclosing clinical document.
func programOf(n node.Node) string {
	cur := n
	for {
		if cur.Kind() == template.ClinicalDocument {
			return cur.Value(decode.KeyProgramName)
		}
		p, ok := cur.Parent()
		if !ok {
			return ""
		}
		cur = p
	}
}

// UniqueMeasures reports every measure id that appears more than once
// among nodes. Nodes without an id are ignored; they fail their own
// single-node checks.
func UniqueMeasures(nodes []node.Node, errs *[]report.ValidationError) {
	seen := make(map[string]bool, len(nodes))
	reported := make(map[string]bool)
	for _, n := range nodes {
		id := n.Value(decode.KeyMeasureID)
		if id == "" {
			continue
		}
		if seen[id] && !reported[id] {
			*errs = append(*errs, report.Newf(n.Path(), DuplicateMeasure, id))
			reported[id] = true
		}
		seen[id] = true
	}
}
