package decode

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/alnah/go-qrda2qpp/internal/measures"
	"github.com/alnah/go-qrda2qpp/internal/node"
	"github.com/alnah/go-qrda2qpp/internal/registry"
	"github.com/alnah/go-qrda2qpp/internal/template"
)

// Attribute keys written by the decoders.
const (
	KeyProgramName         = "programName"
	KeyEntityType          = "entityType"
	KeyTIN                 = "taxpayerIdentificationNumber"
	KeyNPI                 = "nationalProviderIdentifier"
	KeyPerformanceStart    = "performanceStart"
	KeyPerformanceEnd      = "performanceEnd"
	KeyPerformanceYear     = "performanceYear"
	KeyCategory            = "category"
	KeyMeasureID           = "measureId"
	KeyElectronicMeasureID = "electronicMeasureId"
	KeyType                = "type"
	KeyAggregateCount      = "aggregateCount"
	KeyRate                = "rate"
	KeyNullFlavor          = "nullFlavor"
	KeyMeasurePerformed    = "measurePerformed"
)

// Program names recognized downstream.
const (
	ProgramMIPS    = "mips"
	ProgramCPCPlus = "cpcplus"
)

// Section categories.
const (
	CategoryACI     = "aci"
	CategoryIA      = "ia"
	CategoryQuality = "quality"
)

// Register binds every decoder to b. cat resolves eCQM identifiers.
func Register(b *registry.Builder, cat *measures.Catalogue) error {
	decoders := []struct {
		kind template.Kind
		dec  registry.Decoder
	}{
		{template.ClinicalDocument, registry.DecoderFunc(decodeClinicalDocument)},
		{template.ReportingParametersSection, registry.DecoderFunc(decodeContainer)},
		{template.ReportingParametersAct, registry.DecoderFunc(decodeReportingParameters)},
		{template.ACISection, sectionDecoder(CategoryACI)},
		{template.IASection, sectionDecoder(CategoryIA)},
		{template.MeasureSection, sectionDecoder(CategoryQuality)},
		{template.MeasureReferenceResults, &measureReferenceDecoder{cat: cat}},
		{template.MeasureData, registry.DecoderFunc(decodeMeasureData)},
		{template.AggregateCount, registry.DecoderFunc(decodeAggregateCount)},
		{template.PerformanceRate, registry.DecoderFunc(decodePerformanceRate)},
		{template.ACINumeratorDenominator, registry.DecoderFunc(decodeMeasureReference)},
		{template.ACINumerator, registry.DecoderFunc(decodeContainer)},
		{template.ACIDenominator, registry.DecoderFunc(decodeContainer)},
		{template.ACIMeasurePerformed, registry.DecoderFunc(decodeACIMeasurePerformed)},
		{template.IAMeasure, registry.DecoderFunc(decodeMeasureReference)},
		{template.MeasurePerformed, registry.DecoderFunc(decodeMeasurePerformed)},
		{template.Default, registry.DecoderFunc(decodeDefault)},
	}
	for _, d := range decoders {
		if err := b.Decoder(d.kind, d.dec); err != nil {
			return err
		}
	}
	return nil
}

func decodeContainer(*etree.Element, node.Node) (registry.Action, error) {
	return registry.Continue, nil
}

func decodeClinicalDocument(el *etree.Element, n node.Node) (registry.Action, error) {
	recipients := findAll(el, "informationRecipient", "intendedRecipient", "id")
	if ext, ok := idExtension(recipients, programNameRoot); ok {
		n.Put(KeyProgramName, programName(ext))
		n.Put(KeyEntityType, entityType(ext))
	}

	for _, ae := range findAll(el, "documentationOf", "serviceEvent", "performer", "assignedEntity") {
		if _, ok := n.Lookup(KeyTIN); !ok {
			if tin, ok := idExtension(findAll(ae, "representedOrganization", "id"), tinRoot); ok {
				n.Put(KeyTIN, tin)
			}
		}
		if _, ok := n.Lookup(KeyNPI); !ok {
			if npi, ok := idExtension(children(ae, "id"), npiRoot); ok {
				n.Put(KeyNPI, npi)
			}
		}
	}
	return registry.Continue, nil
}

// programName maps the intended recipient extension to a program.
// Unrecognized values are kept, lower-cased, so validation can report them.
func programName(ext string) string {
	switch strings.ToUpper(ext) {
	case "MIPS", "MIPS_INDIV", "MIPS_GROUP":
		return ProgramMIPS
	case "CPCPLUS":
		return ProgramCPCPlus
	default:
		return strings.ToLower(ext)
	}
}

func entityType(ext string) string {
	if strings.EqualFold(ext, "MIPS_INDIV") {
		return "individual"
	}
	return "group"
}

func decodeReportingParameters(el *etree.Element, n node.Node) (registry.Action, error) {
	if start := attr(first(el, "effectiveTime", "low"), "value"); start != "" {
		n.Put(KeyPerformanceStart, start)
		if year, ok := yearOf(start); ok {
			n.Put(KeyPerformanceYear, year)
		}
	}
	if end := attr(first(el, "effectiveTime", "high"), "value"); end != "" {
		n.Put(KeyPerformanceEnd, end)
	}
	return registry.Finish, nil
}

// yearOf returns the leading four digits of an HL7 timestamp.
func yearOf(ts string) (string, bool) {
	if len(ts) < 4 {
		return "", false
	}
	for _, r := range ts[:4] {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return ts[:4], true
}

func sectionDecoder(category string) registry.DecoderFunc {
	return func(_ *etree.Element, n node.Node) (registry.Action, error) {
		n.Put(KeyCategory, category)
		return registry.Continue, nil
	}
}

type measureReferenceDecoder struct {
	cat *measures.Catalogue
}

func (d *measureReferenceDecoder) Decode(el *etree.Element, n node.Node) (registry.Action, error) {
	emid := referenceID(el, ecqmMeasureRoot)
	if emid == "" {
		return registry.Continue, nil
	}
	n.Put(KeyElectronicMeasureID, emid)
	if d.cat != nil {
		if m, ok := d.cat.ByElectronicID(emid); ok && m.MeasureID != "" {
			n.Put(KeyMeasureID, m.MeasureID)
			return registry.Continue, nil
		}
	}
	n.Put(KeyMeasureID, emid)
	return registry.Continue, nil
}

func decodeMeasureReference(el *etree.Element, n node.Node) (registry.Action, error) {
	if id := referenceID(el, ""); id != "" {
		n.Put(KeyMeasureID, id)
	}
	return registry.Continue, nil
}

func decodeMeasureData(el *etree.Element, n node.Node) (registry.Action, error) {
	if code := attr(first(el, "value"), "code"); code != "" {
		n.Put(KeyType, strings.ToUpper(code))
	}
	return registry.Continue, nil
}

func decodeAggregateCount(el *etree.Element, n node.Node) (registry.Action, error) {
	value := first(el, "value")
	if value == nil {
		return registry.Finish, nil
	}
	if typ := attr(value, xsiTypeAttribute); typ != "" && !strings.EqualFold(typ, "INT") {
		return registry.Finish, fmt.Errorf("%w: aggregate count is %s, want INT", ErrValueType, typ)
	}
	if v := attr(value, "value"); v != "" {
		n.Put(KeyAggregateCount, v)
	}
	return registry.Finish, nil
}

func decodePerformanceRate(el *etree.Element, n node.Node) (registry.Action, error) {
	value := first(el, "value")
	if nf := attr(value, "nullFlavor"); nf != "" {
		n.Put(KeyNullFlavor, nf)
	}
	if v := attr(value, "value"); v != "" {
		n.Put(KeyRate, v)
	}
	return registry.Finish, nil
}

func decodeMeasurePerformed(el *etree.Element, n node.Node) (registry.Action, error) {
	if code := attr(first(el, "value"), "code"); code != "" {
		n.Put(KeyMeasurePerformed, strings.ToUpper(code))
	}
	return registry.Finish, nil
}

func decodeACIMeasurePerformed(el *etree.Element, n node.Node) (registry.Action, error) {
	if id := referenceID(el, ""); id != "" {
		n.Put(KeyMeasureID, id)
	}
	// The performed observation may sit directly on the entry or one
	// component level down.
	value := first(el, "value")
	if value == nil {
		value = first(el, "component", "observation", "value")
	}
	if code := attr(value, "code"); code != "" {
		n.Put(KeyMeasurePerformed, strings.ToUpper(code))
	}
	return registry.Finish, nil
}

// decodeDefault captures the raw attributes of an element nothing else
// claims.
func decodeDefault(el *etree.Element, n node.Node) (registry.Action, error) {
	n.Put("element", el.Tag)
	for _, a := range el.Attr {
		if a.Space == "xmlns" || a.Key == "xmlns" {
			continue
		}
		n.Put(qualifiedName(a), a.Value)
	}
	return registry.Continue, nil
}
