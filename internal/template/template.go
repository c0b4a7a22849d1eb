// Package template defines the closed set of QRDA template kinds and the
// template identifiers that select them.
package template

import (
	"slices"
	"strings"
)

// Kind identifies the role of a decoded unit of markup.
type Kind uint8

// Template kinds. Unknown is the zero value and never appears in a tree.
const (
	Unknown Kind = iota
	ClinicalDocument
	ReportingParametersSection
	ReportingParametersAct
	ACISection
	IASection
	MeasureSection
	MeasureReferenceResults
	MeasureData
	AggregateCount
	PerformanceRate
	ACINumeratorDenominator
	ACINumerator
	ACIDenominator
	ACIMeasurePerformed
	IAMeasure
	MeasurePerformed
	Default
	Placeholder

	kindCount
)

var names = [kindCount]string{
	Unknown:                    "unknown",
	ClinicalDocument:           "clinicalDocument",
	ReportingParametersSection: "reportingParametersSection",
	ReportingParametersAct:     "reportingParametersAct",
	ACISection:                 "aciSection",
	IASection:                  "iaSection",
	MeasureSection:             "measureSection",
	MeasureReferenceResults:    "measureReferenceResults",
	MeasureData:                "measureData",
	AggregateCount:             "aggregateCount",
	PerformanceRate:            "performanceRate",
	ACINumeratorDenominator:    "aciNumeratorDenominator",
	ACINumerator:               "aciNumerator",
	ACIDenominator:             "aciDenominator",
	ACIMeasurePerformed:        "aciMeasurePerformed",
	IAMeasure:                  "iaMeasure",
	MeasurePerformed:           "measurePerformed",
	Default:                    "default",
	Placeholder:                "placeholder",
}

// String returns the camel-case name used in error paths.
func (k Kind) String() string {
	if k >= kindCount {
		return "unknown"
	}
	return names[k]
}

// Valid reports whether k is a declared kind other than Unknown.
func (k Kind) Valid() bool {
	return k > Unknown && k < kindCount
}

// Synthetic reports whether k is produced by the decoder itself rather
// than selected by a template identifier.
func (k Kind) Synthetic() bool {
	return k == Default || k == Placeholder
}

// All returns every valid kind in declaration order.
func All() []Kind {
	kinds := make([]Kind, 0, kindCount-1)
	for k := Unknown + 1; k < kindCount; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Document template identifiers. Either one marks the root of a QRDA-III
// submission.
const (
	DocumentRoot      = "2.16.840.1.113883.10.20.27.1.1"
	DocumentRootCMSV2 = "2.16.840.1.113883.10.20.27.1.2"
)

// ids maps a template identifier to its kind. Keys are "root" or
// "root:extension"; lookups try the extended key first.
var ids = map[string]Kind{
	DocumentRoot:                      ClinicalDocument,
	DocumentRootCMSV2:                 ClinicalDocument,
	"2.16.840.1.113883.10.20.17.2.1":  ReportingParametersSection,
	"2.16.840.1.113883.10.20.17.3.8":  ReportingParametersAct,
	"2.16.840.1.113883.10.20.27.2.5":  ACISection,
	"2.16.840.1.113883.10.20.27.2.4":  IASection,
	"2.16.840.1.113883.10.20.27.2.1":  MeasureSection,
	"2.16.840.1.113883.10.20.27.2.3":  MeasureSection,
	"2.16.840.1.113883.10.20.27.3.1":  MeasureReferenceResults,
	"2.16.840.1.113883.10.20.27.3.17": MeasureReferenceResults,
	"2.16.840.1.113883.10.20.27.3.5":  MeasureData,
	"2.16.840.1.113883.10.20.27.3.16": MeasureData,
	"2.16.840.1.113883.10.20.27.3.3":  AggregateCount,
	"2.16.840.1.113883.10.20.27.3.14": PerformanceRate,
	"2.16.840.1.113883.10.20.27.3.25": PerformanceRate,
	"2.16.840.1.113883.10.20.27.3.28": ACINumeratorDenominator,
	"2.16.840.1.113883.10.20.27.3.31": ACINumerator,
	"2.16.840.1.113883.10.20.27.3.32": ACIDenominator,
	"2.16.840.1.113883.10.20.27.3.29": ACIMeasurePerformed,
	"2.16.840.1.113883.10.20.27.3.33": IAMeasure,
	"2.16.840.1.113883.10.20.27.3.27": MeasurePerformed,
}

// ID formats a template identifier key from its root and extension.
func ID(root, extension string) string {
	root = strings.TrimSpace(root)
	extension = strings.TrimSpace(extension)
	if extension == "" {
		return root
	}
	return root + ":" + extension
}

// Lookup returns the kind for a templateId root/extension pair.
// The extended form wins over the bare root when both are known.
func Lookup(root, extension string) (Kind, bool) {
	if extension != "" {
		if k, ok := ids[ID(root, extension)]; ok {
			return k, true
		}
	}
	k, ok := ids[strings.TrimSpace(root)]
	return k, ok
}

// IsDocument reports whether root names a clinical document template.
func IsDocument(root string) bool {
	k, ok := ids[strings.TrimSpace(root)]
	return ok && k == ClinicalDocument
}

// IDs returns every template identifier bound to k, sorted.
func IDs(k Kind) []string {
	var out []string
	for id, kind := range ids {
		if kind == k {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}
