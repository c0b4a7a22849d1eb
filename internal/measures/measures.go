// Package measures provides the catalogue of quality and ACI measures the
// converter recognizes.
package measures

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/alnah/go-qrda2qpp/internal/yamlutil"
)

//go:embed measures.yaml
var embedded []byte

// Sentinel errors for catalogue loading.
var (
	ErrEmptyCatalogue   = errors.New("measure catalogue is empty")
	ErrCatalogueParse   = errors.New("failed to parse measure catalogue")
	ErrDuplicateMeasure = errors.New("duplicate measure")
)

// Population codes used by quality measure data.
const (
	InitialPopulation    = "IPOP"
	Denominator          = "DENOM"
	Numerator            = "NUMER"
	DenominatorExclusion = "DENEX"
	DenominatorException = "DENEXCEP"
)

// defaultPerformanceRates applies when a catalogue entry omits the count.
const defaultPerformanceRates = 1

// PopulationTypes lists every population code a measure data entry may carry.
var PopulationTypes = []string{InitialPopulation, Denominator, Numerator, DenominatorExclusion, DenominatorException}

// Measure describes one electronic clinical quality measure.
type Measure struct {
	ElectronicMeasureID string   `yaml:"electronicMeasureId"`
	MeasureID           string   `yaml:"measureId"`
	Title               string   `yaml:"title"`
	PerformanceRates    int      `yaml:"performanceRates"`
	Populations         []string `yaml:"populations"`
}

// Catalogue indexes measures by electronic measure id.
type Catalogue struct {
	Quality     []Measure `yaml:"quality"`
	ACIRequired []string  `yaml:"aciRequired"`

	byElectronicID map[string]int
}

// Parse reads a catalogue from YAML. Unknown fields are rejected.
func Parse(data []byte) (*Catalogue, error) {
	if len(data) == 0 {
		return nil, ErrEmptyCatalogue
	}
	var c Catalogue
	if err := yamlutil.Decode(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogueParse, err)
	}
	c.byElectronicID = make(map[string]int, len(c.Quality))
	for i := range c.Quality {
		m := &c.Quality[i]
		m.ElectronicMeasureID = strings.ToLower(strings.TrimSpace(m.ElectronicMeasureID))
		if m.PerformanceRates == 0 {
			m.PerformanceRates = defaultPerformanceRates
		}
		if _, dup := c.byElectronicID[m.ElectronicMeasureID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateMeasure, m.ElectronicMeasureID)
		}
		c.byElectronicID[m.ElectronicMeasureID] = i
	}
	return &c, nil
}

// Default returns the embedded catalogue, parsed once.
var Default = sync.OnceValues(func() (*Catalogue, error) {
	return Parse(embedded)
})

// ByElectronicID finds a quality measure by its electronic measure id.
// Matching ignores case.
func (c *Catalogue) ByElectronicID(id string) (Measure, bool) {
	i, ok := c.byElectronicID[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return Measure{}, false
	}
	return c.Quality[i], true
}

// RequiredACI returns the ACI measure ids every ACI section must report.
func (c *Catalogue) RequiredACI() []string {
	return c.ACIRequired
}
