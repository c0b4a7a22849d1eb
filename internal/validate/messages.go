package validate

// Clinical document messages.
const (
	ClinicalDocumentRequired     = "Clinical Document Node is required"
	OnlyOneClinicalDocument      = "Only one Clinical Document Node is allowed"
	ReportingParameterRequired   = "Clinical Document must have one and only one Reporting Parameters Section"
	ContainsSections             = "Clinical Document Node must have at least one Aci or IA or eCQM Section Node as a child"
	ContainsProgramName          = "Clinical Document must have a program name"
	IncorrectProgramName         = "Clinical Document program name is not recognized"
	ContainsTaxIDNumber          = "Clinical Document must have Tax ID Number (TIN)"
	ContainsPerformanceYear      = "Must have a performance year"
	ContainsDuplicateACISections = "Clinical Document contains duplicate ACI sections"
	ContainsDuplicateIASections  = "Clinical Document contains duplicate IA sections"
	ContainsDuplicateECQMSection = "Clinical Document contains duplicate eCQM sections"
)

// Reporting parameters messages.
const (
	PerformanceStartRequired = "Reporting parameters must have a performance start"
	PerformanceEndRequired   = "Reporting parameters must have a performance end"
)

// ACI messages.
const (
	ACISectionCategory       = "ACI Section must have a category of aci"
	ACISectionMeasures       = "ACI Section must have at least one measure"
	ACISectionRequired       = "ACI Section is missing one of the required measures: %s"
	ACINumDenomMeasureID     = "ACI Numerator Denominator must have a measure id"
	ACINumDenomNumerator     = "ACI Numerator Denominator must have exactly one numerator"
	ACINumDenomDenominator   = "ACI Numerator Denominator must have exactly one denominator"
	ACIAggregateCount        = "ACI %s must have exactly one Aggregate Count"
	ACIMeasurePerformedID    = "ACI measure performed must have a measure id"
	ACIMeasurePerformedValue = "ACI measure performed must be Y or N"
)

// IA messages.
const (
	IASectionOnlyMeasures   = "IA Section must only contain IA measures"
	IASectionMeasures       = "IA Section must have at least one IA measure"
	IAMeasureID             = "IA Measure must have a measure id"
	IAMeasurePerformedCount = "IA Measure must have exactly one Measure Performed"
	MeasurePerformedValue   = "Measure performed must be Y or N"
)

// Aggregate count and measure data messages.
const (
	AggregateCountInteger    = "Aggregate count must be an integer"
	AggregateCountNegative   = "Aggregate count must not be negative"
	AggregateCountParent     = "Aggregate count must belong to a measure data or ACI numerator/denominator"
	MeasureDataType          = "Measure data must have a population type"
	MeasureDataTypeUnknown   = "Measure data population type is not recognized"
	MeasureDataAggregate     = "Measure data must have exactly one aggregate count"
	QualityMeasureID         = "Quality measure must have a measure id"
	QualityMeasureUnknown    = "Quality measure %s is not a recognized eCQM"
	QualityMeasurePopulation = "Quality measure %s must have exactly one %s population"
	InvalidPerformanceRates  = "Must contain correct number of performance rate(s). Correct Number is %d"
	DuplicateMeasure         = "Measure %s is reported more than once"
)
