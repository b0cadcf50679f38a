package model

// ValuationMethod names the formula applied to a facility.
type ValuationMethod string

const (
	MethodEBITDARCapRate ValuationMethod = "ebitdar_cap_rate"
	MethodEBITMultiplier ValuationMethod = "ebit_multiplier"
)

// FacilityClassification assigns a property type and valuation method to one
// facility. Derived from valuation-file evidence or P/L heuristics; one per
// facility, deduplicated by normalized name.
type FacilityClassification struct {
	FacilityName    string          `json:"facility_name"`
	PropertyType    PropertyType    `json:"property_type"`
	ValuationMethod ValuationMethod `json:"valuation_method"`
	ApplicableRate  float64         `json:"applicable_rate"`
	Beds            int             `json:"beds,omitempty"`
	SNCPercent      float64         `json:"snc_percent,omitempty"`
	Confidence      float64         `json:"confidence"`
	Indicators      []string        `json:"indicators,omitempty"`
}

// CascadiaFacilityValuation is the computed value for one facility.
type CascadiaFacilityValuation struct {
	FacilityName    string          `json:"facility_name"`
	PropertyType    PropertyType    `json:"property_type"`
	ValuationMethod ValuationMethod `json:"valuation_method"`
	Metric          float64         `json:"metric"`
	Rate            float64         `json:"rate"`
	Value           float64         `json:"value"`
	Beds            int             `json:"beds,omitempty"`
	ValuePerBed     float64         `json:"value_per_bed,omitempty"`
}

// SensitivityRow is one cap-rate perturbation of the portfolio value.
type SensitivityRow struct {
	DeltaPoints    float64 `json:"delta_points"`
	PortfolioValue float64 `json:"portfolio_value"`
	DeltaValue     float64 `json:"delta_value"`
	DeltaPercent   float64 `json:"delta_percent"`
}

// CascadiaValuationResult aggregates facility values into category and
// portfolio totals plus a cap-rate sensitivity table. Regenerated every run.
type CascadiaValuationResult struct {
	Facilities        []CascadiaFacilityValuation  `json:"facilities"`
	CategoryTotals    map[PropertyType]float64     `json:"category_totals"`
	PortfolioValue    float64                      `json:"portfolio_value"`
	TotalBeds         int                          `json:"total_beds"`
	AvgValuePerBed    float64                      `json:"avg_value_per_bed"`
	Sensitivity       []SensitivityRow             `json:"sensitivity"`
	FacilitiesByType  map[PropertyType]int         `json:"facilities_by_type,omitempty"`
}
