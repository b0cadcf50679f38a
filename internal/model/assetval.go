package model

// PropertyType is the valuation bucket a facility falls into.
type PropertyType string

const (
	PropertySNFOwned PropertyType = "SNF-Owned"
	PropertyLeased   PropertyType = "Leased"
	PropertyALFOwned PropertyType = "ALF/SNC-Owned"
)

// AssetValuationEntry holds the valuation inputs read for one facility from
// an asset-valuation workbook. At most one of CapRate/Multiplier is set; the
// populated field decides whether the entry is EBITDA-cap-rate-based or
// net-income-multiplier-based.
type AssetValuationEntry struct {
	FacilityName string             `json:"facility_name"`
	PropertyType PropertyType       `json:"property_type"`
	Beds         int                `json:"beds"`
	SNCPercent   float64            `json:"snc_percent,omitempty"`
	CapRate      float64            `json:"cap_rate,omitempty"`
	Multiplier   float64            `json:"multiplier,omitempty"`
	EBITDAByYear map[string]float64 `json:"ebitda_by_year,omitempty"`
	ValueByYear  map[string]float64 `json:"value_by_year,omitempty"`
	ValuePerBed  map[string]float64 `json:"value_per_bed,omitempty"`
	RowIndex     int                `json:"row_index"`
}

// LatestEBITDA returns the most recent year's EBITDA (or net income for
// multiplier-based entries), or 0 when none was read.
func (e *AssetValuationEntry) LatestEBITDA() float64 {
	return latestByYear(e.EBITDAByYear)
}

// LatestValue returns the most recent year's computed value.
func (e *AssetValuationEntry) LatestValue() float64 {
	return latestByYear(e.ValueByYear)
}

func latestByYear(byYear map[string]float64) float64 {
	var latest string
	var v float64
	for year, val := range byYear {
		if year > latest {
			latest = year
			v = val
		}
	}
	return v
}
