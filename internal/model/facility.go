package model

import "strings"

// SummaryMetrics holds the headline financials of one facility section.
// Values read directly from matched summary rows always win over values
// derived by summing categorized line items.
type SummaryMetrics struct {
	TotalRevenue  float64 `json:"total_revenue"`
	TotalExpenses float64 `json:"total_expenses"`
	EBITDAR       float64 `json:"ebitdar"`
	EBITDA        float64 `json:"ebitda"`
	NetIncome     float64 `json:"net_income"`
	ManagementFee float64 `json:"management_fee,omitempty"`
	LeaseExpense  float64 `json:"lease_expense,omitempty"`
	ProviderTax   float64 `json:"provider_tax,omitempty"`
}

// CensusData captures occupancy-related rows when present.
type CensusData struct {
	TotalPatientDays float64 `json:"total_patient_days,omitempty"`
	AverageCensus    float64 `json:"average_census,omitempty"`
	Occupancy        float64 `json:"occupancy,omitempty"`
	MedicaidDays     float64 `json:"medicaid_days,omitempty"`
	MedicareDays     float64 `json:"medicare_days,omitempty"`
}

// RowRange marks the physical extent of a facility section within a sheet.
type RowRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// FacilitySection is the parsed profit/loss detail for one facility.
type FacilitySection struct {
	FacilityName   string         `json:"facility_name"`
	FacilityType   string         `json:"facility_type,omitempty"`
	RowRange       RowRange       `json:"row_range"`
	LineItems      []LineItem     `json:"line_items"`
	Census         *CensusData    `json:"census,omitempty"`
	SummaryMetrics SummaryMetrics `json:"summary_metrics"`
	Beds           int            `json:"beds,omitempty"`
	LeaseOwned     string         `json:"lease_owned,omitempty"`
	PropertyName   string         `json:"property_name,omitempty"`
	SourceSheet    string         `json:"source_sheet,omitempty"`
}

// FacilityMappingEntry cross-references an operating-company alias with its
// property record. Many aliases may resolve to one property.
type FacilityMappingEntry struct {
	OpcoName     string `json:"opco_name"`
	PropertyName string `json:"property_name"`
	Beds         int    `json:"beds"`
	LeaseOwned   string `json:"lease_owned"`
	BusinessLine string `json:"business_line,omitempty"`
}

// NormalizeFacilityName lowers and trims a facility name for dedup and
// cross-file matching.
func NormalizeFacilityName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
