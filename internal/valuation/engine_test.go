package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/valuation-cli/internal/model"
)

func snfClass(name string, beds int) model.FacilityClassification {
	return model.FacilityClassification{
		FacilityName:    name,
		PropertyType:    model.PropertySNFOwned,
		ValuationMethod: model.MethodEBITDARCapRate,
		ApplicableRate:  0.125,
		Beds:            beds,
	}
}

func snfSection(name string, ebitdar float64) model.FacilitySection {
	return model.FacilitySection{
		FacilityName:   name,
		SummaryMetrics: model.SummaryMetrics{EBITDAR: ebitdar},
	}
}

func TestRun_CapRatePortfolio(t *testing.T) {
	classes := []model.FacilityClassification{
		snfClass("Cedar Ridge", 120),
		snfClass("Willowbrook", 90),
		snfClass("Maple Manor", 60),
	}
	sections := []model.FacilitySection{
		snfSection("Cedar Ridge", 2000000),
		snfSection("Willowbrook", 2000000),
		snfSection("Maple Manor", 2000000),
	}

	result := Run(classes, sections, nil)

	require.Len(t, result.Facilities, 3)
	// 2,000,000 / 0.125 = 16,000,000 each.
	assert.InDelta(t, 16000000, result.Facilities[0].Value, 0.01)
	assert.InDelta(t, 48000000, result.PortfolioValue, 0.01)
	assert.InDelta(t, 48000000, result.CategoryTotals[model.PropertySNFOwned], 0.01)
	assert.Equal(t, 3, result.FacilitiesByType[model.PropertySNFOwned])
	assert.Equal(t, 270, result.TotalBeds)
	assert.InDelta(t, 48000000.0/270, result.AvgValuePerBed, 0.01)
}

func TestRun_SensitivityBaseRowIsZeroDelta(t *testing.T) {
	classes := []model.FacilityClassification{snfClass("Cedar Ridge", 100)}
	sections := []model.FacilitySection{snfSection("Cedar Ridge", 1000000)}

	result := Run(classes, sections, nil)

	require.Len(t, result.Sensitivity, 9)
	assert.Equal(t, -2.0, result.Sensitivity[0].DeltaPoints)
	assert.Equal(t, 2.0, result.Sensitivity[8].DeltaPoints)

	base := result.Sensitivity[4]
	assert.Equal(t, 0.0, base.DeltaPoints)
	assert.InDelta(t, result.PortfolioValue, base.PortfolioValue, 0.01)
	assert.InDelta(t, 0, base.DeltaValue, 0.01)
	assert.InDelta(t, 0, base.DeltaPercent, 0.0001)

	// Lower cap rates raise value, higher rates lower it.
	assert.Greater(t, result.Sensitivity[0].PortfolioValue, base.PortfolioValue)
	assert.Less(t, result.Sensitivity[8].PortfolioValue, base.PortfolioValue)
}

func TestRun_MultiplierFacilityInsensitiveToCapRate(t *testing.T) {
	classes := []model.FacilityClassification{{
		FacilityName:    "Sunset Terrace",
		PropertyType:    model.PropertyLeased,
		ValuationMethod: model.MethodEBITMultiplier,
		ApplicableRate:  2.5,
	}}
	sections := []model.FacilitySection{{
		FacilityName:   "Sunset Terrace",
		SummaryMetrics: model.SummaryMetrics{EBITDA: 600000},
	}}

	result := Run(classes, sections, nil)

	require.Len(t, result.Facilities, 1)
	assert.InDelta(t, 1500000, result.Facilities[0].Value, 0.01)

	for _, row := range result.Sensitivity {
		assert.InDelta(t, 1500000, row.PortfolioValue, 0.01, "step %v", row.DeltaPoints)
	}
}

func TestRun_CapRateFloor(t *testing.T) {
	cls := snfClass("Cedar Ridge", 0)
	cls.ApplicableRate = 0.02
	sections := []model.FacilitySection{snfSection("Cedar Ridge", 100000)}

	result := Run([]model.FacilityClassification{cls}, sections, nil)

	// At -2.0 points the perturbed rate 0.0 clamps to the 0.01 floor.
	worst := result.Sensitivity[0]
	assert.Equal(t, -2.0, worst.DeltaPoints)
	assert.InDelta(t, 100000/0.01, worst.PortfolioValue, 0.01)
}

func TestRun_EBITDARFallsBackToRevenueMinusExpenses(t *testing.T) {
	classes := []model.FacilityClassification{snfClass("Cedar Ridge", 0)}
	sections := []model.FacilitySection{{
		FacilityName: "Cedar Ridge",
		SummaryMetrics: model.SummaryMetrics{
			TotalRevenue:  7000000,
			TotalExpenses: 6000000,
		},
	}}

	result := Run(classes, sections, nil)

	require.Len(t, result.Facilities, 1)
	assert.InDelta(t, 1000000, result.Facilities[0].Metric, 0.01)
	assert.InDelta(t, 8000000, result.Facilities[0].Value, 0.01)
}

func TestRun_AssetEntryFillsMissingSection(t *testing.T) {
	classes := []model.FacilityClassification{snfClass("Vista Pointe", 80)}
	entries := []model.AssetValuationEntry{{
		FacilityName: "Vista Pointe",
		EBITDAByYear: map[string]float64{"2023": 1250000},
	}}

	result := Run(classes, nil, entries)

	require.Len(t, result.Facilities, 1)
	assert.InDelta(t, 1250000, result.Facilities[0].Metric, 0.01)
	assert.InDelta(t, 10000000, result.Facilities[0].Value, 0.01)
	assert.InDelta(t, 125000, result.Facilities[0].ValuePerBed, 0.01)
}

func TestRun_ZeroMetricFacilityStillAppears(t *testing.T) {
	classes := []model.FacilityClassification{snfClass("Empty Facility", 50)}

	result := Run(classes, nil, nil)

	require.Len(t, result.Facilities, 1)
	assert.Equal(t, 0.0, result.Facilities[0].Value)
	assert.Equal(t, 50, result.TotalBeds)
}
