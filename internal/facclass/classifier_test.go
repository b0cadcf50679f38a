package facclass

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/valuation-cli/internal/model"
)

func TestRateFor(t *testing.T) {
	rate, method := RateFor(model.PropertySNFOwned, 0)
	assert.Equal(t, 0.125, rate)
	assert.Equal(t, model.MethodEBITDARCapRate, method)

	rate, method = RateFor(model.PropertyLeased, 0)
	assert.Equal(t, 2.5, rate)
	assert.Equal(t, model.MethodEBITMultiplier, method)

	// ALF rates tier on the SNC mix; the break sits at 33%.
	rate, _ = RateFor(model.PropertyALFOwned, 0)
	assert.Equal(t, 0.08, rate)
	rate, _ = RateFor(model.PropertyALFOwned, 0.20)
	assert.Equal(t, 0.09, rate)
	rate, _ = RateFor(model.PropertyALFOwned, 0.33)
	assert.Equal(t, 0.09, rate)
	rate, _ = RateFor(model.PropertyALFOwned, 0.34)
	assert.Equal(t, 0.12, rate)
}

func TestClampLeaseMultiplier(t *testing.T) {
	assert.Equal(t, 2.0, ClampLeaseMultiplier(1.5))
	assert.Equal(t, 2.5, ClampLeaseMultiplier(2.5))
	assert.Equal(t, 3.0, ClampLeaseMultiplier(4.0))
}

func TestClassify_AssetEntryWins(t *testing.T) {
	sections := []model.FacilitySection{
		{FacilityName: "Cedar Ridge Health", Beds: 0},
	}
	entries := []model.AssetValuationEntry{
		{FacilityName: "Cedar Ridge Health", PropertyType: model.PropertySNFOwned, Beds: 120, CapRate: 0.13},
	}

	out := Classify(sections, entries)
	require.Len(t, out, 1)

	cls := out[0]
	assert.Equal(t, model.PropertySNFOwned, cls.PropertyType)
	assert.Equal(t, model.MethodEBITDARCapRate, cls.ValuationMethod)
	assert.Equal(t, 0.13, cls.ApplicableRate)
	assert.Equal(t, 120, cls.Beds)
	assert.Equal(t, 0.95, cls.Confidence)
	assert.Contains(t, cls.Indicators, "matched asset valuation entry")
}

func TestClassify_AssetEntryMultiplierClamped(t *testing.T) {
	sections := []model.FacilitySection{{FacilityName: "Sunset Terrace"}}
	entries := []model.AssetValuationEntry{
		{FacilityName: "Sunset Terrace", PropertyType: model.PropertyLeased, Multiplier: 4.2},
	}

	out := Classify(sections, entries)
	require.Len(t, out, 1)

	assert.Equal(t, model.MethodEBITMultiplier, out[0].ValuationMethod)
	assert.Equal(t, 3.0, out[0].ApplicableRate)
}

func TestClassify_TypeAnnotation(t *testing.T) {
	sections := []model.FacilitySection{
		{FacilityName: "Maple Manor", FacilityType: "ALF"},
		{FacilityName: "Cedar Ridge", FacilityType: "SNF"},
	}

	out := Classify(sections, nil)
	require.Len(t, out, 2)

	assert.Equal(t, model.PropertyALFOwned, out[0].PropertyType)
	assert.Equal(t, 0.08, out[0].ApplicableRate)
	assert.Equal(t, 0.6, out[0].Confidence)

	assert.Equal(t, model.PropertySNFOwned, out[1].PropertyType)
	assert.Equal(t, 0.125, out[1].ApplicableRate)
}

func TestClassify_LeaseWithoutPropertyTax(t *testing.T) {
	sections := []model.FacilitySection{{
		FacilityName: "Willowbrook",
		LeaseOwned:   "Leased",
		LineItems: []model.LineItem{
			{Label: "Lease Expense", Category: model.CategoryExpense, AnnualValue: 900000},
		},
	}}

	out := Classify(sections, nil)
	require.Len(t, out, 1)

	cls := out[0]
	assert.Equal(t, model.PropertyLeased, cls.PropertyType)
	assert.Equal(t, model.MethodEBITMultiplier, cls.ValuationMethod)
	assert.Equal(t, 2.5, cls.ApplicableRate)
	// Mapping status plus lease line: two indicators.
	assert.Equal(t, 0.8, cls.Confidence)
}

func TestClassify_LeaseLineNegatedByPropertyTax(t *testing.T) {
	sections := []model.FacilitySection{{
		FacilityName: "Cedar Ridge",
		LineItems: []model.LineItem{
			{Label: "Lease Expense", Category: model.CategoryExpense, AnnualValue: 900000},
			{Label: "Property Taxes", Category: model.CategoryExpense, AnnualValue: 120000},
		},
	}}

	out := Classify(sections, nil)
	require.Len(t, out, 1)

	// Owning the real estate (property tax) overrides the lease line.
	assert.Equal(t, model.PropertySNFOwned, out[0].PropertyType)
	assert.Equal(t, 0.5, out[0].Confidence)
}

func TestClassify_SNCRevenueEvidence(t *testing.T) {
	sections := []model.FacilitySection{{
		FacilityName:   "Maple Gardens",
		SummaryMetrics: model.SummaryMetrics{TotalRevenue: 1000000},
		LineItems: []model.LineItem{
			{Label: "Assisted Living Revenue", Category: model.CategoryRevenue, AnnualValue: 400000},
			{Label: "Medicaid Revenue", Category: model.CategoryRevenue, AnnualValue: 600000},
		},
	}}

	out := Classify(sections, nil)
	require.Len(t, out, 1)

	cls := out[0]
	assert.Equal(t, model.PropertyALFOwned, cls.PropertyType)
	assert.InDelta(t, 0.40, cls.SNCPercent, 0.0001)
	// 40% SNC falls in the high tier.
	assert.Equal(t, 0.12, cls.ApplicableRate)
	assert.Equal(t, 0.8, cls.Confidence)
}

func TestClassify_DefaultSNFNoSignal(t *testing.T) {
	sections := []model.FacilitySection{{FacilityName: "Plain Facility LLC"}}

	out := Classify(sections, nil)
	require.Len(t, out, 1)

	cls := out[0]
	assert.Equal(t, model.PropertySNFOwned, cls.PropertyType)
	assert.Equal(t, 0.125, cls.ApplicableRate)
	assert.Equal(t, 0.5, cls.Confidence)
	assert.Empty(t, cls.Indicators)
}

func TestClassify_DedupByNormalizedName(t *testing.T) {
	sections := []model.FacilitySection{
		{FacilityName: "Cedar Ridge Health"},
		{FacilityName: "  cedar ridge health "},
	}

	out := Classify(sections, nil)
	assert.Len(t, out, 1)
}

func TestMatchAssetEntry_FuzzyPrefix(t *testing.T) {
	entries := []model.AssetValuationEntry{
		{FacilityName: "Willowbrook Post Acute and Rehab", Beds: 90},
	}

	e, ok := matchAssetEntry(entries, "Willowbrook Post Acute")
	require.True(t, ok)
	assert.Equal(t, 90, e.Beds)

	_, ok = matchAssetEntry(entries, "Willow")
	assert.False(t, ok)
}

func TestEstimateSNCPercent_ClampedToOne(t *testing.T) {
	section := model.FacilitySection{
		SummaryMetrics: model.SummaryMetrics{TotalRevenue: 100},
		LineItems: []model.LineItem{
			{Label: "Memory Care Revenue", Category: model.CategoryRevenue, AnnualValue: 250},
		},
	}
	assert.Equal(t, 1.0, estimateSNCPercent(&section))
}
