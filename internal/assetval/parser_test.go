package assetval

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/valuation-cli/internal/model"
)

func row(vals ...any) []model.Cell {
	cells := make([]model.Cell, 0, len(vals))
	for _, v := range vals {
		switch x := v.(type) {
		case string:
			cells = append(cells, model.TextCell(x))
		case float64:
			cells = append(cells, model.NumberCell(x))
		case int:
			cells = append(cells, model.NumberCell(float64(x)))
		case nil:
			cells = append(cells, model.Cell{})
		default:
			panic(fmt.Sprintf("unsupported cell value %T", v))
		}
	}
	return cells
}

// valuationSheet lays out the subtotal-after-members structure these files
// use: member rows first, the section boundary row beneath them.
func valuationSheet() model.Sheet {
	return model.Sheet{
		Name: "Asset Valuation",
		Rows: [][]model.Cell{
			row("Facility", "Beds", "EBITDA 2023", "Cap Rate", "Value 2023", "Value Per Bed"),
			row("Cedar Ridge Health", 120, 2000000.0, 0.125, 16000000.0, 133333.0),
			row("Willowbrook Post Acute", 90, 1500000.0, 0.125, 12000000.0, 133333.0),
			row("SNF Owned Subtotal", nil, 3500000.0, nil, 28000000.0),
			row("Maple Manor Assisted Living", 60, 800000.0, 0.09, 8888889.0, 148148.0),
			row("ALF/SNC Owned Subtotal", nil, 800000.0, nil, 8888889.0),
			row("Sunset Terrace", 80, 600000.0, 2.5, 1500000.0, 18750.0),
			row("Leased Subtotal", nil, 600000.0, nil, 1500000.0),
		},
	}
}

func TestParse_BoundariesAfterMemberRows(t *testing.T) {
	wb := &model.Workbook{Filename: "values.xlsx", Sheets: []model.Sheet{valuationSheet()}}

	entries, warnings := Parse(wb)

	require.Len(t, entries, 4)
	assert.Empty(t, warnings)

	byName := map[string]model.AssetValuationEntry{}
	for _, e := range entries {
		byName[e.FacilityName] = e
	}

	assert.Equal(t, model.PropertySNFOwned, byName["Cedar Ridge Health"].PropertyType)
	assert.Equal(t, model.PropertySNFOwned, byName["Willowbrook Post Acute"].PropertyType)
	assert.Equal(t, model.PropertyALFOwned, byName["Maple Manor Assisted Living"].PropertyType)
	assert.Equal(t, model.PropertyLeased, byName["Sunset Terrace"].PropertyType)
}

func TestParse_RateColumnDoubleDuty(t *testing.T) {
	wb := &model.Workbook{Filename: "values.xlsx", Sheets: []model.Sheet{valuationSheet()}}

	entries, _ := Parse(wb)
	require.Len(t, entries, 4)

	byName := map[string]model.AssetValuationEntry{}
	for _, e := range entries {
		byName[e.FacilityName] = e
	}

	cedar := byName["Cedar Ridge Health"]
	assert.Equal(t, 0.125, cedar.CapRate)
	assert.Equal(t, 0.0, cedar.Multiplier)

	sunset := byName["Sunset Terrace"]
	assert.Equal(t, 2.5, sunset.Multiplier)
	assert.Equal(t, 0.0, sunset.CapRate)
}

func TestParse_EntryFields(t *testing.T) {
	wb := &model.Workbook{Filename: "values.xlsx", Sheets: []model.Sheet{valuationSheet()}}

	entries, _ := Parse(wb)
	require.Len(t, entries, 4)

	cedar := entries[0]
	assert.Equal(t, "Cedar Ridge Health", cedar.FacilityName)
	assert.Equal(t, 120, cedar.Beds)
	assert.Equal(t, 2000000.0, cedar.EBITDAByYear["2023"])
	assert.Equal(t, 16000000.0, cedar.ValueByYear["2023"])
	assert.Equal(t, 2000000.0, cedar.LatestEBITDA())
	assert.Equal(t, 16000000.0, cedar.LatestValue())
}

func TestParse_ThousandsRescale(t *testing.T) {
	sheet := model.Sheet{
		Name: "Valuation (000s)",
		Rows: [][]model.Cell{
			row("Facility", "Beds", "EBITDA", "Cap Rate", "Value"),
			row("Cedar Ridge Health", 120, 2000.0, 0.125, 16000.0),
			row("SNF Owned Subtotal", nil, 2000.0, nil, 16000.0),
		},
	}
	wb := &model.Workbook{Filename: "values-000.xlsx", Sheets: []model.Sheet{sheet}}

	entries, warnings := Parse(wb)

	require.Len(t, entries, 1)
	// 16000 / 120 beds is far below any plausible dollar value per bed.
	assert.Equal(t, 2000000.0, entries[0].LatestEBITDA())
	assert.Equal(t, 16000000.0, entries[0].LatestValue())

	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "scaled x1000")
}

func TestParse_NoRescaleForRealDollars(t *testing.T) {
	wb := &model.Workbook{Filename: "values.xlsx", Sheets: []model.Sheet{valuationSheet()}}

	entries, warnings := Parse(wb)
	require.Len(t, entries, 4)
	assert.Empty(t, warnings)
	assert.Equal(t, 16000000.0, entries[0].LatestValue())
}

func TestParse_NoEntriesWarns(t *testing.T) {
	wb := &model.Workbook{
		Filename: "empty.xlsx",
		Sheets: []model.Sheet{{Name: "Notes", Rows: [][]model.Cell{
			row("nothing", "here"),
		}}},
	}

	entries, warnings := Parse(wb)

	assert.Nil(t, entries)
	require.NotEmpty(t, warnings)
	assert.Contains(t, warnings[0], "no valuation entries")
}

func TestParse_SNCPercentNormalized(t *testing.T) {
	sheet := model.Sheet{
		Name: "Valuation",
		Rows: [][]model.Cell{
			row("Facility", "Beds", "SNC %", "EBITDA", "Cap Rate", "Value"),
			row("Maple Gardens", 60, 40.0, 800000.0, 0.09, 8888889.0),
			row("Sunrise Villa Estates", 50, 0.25, 500000.0, 0.08, 6250000.0),
			row("ALF Owned Subtotal", nil, nil, 1300000.0, nil, 15138889.0),
		},
	}
	wb := &model.Workbook{Filename: "values.xlsx", Sheets: []model.Sheet{sheet}}

	entries, _ := Parse(wb)
	require.Len(t, entries, 2)

	// Whole-number percents are normalized to fractions.
	assert.InDelta(t, 0.40, entries[0].SNCPercent, 0.0001)
	assert.InDelta(t, 0.25, entries[1].SNCPercent, 0.0001)
}

func TestTypeFromRate(t *testing.T) {
	assert.Equal(t, model.PropertyLeased, typeFromRate(&model.AssetValuationEntry{Multiplier: 2.5}))
	assert.Equal(t, model.PropertySNFOwned, typeFromRate(&model.AssetValuationEntry{CapRate: 0.125}))
	assert.Equal(t, model.PropertyALFOwned, typeFromRate(&model.AssetValuationEntry{CapRate: 0.08}))
	assert.Equal(t, model.PropertySNFOwned, typeFromRate(&model.AssetValuationEntry{CapRate: 0.20}))
}

func TestDetectByNumericShape(t *testing.T) {
	// No header vocabulary at all: beds located by integer range.
	var rows [][]model.Cell
	rows = append(rows,
		row("Cedar Ridge Health", 120, 2000000.0, 0.125, 16000000.0),
		row("Willowbrook Post Acute", 90, 1500000.0, 0.125, 12000000.0),
		row("Maple Manor", 60, 800000.0, 0.09, 8888889.0),
	)
	sheet := &model.Sheet{Name: "Data", Rows: rows}

	cols, ok := detectColumns(sheet)
	require.True(t, ok)
	assert.Equal(t, 1, cols.beds)
	assert.Equal(t, -1, cols.headerRow)
}
