package pipeline

import (
	"context"
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

func mappingWorkbook() model.Workbook {
	rows := [][]model.Cell{
		row("GL Code", "Account Description", "Category"),
		row("400200", "Medicare Part A", "medicare_a"),
	}
	for i := 0; i < 60; i++ {
		rows = append(rows, row(fmt.Sprintf("5102%02d", i), "Expense Line", "expense"))
	}
	return model.Workbook{
		DocumentID: "doc-mapping",
		Filename:   "coa-mapping.xlsx",
		Sheets:     []model.Sheet{{Name: "COA Mapping", Rows: rows}},
	}
}

func opcoWorkbook() model.Workbook {
	return model.Workbook{
		DocumentID: "doc-opco",
		Filename:   "t13-review.xlsx",
		Sheets: []model.Sheet{{
			Name: "T13 Detail",
			Rows: [][]model.Cell{
				row("GL Code", "Description", "Annual", "PPD"),
				row("Cedar Ridge Health Center (SNF)"),
				row("400100", "Medicaid Revenue", 5200000.0, 310.0),
				row("400200", "Medicare Revenue", 1800000.0, 95.0),
				row(nil, "Total Operating Revenue", 7000000.0),
				row("510200", "Nursing Wages", 3000000.0),
				row(nil, "Total Operating Expenses", 6000000.0),
				row(nil, "EBITDAR", 1000000.0),
				row("Maple Manor Assisted Living"),
				row("400100", "Medicaid Revenue", 2000000.0),
				row(nil, "Total Operating Revenue", 2500000.0),
				row(nil, "EBITDAR", 400000.0),
			},
		}},
	}
}

func assetWorkbook() model.Workbook {
	return model.Workbook{
		DocumentID: "doc-asset",
		Filename:   "asset-values.xlsx",
		Sheets: []model.Sheet{{
			Name: "Asset Valuation",
			Rows: [][]model.Cell{
				row("Facility", "Beds", "EBITDA", "Cap Rate", "Value"),
				row("Cedar Ridge Health", 120, 2000000.0, 0.125, 16000000.0),
				row("SNF Owned Subtotal", nil, 2000000.0, nil, 16000000.0),
				row("Maple Manor Assisted Living", 60, 800000.0, 0.09, 8888889.0),
				row("ALF/SNC Owned Subtotal", nil, 800000.0, nil, 8888889.0),
			},
		}},
	}
}

func TestRun_EndToEnd(t *testing.T) {
	ctx := context.Background()
	// The mapping file arrives last; priority ordering must parse it first.
	workbooks := []model.Workbook{opcoWorkbook(), assetWorkbook(), mappingWorkbook()}

	result, err := Run(ctx, workbooks, Options{})
	require.NoError(t, err)

	assert.Equal(t, "pipeline", result.Source)
	require.Len(t, result.Classifications, 3)
	assert.Equal(t, model.FileTypeOpcoReview, result.Classifications[0].FileType)
	assert.Equal(t, model.FileTypeAssetValuation, result.Classifications[1].FileType)
	assert.Equal(t, model.FileTypeGLMapping, result.Classifications[2].FileType)

	require.Len(t, result.Facilities, 2)
	assert.Equal(t, "Cedar Ridge Health Center", result.Facilities[0].FacilityName)
	assert.Equal(t, 7000000.0, result.Facilities[0].SummaryMetrics.TotalRevenue)
	require.Len(t, result.AssetEntries, 2)

	// The GL mapping built first: its canonical category reached the
	// profit/loss line items.
	var medicare model.LineItem
	for _, it := range result.Facilities[0].LineItems {
		if it.GLCode == "400200" {
			medicare = it
		}
	}
	assert.Equal(t, "medicare_a", medicare.Subcategory)

	require.Len(t, result.FacilityClasses, 2)
	cedar := result.FacilityClasses[0]
	assert.Equal(t, model.PropertySNFOwned, cedar.PropertyType)
	assert.Equal(t, 0.95, cedar.Confidence)
	assert.Equal(t, 0.125, cedar.ApplicableRate)
	assert.Equal(t, 120, cedar.Beds)

	require.NotNil(t, result.Valuation)
	require.Len(t, result.Valuation.Facilities, 2)
	// Cedar Ridge: EBITDAR 1,000,000 at a 12.5% cap rate.
	assert.InDelta(t, 8000000, result.Valuation.Facilities[0].Value, 0.01)

	require.Len(t, result.Benchmarks, 2)
	assert.Greater(t, result.Confidence, 0.5)
}

func TestRun_NoWorkbooks(t *testing.T) {
	_, err := Run(context.Background(), nil, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no workbooks")
}

func TestRun_AllWorkbooksEmpty(t *testing.T) {
	workbooks := []model.Workbook{
		{DocumentID: "a", Filename: "a.xlsx"},
		{DocumentID: "b", Filename: "b.xlsx"},
	}
	_, err := Run(context.Background(), workbooks, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "every workbook is empty")
}

func TestRun_MissingMappingDegradesToWarning(t *testing.T) {
	result, err := Run(context.Background(), []model.Workbook{opcoWorkbook()}, Options{})
	require.NoError(t, err)

	found := false
	for _, w := range result.Warnings {
		if w == "pipeline: no GL mapping available, categorization falls back to label vocabulary" {
			found = true
		}
	}
	assert.True(t, found)
	assert.Len(t, result.Facilities, 2)
}

func TestRun_DedupAcrossFiles(t *testing.T) {
	first := opcoWorkbook()
	second := opcoWorkbook()
	second.DocumentID = "doc-opco-2"
	second.Filename = "t13-review-copy.xlsx"

	result, err := Run(context.Background(), []model.Workbook{first, second}, Options{})
	require.NoError(t, err)

	assert.Len(t, result.Facilities, 2)
}

func TestRun_UnclassifiedFileWarns(t *testing.T) {
	unknown := model.Workbook{
		DocumentID: "doc-x",
		Filename:   "random.xlsx",
		Sheets: []model.Sheet{{Name: "Data", Rows: [][]model.Cell{
			row("hello", "world"),
		}}},
	}

	result, err := Run(context.Background(), []model.Workbook{opcoWorkbook(), unknown}, Options{})
	require.NoError(t, err)

	found := false
	for _, w := range result.Warnings {
		if w == "pipeline: file random.xlsx is unclassified, skipped" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestAggregateConfidence_ZeroFacilities(t *testing.T) {
	result := &model.ExtractedDataSet{
		Classifications: []model.FileClassification{{Confidence: 1.0}},
	}
	score := aggregateConfidence(result)
	// No facilities: only the file-confidence component contributes.
	assert.InDelta(t, 0.35, score, 0.0001)
}

func TestAggregateConfidence_WarningPenaltyFloor(t *testing.T) {
	result := &model.ExtractedDataSet{
		Classifications: []model.FileClassification{{Confidence: 1.0}},
		Facilities:      []model.FacilitySection{{FacilityName: "X"}},
		FacilityClasses: []model.FacilityClassification{{Confidence: 1.0}},
	}
	for i := 0; i < 40; i++ {
		result.Warnings = append(result.Warnings, "w")
	}
	score := aggregateConfidence(result)
	// Completeness floors at 0.3 no matter how many warnings accrue.
	assert.InDelta(t, 0.35+0.40+0.25*0.3, score, 0.0001)
}
