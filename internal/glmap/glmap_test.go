package glmap

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/valuation-cli/internal/model"
)

func row(vals ...string) []model.Cell {
	cells := make([]model.Cell, len(vals))
	for i, v := range vals {
		cells[i] = model.TextCell(v)
	}
	return cells
}

func TestParse_BuildsLookupFromMappingSheet(t *testing.T) {
	rows := [][]model.Cell{
		row("GL Code", "Account", "Category"),
		row("400100", "Medicaid Revenue", "Revenue", "R-100"),
		row("510200", "Nursing Wages", "Expense", "E-200"),
		row("", "stray note"),
		row("910000", "Patient Days", "Census"),
	}
	wb := &model.Workbook{
		Filename: "mapping.xlsx",
		Sheets:   []model.Sheet{{Name: "GL Mapping", Rows: rows}},
	}

	m := Parse(wb)
	require.NotNil(t, m)
	assert.Equal(t, 3, m.Len())

	e, ok := m.Lookup("400100")
	require.True(t, ok)
	assert.Equal(t, "Medicaid Revenue", e.Label)
	assert.Equal(t, "revenue", e.Category)
	assert.Equal(t, "R-100", e.COACode)

	e, ok = m.Lookup("910000")
	require.True(t, ok)
	assert.Equal(t, "census", e.Category)
}

func TestParse_NoQualifyingSheetReturnsEmptyMapping(t *testing.T) {
	wb := &model.Workbook{
		Filename: "notes.xlsx",
		Sheets: []model.Sheet{{Name: "Notes", Rows: [][]model.Cell{
			row("just", "text"),
			row("400100"), // a lone code is below the detection floor
		}}},
	}

	m := Parse(wb)
	require.NotNil(t, m)
	assert.Equal(t, 0, m.Len())
}

func TestParse_SkipsCodeRowsWithoutLabel(t *testing.T) {
	rows := [][]model.Cell{
		row("400100", "Medicaid Revenue", "Revenue"),
		row("400200"),
		row("400300", "Medicare Revenue", "Revenue"),
	}
	wb := &model.Workbook{
		Filename: "mapping.xlsx",
		Sheets:   []model.Sheet{{Name: "Mapping", Rows: rows}},
	}

	m := Parse(wb)
	assert.Equal(t, 2, m.Len())
	_, ok := m.Lookup("400200")
	assert.False(t, ok)
}

func TestDetectCodeColumn_PicksDensestColumn(t *testing.T) {
	var rows [][]model.Cell
	for i := 0; i < 10; i++ {
		rows = append(rows, row("note", fmt.Sprintf("5102%02d", i), "label"))
	}
	sheet := &model.Sheet{Name: "Mapping", Rows: rows}

	assert.Equal(t, 1, detectCodeColumn(sheet))
}

func TestDetectCodeColumn_TooFewCodes(t *testing.T) {
	sheet := &model.Sheet{Name: "Mapping", Rows: [][]model.Cell{
		row("400100", "a"),
		row("400200", "b"),
	}}
	assert.Equal(t, -1, detectCodeColumn(sheet))
}

func TestIsHeaderRow(t *testing.T) {
	assert.True(t, isHeaderRow(row("GL Code", "Description")))
	assert.True(t, isHeaderRow(row("Account")))
	assert.False(t, isHeaderRow(row("400100", "Medicaid Revenue")))
}
