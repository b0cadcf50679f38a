package t13

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/valuation-cli/internal/classifier"
	"github.com/sells-group/valuation-cli/internal/model"
)

// columnLayout records where each logical column lives on a sheet. Absent
// columns are -1.
type columnLayout struct {
	flat        bool // column 0 repeats the facility name on every data row
	facilityCol int
	glCol       int
	labelCol    int
	annualCol   int
	monthlyCol  int
	ppdCol      int
	budgetCol   int
	budgetPPD   int
	headerRow   int
}

func emptyLayout() columnLayout {
	return columnLayout{
		facilityCol: -1, glCol: -1, labelCol: -1, annualCol: -1,
		monthlyCol: -1, ppdCol: -1, budgetCol: -1, budgetPPD: -1, headerRow: -1,
	}
}

// detectLayout determines the physical column structure of a T13 sheet.
// Preference order: flat-table shape, header vocabulary, GL-code anchoring.
// The zero-value ok=false means the sheet has no recognizable structure.
func detectLayout(sheet *model.Sheet) (columnLayout, bool) {
	if layout, ok := detectFlatLayout(sheet); ok {
		return layout, true
	}
	if layout, ok := detectHeaderLayout(sheet); ok {
		return layout, true
	}
	return detectAnchoredLayout(sheet)
}

// detectFlatLayout recognizes the many-thousand-row export where column 0
// carries the facility name on every row and a nearby column carries GL
// codes. Requires at least 20 qualifying rows to avoid false positives on
// small sectioned sheets.
func detectFlatLayout(sheet *model.Sheet) (columnLayout, bool) {
	if sheet.RowCount() < 50 {
		return emptyLayout(), false
	}

	qualifying := 0
	glCol := -1
	scan := sheet.RowCount()
	if scan > 500 {
		scan = 500
	}
	for r := 0; r < scan; r++ {
		if sheet.Cell(r, 0).Kind != model.CellText {
			continue
		}
		for c := 1; c < 6; c++ {
			if classifier.IsGLCode(sheet.Cell(r, c).String()) {
				qualifying++
				if glCol < 0 {
					glCol = c
				}
				break
			}
		}
	}
	if qualifying < 20 || glCol < 0 {
		return emptyLayout(), false
	}

	layout := emptyLayout()
	layout.flat = true
	layout.facilityCol = 0
	layout.glCol = glCol
	layout.labelCol = glCol + 1
	layout.annualCol = glCol + 2
	layout.ppdCol = glCol + 3
	layout.budgetCol = glCol + 4
	layout.budgetPPD = glCol + 5

	// Header vocabulary within the first rows overrides the fixed offsets.
	if hdr, ok := detectHeaderLayout(sheet); ok {
		layout.headerRow = hdr.headerRow
		if hdr.annualCol >= 0 {
			layout.annualCol = hdr.annualCol
		}
		if hdr.ppdCol >= 0 {
			layout.ppdCol = hdr.ppdCol
		}
		if hdr.budgetCol >= 0 {
			layout.budgetCol = hdr.budgetCol
		}
		if hdr.budgetPPD >= 0 {
			layout.budgetPPD = hdr.budgetPPD
		}
		if hdr.monthlyCol >= 0 {
			layout.monthlyCol = hdr.monthlyCol
		}
	}

	zap.L().Debug("t13: flat layout detected",
		zap.String("sheet", sheet.Name),
		zap.Int("gl_col", glCol),
		zap.Int("qualifying_rows", qualifying),
	)
	return layout, true
}

// detectHeaderLayout scans the first 30 rows for header vocabulary
// ("Actual", "Annual", "PPD", "Budget") and maps value columns from it.
func detectHeaderLayout(sheet *model.Sheet) (columnLayout, bool) {
	limit := sheet.RowCount()
	if limit > 30 {
		limit = 30
	}

	for r := 0; r < limit; r++ {
		layout := emptyLayout()
		layout.headerRow = r
		matched := 0

		for c, cell := range sheet.Rows[r] {
			if cell.Kind != model.CellText {
				continue
			}
			lower := strings.ToLower(strings.TrimSpace(cell.Text))
			isBudget := strings.Contains(lower, "budget")
			isPPD := strings.Contains(lower, "ppd") || strings.Contains(lower, "per patient day")

			switch {
			case isBudget && isPPD:
				if layout.budgetPPD < 0 {
					layout.budgetPPD = c
					matched++
				}
			case isBudget:
				if layout.budgetCol < 0 {
					layout.budgetCol = c
					matched++
				}
			case isPPD:
				if layout.ppdCol < 0 {
					layout.ppdCol = c
					matched++
				}
			case strings.Contains(lower, "annual") || strings.Contains(lower, "actual") || strings.Contains(lower, "ytd"):
				if layout.annualCol < 0 {
					layout.annualCol = c
					matched++
				}
			case strings.Contains(lower, "month"):
				if layout.monthlyCol < 0 {
					layout.monthlyCol = c
					matched++
				}
			}
		}

		if matched < 2 || layout.annualCol < 0 {
			continue
		}

		// The GL code and label sit to the left of the first value column.
		layout.glCol, layout.labelCol = locateCodeAndLabel(sheet, r, layout.annualCol)
		return layout, true
	}

	return emptyLayout(), false
}

// detectAnchoredLayout falls back to locating the first GL-code-shaped cell
// and inferring value columns at fixed offsets to its right.
func detectAnchoredLayout(sheet *model.Sheet) (columnLayout, bool) {
	for r := 0; r < sheet.RowCount(); r++ {
		for c, cell := range sheet.Rows[r] {
			if !classifier.IsGLCode(cell.String()) {
				continue
			}
			layout := emptyLayout()
			layout.glCol = c
			layout.labelCol = c + 1
			layout.annualCol = c + 2
			layout.ppdCol = c + 3
			layout.budgetCol = c + 4

			zap.L().Debug("t13: layout anchored on first GL code",
				zap.String("sheet", sheet.Name),
				zap.Int("row", r),
				zap.Int("col", c),
			)
			return layout, true
		}
	}
	return emptyLayout(), false
}

// locateCodeAndLabel finds the GL and label columns by scanning data rows
// under the header for code-shaped cells left of the first value column.
func locateCodeAndLabel(sheet *model.Sheet, headerRow, firstValueCol int) (glCol, labelCol int) {
	glCol, labelCol = -1, -1
	end := headerRow + 50
	if end > sheet.RowCount() {
		end = sheet.RowCount()
	}
	for r := headerRow + 1; r < end; r++ {
		for c := 0; c < firstValueCol; c++ {
			if classifier.IsGLCode(sheet.Cell(r, c).String()) {
				glCol = c
				labelCol = c + 1
				return glCol, labelCol
			}
		}
	}
	// No codes on the sheet: the label is the last text column before the
	// values.
	for c := firstValueCol - 1; c >= 0; c-- {
		for r := headerRow + 1; r < end; r++ {
			if sheet.Cell(r, c).Kind == model.CellText {
				return -1, c
			}
		}
	}
	return -1, 0
}
