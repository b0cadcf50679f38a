// Package glmap builds the general-ledger code lookup consumed by the
// profit/loss parsers.
package glmap

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/valuation-cli/internal/classifier"
	"github.com/sells-group/valuation-cli/internal/model"
)

// headerVocab marks a row as a column header rather than a mapping entry.
var headerVocab = []string{"gl code", "account", "description", "category", "coa"}

// Parse scans a workbook classified as a GL mapping and builds the
// code-to-category lookup. An empty (never nil) mapping comes back when no
// sheet qualifies; downstream categorization falls back to label vocabulary.
func Parse(wb *model.Workbook) *model.GLMapping {
	var entries []model.GLMappingEntry

	for i := range wb.Sheets {
		sheet := &wb.Sheets[i]
		col := detectCodeColumn(sheet)
		if col < 0 {
			continue
		}
		entries = append(entries, parseSheet(sheet, col)...)
	}

	mapping := model.NewGLMapping(entries)

	zap.L().Info("glmap: mapping built",
		zap.String("filename", wb.Filename),
		zap.Int("entries", mapping.Len()),
	)
	if mapping.Len() == 0 {
		zap.L().Warn("glmap: no qualifying mapping sheet found",
			zap.String("filename", wb.Filename))
	}

	return mapping
}

// detectCodeColumn finds the column holding GL codes by counting
// code-shaped cells per column over the first 200 rows. Returns -1 when no
// column has at least 3 codes.
func detectCodeColumn(sheet *model.Sheet) int {
	counts := map[int]int{}
	limit := sheet.RowCount()
	if limit > 200 {
		limit = 200
	}
	for r := 0; r < limit; r++ {
		for c, cell := range sheet.Rows[r] {
			if classifier.IsGLCode(cell.String()) {
				counts[c]++
			}
		}
	}

	best, bestCount := -1, 2
	for c, n := range counts {
		if n > bestCount || (n == bestCount && best >= 0 && c < best) {
			best, bestCount = c, n
		}
	}
	return best
}

// parseSheet reads one entry per code row: the label is the first non-empty
// text cell after the code column, the category the next one after that.
func parseSheet(sheet *model.Sheet, codeCol int) []model.GLMappingEntry {
	var entries []model.GLMappingEntry

	for r := 0; r < sheet.RowCount(); r++ {
		code := strings.TrimSpace(sheet.Cell(r, codeCol).String())
		if !classifier.IsGLCode(code) {
			continue
		}
		if isHeaderRow(sheet.Rows[r]) {
			continue
		}

		entry := model.GLMappingEntry{GLCode: code}
		for c := codeCol + 1; c < codeCol+6; c++ {
			cell := sheet.Cell(r, c)
			if cell.Kind != model.CellText {
				continue
			}
			text := strings.TrimSpace(cell.Text)
			if text == "" {
				continue
			}
			switch {
			case entry.Label == "":
				entry.Label = text
			case entry.Category == "":
				entry.Category = strings.ToLower(text)
			case entry.COACode == "":
				entry.COACode = text
			}
		}
		if entry.Label == "" {
			continue
		}
		entries = append(entries, entry)
	}

	return entries
}

func isHeaderRow(row []model.Cell) bool {
	for _, cell := range row {
		if cell.Kind != model.CellText {
			continue
		}
		lower := strings.ToLower(cell.Text)
		for _, h := range headerVocab {
			if lower == h {
				return true
			}
		}
	}
	return false
}
