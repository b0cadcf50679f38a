package assetval

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/valuation-cli/internal/model"
)

// columns records the detected layout of a valuation sheet. Year-keyed
// columns hold one physical column per fiscal year; -1 marks an absent
// single column.
type columns struct {
	headerRow         int
	name              int
	beds              int
	snc               int
	rate              int
	ebitdaByYear      map[string]int
	valueByYear       map[string]int
	valuePerBedByYear map[string]int
}

var yearRe = regexp.MustCompile(`20\d{2}`)

// detectColumns scans the first rows for header vocabulary. When no header
// qualifies, a numeric-pattern heuristic locates a plausible beds column
// and the remaining columns keep conventional offsets.
func detectColumns(sheet *model.Sheet) (columns, bool) {
	limit := sheet.RowCount()
	if limit > 20 {
		limit = 20
	}

	for r := 0; r < limit; r++ {
		cols, matched := scanHeaderRow(sheet, r)
		if matched >= 3 && cols.beds >= 0 {
			zap.L().Debug("assetval: header layout detected",
				zap.String("sheet", sheet.Name),
				zap.Int("header_row", r),
			)
			return cols, true
		}
	}

	return detectByNumericShape(sheet)
}

func scanHeaderRow(sheet *model.Sheet, r int) (columns, int) {
	cols := columns{
		headerRow: r, name: 0, beds: -1, snc: -1, rate: -1,
		ebitdaByYear:      map[string]int{},
		valueByYear:       map[string]int{},
		valuePerBedByYear: map[string]int{},
	}
	matched := 0

	for c, cell := range sheet.Rows[r] {
		if cell.Kind != model.CellText {
			continue
		}
		lower := strings.ToLower(strings.TrimSpace(cell.Text))
		year := yearRe.FindString(lower)
		if year == "" {
			year = "current"
		}

		switch {
		case strings.Contains(lower, "facility") || strings.Contains(lower, "property") || lower == "name":
			cols.name = c
			matched++
		case strings.Contains(lower, "bed"):
			if cols.beds < 0 {
				cols.beds = c
				matched++
			}
		case strings.Contains(lower, "snc"):
			if cols.snc < 0 {
				cols.snc = c
				matched++
			}
		case strings.Contains(lower, "cap rate") || strings.Contains(lower, "multiplier") || lower == "rate" || lower == "mult":
			if cols.rate < 0 {
				cols.rate = c
				matched++
			}
		case strings.Contains(lower, "value per bed") || strings.Contains(lower, "value/bed") || strings.Contains(lower, "per bed"):
			cols.valuePerBedByYear[year] = c
			matched++
		case strings.Contains(lower, "value"):
			cols.valueByYear[year] = c
			matched++
		case strings.Contains(lower, "ebitda") || lower == "ni" || strings.Contains(lower, "net income"):
			// EBITDA and net income share the column slot in these files;
			// the adjacent rate magnitude disambiguates downstream.
			cols.ebitdaByYear[year] = c
			matched++
		}
	}

	return cols, matched
}

// detectByNumericShape locates a plausible beds column when no header row
// exists: an integer-valued column whose values sit in the 10-500 range on
// most populated rows. Remaining columns assume the conventional order
// name, beds, EBITDA, rate, value.
func detectByNumericShape(sheet *model.Sheet) (columns, bool) {
	scan := sheet.RowCount()
	if scan > 200 {
		scan = 200
	}

	bedCol := -1
	for c := 1; c < 12 && bedCol < 0; c++ {
		populated, plausible := 0, 0
		for r := 0; r < scan; r++ {
			v, ok := model.ParseNumber(sheet.Cell(r, c))
			if !ok {
				continue
			}
			populated++
			if v == float64(int(v)) && v >= 10 && v <= 500 {
				plausible++
			}
		}
		if populated >= 3 && plausible*2 > populated {
			bedCol = c
		}
	}
	if bedCol < 0 {
		return columns{}, false
	}

	zap.L().Debug("assetval: beds column located by numeric shape",
		zap.String("sheet", sheet.Name),
		zap.Int("beds_col", bedCol),
	)

	return columns{
		headerRow:         -1,
		name:              0,
		beds:              bedCol,
		snc:               -1,
		rate:              bedCol + 2,
		ebitdaByYear:      map[string]int{"current": bedCol + 1},
		valueByYear:       map[string]int{"current": bedCol + 3},
		valuePerBedByYear: map[string]int{"current": bedCol + 4},
	}, true
}
