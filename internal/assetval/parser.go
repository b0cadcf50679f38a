// Package assetval parses asset-valuation workbooks into per-facility
// valuation entries. Section subtotal rows appear after their member rows
// in these files, so parsing is an explicit two-pass algorithm: pass 1
// buffers data rows with a placeholder property type, pass 2 resolves each
// entry against the nearest boundary row after it.
package assetval

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/valuation-cli/internal/model"
)

// thousandsThreshold is the portfolio-wide average value-per-bed below
// which the file's monetary figures must be in thousands. Real per-bed
// values for these assets never fall under $5,000.
const thousandsThreshold = 5000.0

// propertyTypeVocab matches a section-boundary label to its property type.
var propertyTypeVocab = []struct {
	re           *regexp.Regexp
	propertyType model.PropertyType
}{
	{regexp.MustCompile(`(?i)snf.{0,5}owned|owned.{0,5}snf|skilled\s+nursing`), model.PropertySNFOwned},
	{regexp.MustCompile(`(?i)leased|lease\s+portfolio`), model.PropertyLeased},
	{regexp.MustCompile(`(?i)alf|snc.{0,5}owned|assisted\s+living`), model.PropertyALFOwned},
}

var facilityNameRe = regexp.MustCompile(`(?i)\b(health|rehab|care|nursing|manor|living|gardens|village|terrace|ridge|creek|park|valley|senior|post\s+acute)\b`)

// boundary marks a section subtotal row and the type it closes.
type boundary struct {
	row          int
	propertyType model.PropertyType
}

// Parse extracts all valuation entries from a workbook. Unparseable sheets
// degrade to warnings.
func Parse(wb *model.Workbook) ([]model.AssetValuationEntry, []string) {
	var entries []model.AssetValuationEntry
	var warnings []string

	for i := range wb.Sheets {
		sheet := &wb.Sheets[i]
		sheetEntries, ok := parseSheet(sheet)
		if !ok {
			continue
		}
		if len(sheetEntries) == 0 {
			warnings = append(warnings, fmt.Sprintf(
				"assetval: sheet %q in %s matched a valuation layout but yielded no entries",
				sheet.Name, wb.Filename))
			continue
		}
		entries = append(entries, sheetEntries...)
	}

	if len(entries) == 0 {
		warnings = append(warnings, fmt.Sprintf(
			"assetval: no valuation entries found in %s", wb.Filename))
		return nil, warnings
	}

	if rescaled := rescaleThousands(entries); rescaled {
		warnings = append(warnings, fmt.Sprintf(
			"assetval: %s values interpreted as thousands and scaled x1000", wb.Filename))
	}

	zap.L().Info("assetval: workbook parsed",
		zap.String("filename", wb.Filename),
		zap.Int("entries", len(entries)),
	)
	return entries, warnings
}

func parseSheet(sheet *model.Sheet) ([]model.AssetValuationEntry, bool) {
	cols, ok := detectColumns(sheet)
	if !ok {
		return nil, false
	}

	// Pass 1: classify every row once, buffering data rows in order.
	var entries []model.AssetValuationEntry
	var boundaries []boundary

	for r := cols.headerRow + 1; r < sheet.RowCount(); r++ {
		label := labelArea(sheet, cols, r)

		if pt, isBoundary := boundaryType(sheet, cols, r, label); isBoundary {
			boundaries = append(boundaries, boundary{row: r, propertyType: pt})
			continue
		}

		entry, isData := parseDataRow(sheet, cols, r, label)
		if !isData {
			continue
		}
		entries = append(entries, entry)
	}

	// Pass 2: each entry takes the type of the nearest boundary after it.
	for i := range entries {
		entries[i].PropertyType = resolveType(boundaries, &entries[i])
	}

	return entries, true
}

// boundaryType reports whether a row is a section boundary: its label area
// matches the property-type vocabulary while the row lacks both a
// facility-like name and a positive bed count.
func boundaryType(sheet *model.Sheet, cols columns, r int, label string) (model.PropertyType, bool) {
	if label == "" {
		return "", false
	}
	var matched model.PropertyType
	for _, v := range propertyTypeVocab {
		if v.re.MatchString(label) {
			matched = v.propertyType
			break
		}
	}
	if matched == "" {
		return "", false
	}
	if facilityNameRe.MatchString(label) {
		return "", false
	}
	if beds, ok := model.ParseNumber(sheet.Cell(r, cols.beds)); ok && beds > 0 {
		return "", false
	}
	return matched, true
}

// parseDataRow reads one facility row. A data row must have a positive bed
// count and at least one non-zero financial figure.
func parseDataRow(sheet *model.Sheet, cols columns, r int, label string) (model.AssetValuationEntry, bool) {
	if label == "" {
		return model.AssetValuationEntry{}, false
	}
	beds, ok := model.ParseNumber(sheet.Cell(r, cols.beds))
	if !ok || beds <= 0 {
		return model.AssetValuationEntry{}, false
	}

	entry := model.AssetValuationEntry{
		FacilityName: label,
		Beds:         int(beds),
		RowIndex:     r,
		EBITDAByYear: map[string]float64{},
		ValueByYear:  map[string]float64{},
		ValuePerBed:  map[string]float64{},
	}

	if cols.snc >= 0 {
		if v, ok := model.ParseNumber(sheet.Cell(r, cols.snc)); ok {
			if v > 1 { // whole-number percent
				v /= 100
			}
			entry.SNCPercent = v
		}
	}

	// The single rate column serves double duty: > 1 is an EBIT multiplier
	// (net-income-based, leased), a value in (0, 1] is a cap rate.
	if cols.rate >= 0 {
		if v, ok := model.ParseNumber(sheet.Cell(r, cols.rate)); ok && v > 0 {
			if v > 1 {
				entry.Multiplier = v
			} else {
				entry.CapRate = v
			}
		}
	}

	nonZero := false
	for year, c := range cols.ebitdaByYear {
		if v, ok := model.ParseNumber(sheet.Cell(r, c)); ok && v != 0 {
			entry.EBITDAByYear[year] = v
			nonZero = true
		}
	}
	for year, c := range cols.valueByYear {
		if v, ok := model.ParseNumber(sheet.Cell(r, c)); ok && v != 0 {
			entry.ValueByYear[year] = v
			nonZero = true
		}
	}
	for year, c := range cols.valuePerBedByYear {
		if v, ok := model.ParseNumber(sheet.Cell(r, c)); ok && v != 0 {
			entry.ValuePerBed[year] = v
		}
	}

	if !nonZero {
		return model.AssetValuationEntry{}, false
	}
	return entry, true
}

// resolveType assigns the nearest following boundary's type; entries below
// the last boundary fall back to the rate-magnitude heuristic.
func resolveType(boundaries []boundary, entry *model.AssetValuationEntry) model.PropertyType {
	for _, b := range boundaries {
		if b.row > entry.RowIndex {
			return b.propertyType
		}
	}
	return typeFromRate(entry)
}

// typeFromRate infers a property type from the rate magnitude: a
// multiplier means a leased facility; cap rates split on the observed
// SNF band (11-14%) versus the ALF band (7-13%), preferring SNF in the
// overlap.
func typeFromRate(entry *model.AssetValuationEntry) model.PropertyType {
	if entry.Multiplier > 1 {
		return model.PropertyLeased
	}
	r := entry.CapRate
	switch {
	case r >= 0.11 && r <= 0.14:
		return model.PropertySNFOwned
	case r >= 0.07 && r <= 0.13:
		return model.PropertyALFOwned
	default:
		return model.PropertySNFOwned
	}
}

// rescaleThousands multiplies every monetary field by 1000 when the
// portfolio-wide average value-per-bed is implausibly low for real
// dollars. Applied uniformly once per file, never per row.
func rescaleThousands(entries []model.AssetValuationEntry) bool {
	totalValue, totalBeds := 0.0, 0
	for i := range entries {
		totalValue += entries[i].LatestValue()
		totalBeds += entries[i].Beds
	}
	if totalBeds == 0 || totalValue == 0 {
		return false
	}
	if totalValue/float64(totalBeds) >= thousandsThreshold {
		return false
	}

	for i := range entries {
		e := &entries[i]
		for y, v := range e.EBITDAByYear {
			e.EBITDAByYear[y] = v * 1000
		}
		for y, v := range e.ValueByYear {
			e.ValueByYear[y] = v * 1000
		}
		for y, v := range e.ValuePerBed {
			e.ValuePerBed[y] = v * 1000
		}
	}

	zap.L().Warn("assetval: thousands scale detected, monetary fields rescaled",
		zap.Float64("avg_value_per_bed", totalValue/float64(totalBeds)),
	)
	return true
}

func labelArea(sheet *model.Sheet, cols columns, r int) string {
	for c := 0; c <= cols.name; c++ {
		if cell := sheet.Cell(r, c); cell.Kind == model.CellText {
			if s := strings.TrimSpace(cell.Text); s != "" {
				return s
			}
		}
	}
	return ""
}
