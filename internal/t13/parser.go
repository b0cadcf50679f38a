// Package t13 parses trailing-13-period profit/loss workbooks (opco
// reviews) into per-facility financial sections. Both physical layouts
// seen in the source files are handled: one flat table grouped by a
// facility-name column, and sectioned sheets with facility headers
// interleaved with line-item rows.
package t13

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/valuation-cli/internal/classifier"
	"github.com/sells-group/valuation-cli/internal/model"
)

// Parse extracts every facility section from an opco-review workbook.
// Malformed sheets degrade to warnings, never errors; a sheet with no
// recognizable structure contributes zero facilities.
func Parse(wb *model.Workbook, mapping *model.GLMapping) ([]model.FacilitySection, []string) {
	var sections []model.FacilitySection
	var warnings []string

	mappingEntries := parseMappingSheet(wb)
	currentState := map[string]currentStateMetrics{}

	for i := range wb.Sheets {
		sheet := &wb.Sheets[i]

		for name, cs := range parseCurrentState(sheet) {
			currentState[name] = cs
		}

		if strings.Contains(strings.ToLower(sheet.Name), "mapping") {
			continue
		}

		layout, ok := detectLayout(sheet)
		if !ok {
			warnings = append(warnings, fmt.Sprintf(
				"t13: sheet %q in %s has no recognizable column structure, skipped",
				sheet.Name, wb.Filename))
			continue
		}

		var sheetSections []model.FacilitySection
		if layout.flat {
			sheetSections = parseFlat(sheet, layout, mapping)
		} else {
			sheetSections = parseSectioned(sheet, layout, mapping)
		}
		if len(sheetSections) == 0 {
			warnings = append(warnings, fmt.Sprintf(
				"t13: sheet %q in %s yielded no facility sections",
				sheet.Name, wb.Filename))
			continue
		}
		sections = append(sections, sheetSections...)
	}

	enrichFromMapping(sections, mappingEntries)
	for i := range sections {
		if cs, ok := currentState[model.NormalizeFacilityName(sections[i].FacilityName)]; ok {
			applyCurrentState(&sections[i], cs)
		}
	}
	sections = dedupeSections(sections)

	zap.L().Info("t13: workbook parsed",
		zap.String("filename", wb.Filename),
		zap.Int("facilities", len(sections)),
		zap.Int("warnings", len(warnings)),
	)
	return sections, warnings
}

// parseFlat groups the flat export by the facility-name column, preserving
// first-seen order.
func parseFlat(sheet *model.Sheet, layout columnLayout, mapping *model.GLMapping) []model.FacilitySection {
	var order []string
	byName := map[string]*model.FacilitySection{}

	for r := 0; r < sheet.RowCount(); r++ {
		if layout.headerRow >= 0 && r <= layout.headerRow {
			continue
		}
		name := strings.TrimSpace(sheet.Cell(r, layout.facilityCol).String())
		if name == "" || isReservedWord(name) {
			continue
		}

		item, ok := parseLineItem(sheet, layout, r, mapping)
		if !ok {
			continue
		}

		key := model.NormalizeFacilityName(name)
		section, exists := byName[key]
		if !exists {
			section = &model.FacilitySection{
				FacilityName: name,
				RowRange:     model.RowRange{Start: r, End: r},
				SourceSheet:  sheet.Name,
			}
			byName[key] = section
			order = append(order, key)
		}
		section.RowRange.End = r
		section.LineItems = append(section.LineItems, item)
		captureSummaryRow(&section.SummaryMetrics, item.Label, item.AnnualValue)
	}

	sections := make([]model.FacilitySection, 0, len(order))
	for _, key := range order {
		finishSection(byName[key])
		sections = append(sections, *byName[key])
	}
	return sections
}

// parseSectioned walks a facility-header sheet: boundaries first, then the
// line items of each section's data range. A sheet with GL codes but no
// boundaries is treated as a single facility named after the sheet.
func parseSectioned(sheet *model.Sheet, layout columnLayout, mapping *model.GLMapping) []model.FacilitySection {
	boundaries := detectSections(sheet, layout)
	if len(boundaries) == 0 {
		if !sheetHasGLCodes(sheet, layout) {
			return nil
		}
		boundaries = []sectionBoundary{{row: layout.headerRow, facilityName: sheet.Name}}
	}

	sections := make([]model.FacilitySection, 0, len(boundaries))
	for i, b := range boundaries {
		rr := sectionRange(boundaries, i, sheet.RowCount())
		section := model.FacilitySection{
			FacilityName: b.facilityName,
			FacilityType: b.facilityType,
			RowRange:     rr,
			SourceSheet:  sheet.Name,
		}

		for r := rr.Start; r <= rr.End && r < sheet.RowCount(); r++ {
			item, ok := parseLineItem(sheet, layout, r, mapping)
			if !ok {
				continue
			}
			section.LineItems = append(section.LineItems, item)
			captureSummaryRow(&section.SummaryMetrics, item.Label, item.AnnualValue)
		}

		if len(section.LineItems) == 0 {
			continue
		}
		finishSection(&section)
		sections = append(sections, section)
	}
	return sections
}

// parseLineItem reads one qualifying row. A row qualifies when it has a
// label and at least a parseable annual value or a GL code.
func parseLineItem(sheet *model.Sheet, layout columnLayout, r int, mapping *model.GLMapping) (model.LineItem, bool) {
	var glCode string
	if layout.glCol >= 0 {
		if code := strings.TrimSpace(sheet.Cell(r, layout.glCol).String()); classifier.IsGLCode(code) {
			glCode = code
		}
	}

	rawLabel := sheet.Cell(r, layout.labelCol).Text
	label := strings.TrimSpace(rawLabel)
	if label == "" && glCode == "" {
		return model.LineItem{}, false
	}
	if label == "" {
		label = glCode
	}

	annual, okAnnual := model.ParseNumber(sheet.Cell(r, layout.annualCol))
	if !okAnnual && glCode == "" {
		return model.LineItem{}, false
	}

	item := model.LineItem{
		RowIndex:    r,
		GLCode:      glCode,
		Label:       label,
		AnnualValue: annual,
		IndentLevel: indentLevel(rawLabel),
	}
	if layout.monthlyCol >= 0 {
		item.MonthlyValue, _ = model.ParseNumber(sheet.Cell(r, layout.monthlyCol))
	}
	if layout.ppdCol >= 0 {
		item.PPDValue, _ = model.ParseNumber(sheet.Cell(r, layout.ppdCol))
	}
	if layout.budgetCol >= 0 {
		item.BudgetAnnual, _ = model.ParseNumber(sheet.Cell(r, layout.budgetCol))
	}
	if layout.budgetPPD >= 0 {
		item.BudgetPPD, _ = model.ParseNumber(sheet.Cell(r, layout.budgetPPD))
	}

	item.Category, item.Subcategory = categorize(glCode, label, mapping)

	total, subtotal := isTotalRow(label)
	item.IsTotal = total && !subtotal
	item.IsSubtotal = subtotal

	return item, true
}

// finishSection backfills derived totals and census data after all line
// items are collected.
func finishSection(section *model.FacilitySection) {
	backfillTotals(&section.SummaryMetrics, section.LineItems)
	section.Census = deriveCensus(section.LineItems)
}

// deriveCensus extracts occupancy-related figures from census-category rows.
func deriveCensus(items []model.LineItem) *model.CensusData {
	var census model.CensusData
	found := false
	for _, it := range items {
		if it.Category != model.CategoryCensus {
			continue
		}
		lower := strings.ToLower(it.Label)
		switch {
		case strings.Contains(lower, "medicaid"):
			census.MedicaidDays = it.AnnualValue
		case strings.Contains(lower, "medicare"):
			census.MedicareDays = it.AnnualValue
		case strings.Contains(lower, "occupancy"):
			census.Occupancy = it.AnnualValue
		case strings.Contains(lower, "average") || strings.Contains(lower, "adc"):
			census.AverageCensus = it.AnnualValue
		case strings.Contains(lower, "days"):
			census.TotalPatientDays = it.AnnualValue
		default:
			continue
		}
		found = true
	}
	if !found {
		return nil
	}
	return &census
}

func sheetHasGLCodes(sheet *model.Sheet, layout columnLayout) bool {
	return glCodeWithin(sheet, layout, 0, sheet.RowCount())
}

func indentLevel(rawLabel string) int {
	spaces := len(rawLabel) - len(strings.TrimLeft(rawLabel, " \t"))
	return spaces / 2
}
