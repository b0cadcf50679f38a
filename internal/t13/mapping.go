package t13

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/valuation-cli/internal/model"
)

// fuzzyPrefixLen is the minimum shared prefix for a truncated-prefix match
// between an opco alias and a property name.
const fuzzyPrefixLen = 8

var titleCaser = cases.Title(language.AmericanEnglish)

// parseMappingSheet reads the "Mapping" sheet cross-referencing opco aliases
// with property name, bed count, lease/owned status, and business line.
// Returns nil when the workbook has no such sheet.
func parseMappingSheet(wb *model.Workbook) []model.FacilityMappingEntry {
	var sheet *model.Sheet
	for i := range wb.Sheets {
		if strings.Contains(strings.ToLower(wb.Sheets[i].Name), "mapping") {
			sheet = &wb.Sheets[i]
			break
		}
	}
	if sheet == nil {
		return nil
	}

	cols := detectMappingColumns(sheet)
	if cols.opco < 0 {
		return nil
	}

	var entries []model.FacilityMappingEntry
	for r := cols.headerRow + 1; r < sheet.RowCount(); r++ {
		opco := strings.TrimSpace(sheet.Cell(r, cols.opco).String())
		if opco == "" {
			continue
		}
		entry := model.FacilityMappingEntry{OpcoName: opco}
		if cols.property >= 0 {
			entry.PropertyName = titleCaser.String(strings.ToLower(strings.TrimSpace(sheet.Cell(r, cols.property).String())))
		}
		if cols.beds >= 0 {
			if v, ok := model.ParseNumber(sheet.Cell(r, cols.beds)); ok && v > 0 {
				entry.Beds = int(v)
			}
		}
		if cols.leaseOwned >= 0 {
			entry.LeaseOwned = strings.TrimSpace(sheet.Cell(r, cols.leaseOwned).String())
		}
		if cols.businessLine >= 0 {
			entry.BusinessLine = strings.TrimSpace(sheet.Cell(r, cols.businessLine).String())
		}
		entries = append(entries, entry)
	}

	zap.L().Info("t13: mapping sheet parsed",
		zap.String("sheet", sheet.Name),
		zap.Int("entries", len(entries)),
	)
	return entries
}

type mappingColumns struct {
	headerRow    int
	opco         int
	property     int
	beds         int
	leaseOwned   int
	businessLine int
}

func detectMappingColumns(sheet *model.Sheet) mappingColumns {
	cols := mappingColumns{headerRow: 0, opco: -1, property: -1, beds: -1, leaseOwned: -1, businessLine: -1}

	limit := sheet.RowCount()
	if limit > 10 {
		limit = 10
	}
	for r := 0; r < limit; r++ {
		found := 0
		candidate := mappingColumns{headerRow: r, opco: -1, property: -1, beds: -1, leaseOwned: -1, businessLine: -1}
		for c, cell := range sheet.Rows[r] {
			if cell.Kind != model.CellText {
				continue
			}
			lower := strings.ToLower(strings.TrimSpace(cell.Text))
			switch {
			case strings.Contains(lower, "opco") || strings.Contains(lower, "operating"):
				candidate.opco = c
				found++
			case strings.Contains(lower, "property") || strings.Contains(lower, "facility"):
				candidate.property = c
				found++
			case strings.Contains(lower, "bed"):
				candidate.beds = c
				found++
			case strings.Contains(lower, "lease") || strings.Contains(lower, "owned"):
				candidate.leaseOwned = c
				found++
			case strings.Contains(lower, "business") || strings.Contains(lower, "line"):
				candidate.businessLine = c
				found++
			}
		}
		if found >= 2 && candidate.opco >= 0 {
			return candidate
		}
	}

	// No header row: assume the conventional order.
	if sheet.RowCount() > 0 && len(sheet.Rows[0]) >= 2 {
		cols.opco = 0
		cols.property = 1
		if len(sheet.Rows[0]) > 2 {
			cols.beds = 2
		}
		if len(sheet.Rows[0]) > 3 {
			cols.leaseOwned = 3
		}
	}
	return cols
}

// resolveMapping finds the mapping entry for a facility name: exact
// normalized match first, then truncated-prefix fuzzy match.
func resolveMapping(entries []model.FacilityMappingEntry, facilityName string) (model.FacilityMappingEntry, bool) {
	norm := model.NormalizeFacilityName(facilityName)

	for _, e := range entries {
		if model.NormalizeFacilityName(e.OpcoName) == norm ||
			model.NormalizeFacilityName(e.PropertyName) == norm {
			return e, true
		}
	}

	for _, e := range entries {
		if fuzzyPrefixMatch(norm, model.NormalizeFacilityName(e.OpcoName)) ||
			fuzzyPrefixMatch(norm, model.NormalizeFacilityName(e.PropertyName)) {
			return e, true
		}
	}

	return model.FacilityMappingEntry{}, false
}

// fuzzyPrefixMatch reports whether the shorter of a and b is a prefix of
// the longer, with at least fuzzyPrefixLen shared characters.
func fuzzyPrefixMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) < fuzzyPrefixLen {
		return false
	}
	return strings.HasPrefix(long, short)
}

// enrichFromMapping fills bed counts, lease/owned status, and the canonical
// property name onto each section that resolves against the mapping.
func enrichFromMapping(sections []model.FacilitySection, entries []model.FacilityMappingEntry) {
	if len(entries) == 0 {
		return
	}
	for i := range sections {
		entry, ok := resolveMapping(entries, sections[i].FacilityName)
		if !ok {
			continue
		}
		if sections[i].Beds == 0 {
			sections[i].Beds = entry.Beds
		}
		if sections[i].LeaseOwned == "" {
			sections[i].LeaseOwned = entry.LeaseOwned
		}
		if sections[i].PropertyName == "" {
			sections[i].PropertyName = entry.PropertyName
		}
	}
}

// dedupeSections keeps the first occurrence of each facility, keyed by
// lower-cased trimmed name.
func dedupeSections(sections []model.FacilitySection) []model.FacilitySection {
	seen := make(map[string]bool, len(sections))
	out := sections[:0]
	for _, s := range sections {
		key := model.NormalizeFacilityName(s.FacilityName)
		if seen[key] {
			zap.L().Debug("t13: duplicate facility dropped",
				zap.String("facility", s.FacilityName))
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
