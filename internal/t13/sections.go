package t13

import (
	"regexp"
	"strings"

	"github.com/sells-group/valuation-cli/internal/classifier"
	"github.com/sells-group/valuation-cli/internal/model"
)

// glLookaheadRows bounds how far below a bare-label row we look for a GL
// code before accepting it as a section header. Stray text rows with no
// line items under them are not headers.
const glLookaheadRows = 10

// facilityTypeSuffixRe matches a parenthesized type annotation such as
// "Maple Ridge Care Center (SNF)".
var facilityTypeSuffixRe = regexp.MustCompile(`^(.+?)\s*\((SNF|ALF|AL[_/]?IL|MC|IL|SNC|CCRC)\)\s*$`)

// facilityNounRe matches labels carrying a known facility noun.
var facilityNounRe = regexp.MustCompile(`(?i)\b(health|rehab|care\s+center|nursing|manor|living|gardens|village|terrace|ridge|creek|park|valley|senior|assisted|post\s+acute)\b`)

// reservedHeaderWords can never be facility headers regardless of shape.
var reservedHeaderWords = []string{
	"total", "subtotal", "sub total", "revenue", "expense", "expenses",
	"ebitda", "ebitdar", "net income", "census", "grand total",
}

// sectionBoundary is one detected facility header with its position.
type sectionBoundary struct {
	row          int
	facilityName string
	facilityType string
}

// detectSections runs the two-pass boundary scan over a sectioned sheet:
// pass 1 collects header candidates with position metadata, pass 2 closes
// each section at the row before the next header (or end of sheet).
func detectSections(sheet *model.Sheet, layout columnLayout) []sectionBoundary {
	var boundaries []sectionBoundary

	for r := 0; r < sheet.RowCount(); r++ {
		name, ftype, ok := headerCandidate(sheet, layout, r)
		if !ok {
			continue
		}
		boundaries = append(boundaries, sectionBoundary{
			row:          r,
			facilityName: name,
			facilityType: ftype,
		})
	}

	return boundaries
}

// sectionRange returns the data row range for boundary i: directly after its
// header to the row before the next header.
func sectionRange(boundaries []sectionBoundary, i, rowCount int) model.RowRange {
	start := boundaries[i].row + 1
	end := rowCount - 1
	if i+1 < len(boundaries) {
		end = boundaries[i+1].row - 1
	}
	return model.RowRange{Start: start, End: end}
}

// headerCandidate decides whether row r is a facility header. A header row
// is not itself a GL-code row, matches a facility-name pattern, is not a
// reserved word, and — for the generic bare-label heuristic — is followed
// within the lookahead window by a GL-coded row.
func headerCandidate(sheet *model.Sheet, layout columnLayout, r int) (name, ftype string, ok bool) {
	label := firstText(sheet.Rows[r])
	if label == "" {
		return "", "", false
	}
	if layout.glCol >= 0 && classifier.IsGLCode(sheet.Cell(r, layout.glCol).String()) {
		return "", "", false
	}
	if isReservedWord(label) {
		return "", "", false
	}

	// Parenthesized type suffix is the strongest pattern.
	if m := facilityTypeSuffixRe.FindStringSubmatch(label); m != nil {
		return strings.TrimSpace(m[1]), normalizeTypeAnnotation(m[2]), true
	}

	// Known facility nouns.
	if facilityNounRe.MatchString(label) {
		return label, "", true
	}

	// Bare label: accept only when line items follow within the window.
	if glCodeWithin(sheet, layout, r+1, glLookaheadRows) && looksLikeName(label) {
		return label, "", true
	}

	return "", "", false
}

func glCodeWithin(sheet *model.Sheet, layout columnLayout, start, n int) bool {
	end := start + n
	if end > sheet.RowCount() {
		end = sheet.RowCount()
	}
	for r := start; r < end; r++ {
		if layout.glCol >= 0 {
			if classifier.IsGLCode(sheet.Cell(r, layout.glCol).String()) {
				return true
			}
			continue
		}
		for _, cell := range sheet.Rows[r] {
			if classifier.IsGLCode(cell.String()) {
				return true
			}
		}
	}
	return false
}

func isReservedWord(label string) bool {
	lower := strings.ToLower(strings.TrimSpace(label))
	for _, w := range reservedHeaderWords {
		if lower == w || strings.HasPrefix(lower, w+" ") {
			return true
		}
	}
	return false
}

// looksLikeName filters bare labels down to plausible proper names: short,
// mostly letters, no trailing colon.
func looksLikeName(label string) bool {
	l := strings.TrimSpace(label)
	if len(l) < 3 || len(l) > 60 {
		return false
	}
	if strings.HasSuffix(l, ":") {
		return false
	}
	letters := 0
	for _, ch := range l {
		if ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') {
			letters++
		}
	}
	return letters*2 > len(l)
}

// normalizeTypeAnnotation folds annotation variants ("AL_IL", "AL/IL") to a
// stable token.
func normalizeTypeAnnotation(s string) string {
	return strings.ToUpper(strings.NewReplacer("/", "_").Replace(strings.TrimSpace(s)))
}

func firstText(row []model.Cell) string {
	for _, cell := range row {
		if cell.Kind == model.CellText {
			return strings.TrimSpace(cell.Text)
		}
	}
	return ""
}
