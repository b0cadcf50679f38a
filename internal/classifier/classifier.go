// Package classifier labels workbooks by document family using content
// heuristics, before any parser runs.
package classifier

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/valuation-cli/internal/model"
)

// Scores below this threshold leave the file unknown.
const classifyThreshold = 10.0

// confidenceDivisor normalizes the winning score into [0,1].
const confidenceDivisor = 50.0

// glCodeRe matches a general-ledger account code: six digits with an
// optional dash suffix ("510200", "510200-01").
var glCodeRe = regexp.MustCompile(`^\d{6}(-\d+)?$`)

// IsGLCode reports whether a string is a GL-code-shaped token.
func IsGLCode(s string) bool {
	return glCodeRe.MatchString(strings.TrimSpace(s))
}

// sheetNamePatterns score sheet names toward a file type.
var sheetNamePatterns = []struct {
	re       *regexp.Regexp
	fileType model.FileType
	score    float64
	label    string
}{
	{regexp.MustCompile(`(?i)\bt-?13\b|trailing\s*13|opco`), model.FileTypeOpcoReview, 15, "sheet name references T13/opco"},
	{regexp.MustCompile(`(?i)valuation|asset\s*val`), model.FileTypeAssetValuation, 15, "sheet name references valuation"},
	{regexp.MustCompile(`(?i)portfolio|scenario|model`), model.FileTypePortfolioModel, 10, "sheet name references portfolio model"},
	{regexp.MustCompile(`(?i)mapping|chart\s*of\s*accounts|coa\b`), model.FileTypeGLMapping, 15, "sheet name references mapping"},
	{regexp.MustCompile(`(?i)p\s*&\s*l|income\s*statement|profit`), model.FileTypeOpcoReview, 8, "sheet name references P&L"},
}

// knownFacilityTokens are nouns that appear in facility names across the
// portfolio's source files.
var knownFacilityTokens = []string{
	"health", "rehab", "care center", "nursing", "manor", "living",
	"gardens", "village", "terrace", "ridge", "creek", "park", "valley",
	"senior", "assisted", "post acute",
}

// vocabulary terms scored per sheet body.
var bodyVocabulary = []struct {
	term     string
	fileType model.FileType
	score    float64
}{
	{"ebitdar", model.FileTypeOpcoReview, 6},
	{"per patient day", model.FileTypeOpcoReview, 5},
	{"ppd", model.FileTypeOpcoReview, 3},
	{"cap rate", model.FileTypeAssetValuation, 8},
	{"value per bed", model.FileTypeAssetValuation, 8},
	{"multiplier", model.FileTypeAssetValuation, 4},
	{"ebitda", model.FileTypeAssetValuation, 3},
	{"current state", model.FileTypePortfolioModel, 5},
	{"occupancy", model.FileTypePortfolioModel, 3},
	{"scenario", model.FileTypePortfolioModel, 5},
	{"coa", model.FileTypeGLMapping, 4},
	{"account description", model.FileTypeGLMapping, 8},
	{"gl code", model.FileTypeGLMapping, 8},
}

// Classify scores every sheet of a workbook against the candidate file types
// and returns the winning classification. Files whose best score falls below
// the threshold come back as unknown with the losing evidence attached.
func Classify(wb *model.Workbook) model.FileClassification {
	scores := map[model.FileType]float64{}
	var indicators []string

	facilityNamedSheets := 0
	for i := range wb.Sheets {
		sheet := &wb.Sheets[i]
		sheetScores, sheetIndicators := scoreSheet(sheet)
		for ft, s := range sheetScores {
			scores[ft] += s
		}
		indicators = append(indicators, sheetIndicators...)
		if nameLooksLikeFacility(sheet.Name) {
			facilityNamedSheets++
		}
	}

	// A workbook with a sheet per facility is an opco review spread across
	// tabs; two or more facility-named sheets is strong evidence.
	if facilityNamedSheets >= 2 {
		scores[model.FileTypeOpcoReview] += float64(facilityNamedSheets) * 5
		indicators = append(indicators,
			fmt.Sprintf("%d sheets named after facilities", facilityNamedSheets))
	}

	best := model.FileTypeUnknown
	bestScore := 0.0
	// Deterministic tie-break: higher-priority file types win ties.
	for _, ft := range []model.FileType{
		model.FileTypeGLMapping,
		model.FileTypeOpcoReview,
		model.FileTypeAssetValuation,
		model.FileTypePortfolioModel,
	} {
		if scores[ft] > bestScore {
			best, bestScore = ft, scores[ft]
		}
	}

	if bestScore < classifyThreshold {
		best = model.FileTypeUnknown
	}

	cls := model.FileClassification{
		DocumentID:         wb.DocumentID,
		Filename:           wb.Filename,
		FileType:           best,
		Confidence:         math.Min(bestScore/confidenceDivisor, 1.0),
		Indicators:         indicators,
		ExtractionPriority: model.ExtractionPriority(best),
	}

	zap.L().Info("classifier: file classified",
		zap.String("filename", wb.Filename),
		zap.String("file_type", string(best)),
		zap.Float64("score", bestScore),
		zap.Float64("confidence", cls.Confidence),
	)

	return cls
}

// scoreSheet accumulates a per-type score from independent indicators on a
// single sheet.
func scoreSheet(sheet *model.Sheet) (map[model.FileType]float64, []string) {
	scores := map[model.FileType]float64{}
	var indicators []string

	for _, p := range sheetNamePatterns {
		if p.re.MatchString(sheet.Name) {
			scores[p.fileType] += p.score
			indicators = append(indicators, fmt.Sprintf("%s (%q)", p.label, sheet.Name))
		}
	}

	glCodes := 0
	vocabSeen := map[string]bool{}
	facilityTokens := 0

	for _, row := range sheet.Rows {
		for _, cell := range row {
			if cell.Kind != model.CellText {
				continue
			}
			text := strings.TrimSpace(cell.Text)
			if IsGLCode(text) {
				glCodes++
				continue
			}
			lower := strings.ToLower(text)
			for _, v := range bodyVocabulary {
				if !vocabSeen[v.term] && strings.Contains(lower, v.term) {
					vocabSeen[v.term] = true
					scores[v.fileType] += v.score
				}
			}
			if nameLooksLikeFacility(text) {
				facilityTokens++
			}
		}
	}

	// GL code density separates the mapping reference (hundreds of codes,
	// short sheet) from a T13 detail sheet (codes plus thousands of rows).
	switch {
	case glCodes >= 50 && sheet.RowCount() < 1000:
		scores[model.FileTypeGLMapping] += 12
		scores[model.FileTypeOpcoReview] += 6
		indicators = append(indicators, fmt.Sprintf("%d GL codes in %q", glCodes, sheet.Name))
	case glCodes >= 10:
		scores[model.FileTypeOpcoReview] += 10
		indicators = append(indicators, fmt.Sprintf("%d GL codes in %q", glCodes, sheet.Name))
	case glCodes > 0:
		scores[model.FileTypeOpcoReview] += 3
	}

	if sheet.RowCount() > 2000 {
		// Flat T13 exports run to many thousands of rows.
		scores[model.FileTypeOpcoReview] += 8
		indicators = append(indicators, fmt.Sprintf("%d rows in %q", sheet.RowCount(), sheet.Name))
	}

	if facilityTokens >= 3 {
		scores[model.FileTypeOpcoReview] += 4
		scores[model.FileTypeAssetValuation] += 4
	}

	return scores, indicators
}

func nameLooksLikeFacility(name string) bool {
	lower := strings.ToLower(name)
	for _, tok := range knownFacilityTokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}
