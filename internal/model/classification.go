package model

// FileType labels the document family a workbook belongs to.
type FileType string

const (
	FileTypeOpcoReview     FileType = "opco_review"
	FileTypeAssetValuation FileType = "asset_valuation"
	FileTypePortfolioModel FileType = "portfolio_model"
	FileTypeGLMapping      FileType = "gl_mapping"
	FileTypeUnknown        FileType = "unknown"
)

// extractionPriorities orders file types for parsing. The GL mapping must be
// built before any profit/loss file consumes it, so it always sorts first.
var extractionPriorities = map[FileType]int{
	FileTypeGLMapping:      0,
	FileTypeOpcoReview:     1,
	FileTypeAssetValuation: 2,
	FileTypePortfolioModel: 3,
	FileTypeUnknown:        99,
}

// ExtractionPriority returns the parse ordering for a file type
// (lower parses first). Unrecognized types sort last.
func ExtractionPriority(ft FileType) int {
	if p, ok := extractionPriorities[ft]; ok {
		return p
	}
	return 99
}

// FileClassification is the per-file result of the content-heuristic scorer.
// Immutable once created.
type FileClassification struct {
	DocumentID         string   `json:"document_id"`
	Filename           string   `json:"filename"`
	FileType           FileType `json:"file_type"`
	Confidence         float64  `json:"confidence"`
	Indicators         []string `json:"indicators"`
	ExtractionPriority int      `json:"extraction_priority"`
}
