package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/valuation-cli/internal/model"
	"github.com/sells-group/valuation-cli/internal/resilience"
)

const extractSystemPrompt = `You read spreadsheet snippets from skilled nursing and assisted living
facility financial packages. Extract per-facility financials. Respond with ONLY a JSON object:
{"facilities":[{"name":"...","beds":0,"total_revenue":0,"total_expenses":0,"ebitdar":0,"ebitda":0,"net_income":0}]}
Use annual dollar amounts. Omit facilities you cannot identify. No prose, no markdown fences.`

const (
	snippetMaxRows = 60
	snippetMaxCols = 12
)

// Extractor recovers facility financials from workbooks the deterministic
// parsers could not handle, by showing sheet snippets to a language model.
type Extractor struct {
	client    Client
	model     string
	maxTokens int64
}

// NewExtractor creates an Extractor. An empty modelID falls back to a small
// fast model; extraction quality matters less than cost here.
func NewExtractor(client Client, modelID string, maxTokens int64) *Extractor {
	if modelID == "" {
		modelID = "claude-haiku-4-5-20251001"
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Extractor{client: client, model: modelID, maxTokens: maxTokens}
}

type extractedFacility struct {
	Name          string  `json:"name"`
	Beds          int     `json:"beds"`
	TotalRevenue  float64 `json:"total_revenue"`
	TotalExpenses float64 `json:"total_expenses"`
	EBITDAR       float64 `json:"ebitdar"`
	EBITDA        float64 `json:"ebitda"`
	NetIncome     float64 `json:"net_income"`
}

type extractResponse struct {
	Facilities []extractedFacility `json:"facilities"`
}

// ExtractFacilities sends sheet snippets from the workbook to the model and
// returns the facility sections it recovered, plus any warnings.
func (e *Extractor) ExtractFacilities(ctx context.Context, wb *model.Workbook) ([]model.FacilitySection, []string, error) {
	snippet := renderSnippet(wb)
	if snippet == "" {
		return nil, []string{fmt.Sprintf("%s: no sheet content to send to vision fallback", wb.Filename)}, nil
	}

	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.OnRetry = resilience.RetryLogger("vision", "extract")
	resp, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (*MessageResponse, error) {
		return e.client.CreateMessage(ctx, MessageRequest{
			Model:     e.model,
			MaxTokens: e.maxTokens,
			System:    extractSystemPrompt,
			Messages: []Message{
				{Role: "user", Content: snippet},
			},
		})
	})
	if err != nil {
		return nil, nil, eris.Wrapf(err, "vision: extract %s", wb.Filename)
	}

	zap.L().Debug("vision: model response",
		zap.String("file", wb.Filename),
		zap.Int64("input_tokens", resp.Usage.InputTokens),
		zap.Int64("output_tokens", resp.Usage.OutputTokens))

	parsed, err := parseResponse(resp.Text)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "vision: parse response for %s", wb.Filename)
	}

	var sections []model.FacilitySection
	var warnings []string
	for _, f := range parsed.Facilities {
		if strings.TrimSpace(f.Name) == "" {
			warnings = append(warnings, fmt.Sprintf("%s: vision fallback returned unnamed facility, skipped", wb.Filename))
			continue
		}
		sections = append(sections, model.FacilitySection{
			FacilityName: strings.TrimSpace(f.Name),
			Beds:         f.Beds,
			SourceSheet:  wb.Filename,
			SummaryMetrics: model.SummaryMetrics{
				TotalRevenue:  f.TotalRevenue,
				TotalExpenses: f.TotalExpenses,
				EBITDAR:       f.EBITDAR,
				EBITDA:        f.EBITDA,
				NetIncome:     f.NetIncome,
			},
		})
	}

	return sections, warnings, nil
}

// renderSnippet flattens the workbook's sheets into tab-separated text,
// bounded so the prompt stays small.
func renderSnippet(wb *model.Workbook) string {
	var b strings.Builder
	for _, sheet := range wb.Sheets {
		if sheet.RowCount() == 0 {
			continue
		}
		fmt.Fprintf(&b, "=== sheet: %s ===\n", sheet.Name)
		rows := sheet.RowCount()
		if rows > snippetMaxRows {
			rows = snippetMaxRows
		}
		for r := 0; r < rows; r++ {
			var cells []string
			for c := 0; c < snippetMaxCols; c++ {
				cells = append(cells, cellText(sheet.Cell(r, c)))
			}
			b.WriteString(strings.TrimRight(strings.Join(cells, "\t"), "\t"))
			b.WriteByte('\n')
		}
	}
	return strings.TrimSpace(b.String())
}

func cellText(c model.Cell) string {
	switch c.Kind {
	case model.CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case model.CellText:
		return c.Text
	default:
		return ""
	}
}

// parseResponse tolerates markdown fences and leading prose around the JSON.
func parseResponse(text string) (*extractResponse, error) {
	text = strings.TrimSpace(text)
	if start := strings.Index(text, "{"); start > 0 {
		text = text[start:]
	}
	if end := strings.LastIndex(text, "}"); end >= 0 {
		text = text[:end+1]
	}

	var parsed extractResponse
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return nil, eris.Wrap(err, "vision: unmarshal facilities")
	}
	return &parsed, nil
}
