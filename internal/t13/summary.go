package t13

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/valuation-cli/internal/model"
)

// summaryRule binds a dedicated summary-row label pattern to a metric slot.
// Rules are evaluated top to bottom per row; first match wins. Direct
// captures always take precedence over values derived by summation.
type summaryRule struct {
	re    *regexp.Regexp
	apply func(m *model.SummaryMetrics, v float64)
}

var summaryRules = []summaryRule{
	{regexp.MustCompile(`(?i)^total\s+(operating\s+)?revenue`), func(m *model.SummaryMetrics, v float64) { m.TotalRevenue = v }},
	{regexp.MustCompile(`(?i)^total\s+(operating\s+)?expenses?`), func(m *model.SummaryMetrics, v float64) { m.TotalExpenses = v }},
	{regexp.MustCompile(`(?i)^ebitdar\b`), func(m *model.SummaryMetrics, v float64) { m.EBITDAR = v }},
	{regexp.MustCompile(`(?i)^ebitda\b`), func(m *model.SummaryMetrics, v float64) { m.EBITDA = v }},
	{regexp.MustCompile(`(?i)^net\s+(operating\s+)?income`), func(m *model.SummaryMetrics, v float64) { m.NetIncome = v }},
	{regexp.MustCompile(`(?i)management\s+fee`), func(m *model.SummaryMetrics, v float64) { m.ManagementFee = v }},
	{regexp.MustCompile(`(?i)(lease|rent)\s+expense`), func(m *model.SummaryMetrics, v float64) { m.LeaseExpense = v }},
	{regexp.MustCompile(`(?i)provider\s+tax`), func(m *model.SummaryMetrics, v float64) { m.ProviderTax = v }},
}

// captureSummaryRow applies the first matching summary rule for a row label.
// Returns true when the row was a summary row.
func captureSummaryRow(metrics *model.SummaryMetrics, label string, value float64) bool {
	for _, rule := range summaryRules {
		if rule.re.MatchString(strings.TrimSpace(label)) {
			rule.apply(metrics, value)
			return true
		}
	}
	return false
}

// backfillTotals derives totalRevenue/totalExpenses from category-matching
// total and subtotal rows when direct capture left them at zero. Summation
// never overwrites a directly captured value.
func backfillTotals(metrics *model.SummaryMetrics, items []model.LineItem) {
	if metrics.TotalRevenue == 0 {
		metrics.TotalRevenue = sumTotalsFor(items, model.CategoryRevenue)
	}
	if metrics.TotalExpenses == 0 {
		metrics.TotalExpenses = sumTotalsFor(items, model.CategoryExpense)
	}
}

func sumTotalsFor(items []model.LineItem, cat model.LineItemCategory) float64 {
	var sum float64
	for _, it := range items {
		if it.Category == cat && it.IsTotal {
			sum += it.AnnualValue
		}
	}
	if sum != 0 {
		return sum
	}
	// No grand-total rows: fall back to subtotals.
	for _, it := range items {
		if it.Category == cat && it.IsSubtotal {
			sum += it.AnnualValue
		}
	}
	return sum
}

// currentStateMetrics holds the authoritative figures read from a
// "Current State / 85% Occupancy" summary area.
type currentStateMetrics struct {
	revenue   float64
	ebitdar   float64
	netIncome float64
}

// parseCurrentState locates a summary area by its "Total Operating Revenue"
// header cell and reads one row per facility beneath it. Values from this
// area only fill metrics left at zero by the main parse; they never
// override a non-zero value.
func parseCurrentState(sheet *model.Sheet) map[string]currentStateMetrics {
	headerRow, revCol := -1, -1
	for r := 0; r < sheet.RowCount() && headerRow < 0; r++ {
		for c, cell := range sheet.Rows[r] {
			if cell.Kind != model.CellText {
				continue
			}
			if strings.EqualFold(strings.TrimSpace(cell.Text), "Total Operating Revenue") {
				headerRow, revCol = r, c
				break
			}
		}
	}
	if headerRow < 0 {
		return nil
	}

	// Companion headers on the same row; fixed offsets when absent.
	ebitdarCol, niCol := revCol+1, revCol+2
	for c, cell := range sheet.Rows[headerRow] {
		if cell.Kind != model.CellText {
			continue
		}
		lower := strings.ToLower(strings.TrimSpace(cell.Text))
		switch {
		case strings.HasPrefix(lower, "ebitdar"):
			ebitdarCol = c
		case strings.HasPrefix(lower, "net income") || strings.HasPrefix(lower, "net operating income"):
			niCol = c
		}
	}

	out := make(map[string]currentStateMetrics)
	for r := headerRow + 1; r < sheet.RowCount(); r++ {
		name := strings.TrimSpace(sheet.Cell(r, 0).String())
		if name == "" || isReservedWord(name) {
			continue
		}
		rev, okRev := model.ParseNumber(sheet.Cell(r, revCol))
		ebitdar, _ := model.ParseNumber(sheet.Cell(r, ebitdarCol))
		ni, _ := model.ParseNumber(sheet.Cell(r, niCol))
		if !okRev {
			continue
		}
		out[model.NormalizeFacilityName(name)] = currentStateMetrics{
			revenue:   rev,
			ebitdar:   ebitdar,
			netIncome: ni,
		}
	}

	zap.L().Debug("t13: current-state area parsed",
		zap.String("sheet", sheet.Name),
		zap.Int("facilities", len(out)),
	)
	return out
}

// applyCurrentState fills zero-valued metrics from the summary area.
func applyCurrentState(section *model.FacilitySection, cs currentStateMetrics) {
	m := &section.SummaryMetrics
	if m.TotalRevenue == 0 && cs.revenue != 0 {
		m.TotalRevenue = cs.revenue
	}
	if m.EBITDAR == 0 && cs.ebitdar != 0 {
		m.EBITDAR = cs.ebitdar
	}
	if m.NetIncome == 0 && cs.netIncome != 0 {
		m.NetIncome = cs.netIncome
	}
}
