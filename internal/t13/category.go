package t13

import (
	"regexp"
	"strings"

	"github.com/sells-group/valuation-cli/internal/model"
)

// categoryRule is one (predicate, result) entry of the label cascade.
// Rules are evaluated top to bottom; first match wins.
type categoryRule struct {
	re       *regexp.Regexp
	category model.LineItemCategory
	subcat   string
}

// labelCategoryRules categorize a row by label vocabulary when no GL code is
// present. Ordered by priority: metric, census, revenue, expense.
var labelCategoryRules = []categoryRule{
	{regexp.MustCompile(`(?i)ebitdar?|net\s+(operating\s+)?income|noi\b|margin|per\s+patient\s+day`), model.CategoryMetric, ""},
	{regexp.MustCompile(`(?i)census|patient\s+days|resident\s+days|occupancy|adc\b`), model.CategoryCensus, ""},
	{regexp.MustCompile(`(?i)medicaid`), model.CategoryRevenue, "medicaid"},
	{regexp.MustCompile(`(?i)medicare`), model.CategoryRevenue, "medicare"},
	{regexp.MustCompile(`(?i)revenue|income\s*-|private\s+pay|insurance|ancillar`), model.CategoryRevenue, ""},
	{regexp.MustCompile(`(?i)salar|wage|benefit|payroll|labor`), model.CategoryExpense, "labor"},
	{regexp.MustCompile(`(?i)expense|cost|supplies|utilities|insurance\s+expense|tax|fee|rent|lease`), model.CategoryExpense, ""},
}

// categorize assigns a category first by GL-code numeric prefix, then by the
// GL mapping's canonical category, then by label vocabulary. Rows matching
// nothing default to expense so no data is dropped.
func categorize(glCode, label string, mapping *model.GLMapping) (model.LineItemCategory, string) {
	if glCode != "" {
		if cat, sub, ok := categoryFromGLPrefix(glCode); ok {
			sub = refineSubcategory(label, sub, mapping, glCode)
			return cat, sub
		}
	}

	if entry, ok := mapping.Lookup(glCode); ok && entry.Category != "" {
		if cat, ok := canonicalCategory(entry.Category); ok {
			return cat, entry.Category
		}
	}

	for _, rule := range labelCategoryRules {
		if rule.re.MatchString(label) {
			return rule.category, rule.subcat
		}
	}

	return model.CategoryExpense, ""
}

// categoryFromGLPrefix maps the leading digit of a GL code:
// 4 revenue, 5-8 expense, 9 census.
func categoryFromGLPrefix(glCode string) (model.LineItemCategory, string, bool) {
	code := strings.TrimSpace(glCode)
	if code == "" {
		return "", "", false
	}
	switch code[0] {
	case '4':
		return model.CategoryRevenue, "", true
	case '5', '6', '7', '8':
		return model.CategoryExpense, "", true
	case '9':
		return model.CategoryCensus, "", true
	default:
		return "", "", false
	}
}

// refineSubcategory layers the GL mapping's canonical category (when known)
// and high-signal label terms on top of the prefix assignment.
func refineSubcategory(label, sub string, mapping *model.GLMapping, glCode string) string {
	if entry, ok := mapping.Lookup(glCode); ok && entry.Category != "" {
		return entry.Category
	}
	lower := strings.ToLower(label)
	switch {
	case strings.Contains(lower, "medicaid"):
		return "medicaid"
	case strings.Contains(lower, "medicare"):
		return "medicare"
	case strings.Contains(lower, "salar") || strings.Contains(lower, "wage") || strings.Contains(lower, "benefit"):
		return "labor"
	}
	return sub
}

func canonicalCategory(s string) (model.LineItemCategory, bool) {
	switch model.LineItemCategory(strings.ToLower(strings.TrimSpace(s))) {
	case model.CategoryRevenue:
		return model.CategoryRevenue, true
	case model.CategoryExpense:
		return model.CategoryExpense, true
	case model.CategoryMetric:
		return model.CategoryMetric, true
	case model.CategoryCensus:
		return model.CategoryCensus, true
	}
	return "", false
}

var (
	totalPrefixRe     = regexp.MustCompile(`(?i)^total\b`)
	totalSuffixRe     = regexp.MustCompile(`(?i)\btotal$`)
	subtotalPrefixRe  = regexp.MustCompile(`(?i)^sub\s*total`)
	departmentTotalRe = regexp.MustCompile(`(?i)^(nursing|dietary|housekeeping|laundry|activities|social\s+services|administrati\w*|maintenance|therapy|ancillary)\s+total\b`)
)

// isTotalRow reports whether a label marks a total row and whether it is a
// subtotal rather than a grand total.
func isTotalRow(label string) (total, subtotal bool) {
	l := strings.TrimSpace(label)
	switch {
	case subtotalPrefixRe.MatchString(l):
		return true, true
	case departmentTotalRe.MatchString(l):
		return true, true
	case totalPrefixRe.MatchString(l), totalSuffixRe.MatchString(l):
		return true, false
	}
	return false, false
}
