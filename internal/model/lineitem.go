package model

// LineItemCategory buckets a P/L row.
type LineItemCategory string

const (
	CategoryRevenue LineItemCategory = "revenue"
	CategoryExpense LineItemCategory = "expense"
	CategoryMetric  LineItemCategory = "metric"
	CategoryCensus  LineItemCategory = "census"
)

// LineItem is one qualifying row of a facility's profit/loss section.
// Never mutated after creation.
type LineItem struct {
	RowIndex     int              `json:"row_index"`
	GLCode       string           `json:"gl_code,omitempty"`
	Label        string           `json:"label"`
	AnnualValue  float64          `json:"annual_value"`
	MonthlyValue float64          `json:"monthly_value,omitempty"`
	PPDValue     float64          `json:"ppd_value,omitempty"`
	BudgetAnnual float64          `json:"budget_annual,omitempty"`
	BudgetPPD    float64          `json:"budget_ppd,omitempty"`
	Category     LineItemCategory `json:"category"`
	Subcategory  string           `json:"subcategory,omitempty"`
	IsSubtotal   bool             `json:"is_subtotal,omitempty"`
	IsTotal      bool             `json:"is_total,omitempty"`
	IndentLevel  int              `json:"indent_level,omitempty"`
}
