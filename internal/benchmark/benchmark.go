// Package benchmark compares extracted facility metrics against an
// institutional knowledge base and flags deal-breaker rule violations.
package benchmark

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/valuation-cli/internal/model"
)

// Metric names shared with the knowledge base.
const (
	MetricRevenuePerBedDay = "revenue_per_bed_day"
	MetricEBITDARMargin    = "ebitdar_margin"
	MetricValuePerBed      = "value_per_bed"
	MetricLaborCostPercent = "labor_cost_percent"
)

var medicaidLabelRe = regexp.MustCompile(`(?i)medicaid`)

// Engine evaluates facilities against the knowledge base.
type Engine struct {
	knowledge *Knowledge
	market    model.MarketTier
}

// NewEngine creates an engine. An empty market tier defaults to secondary.
func NewEngine(k *Knowledge, market model.MarketTier) *Engine {
	if market == "" {
		market = model.MarketSecondary
	}
	return &Engine{knowledge: k, market: market}
}

// Evaluate benchmarks every facility that has both a section and a
// valuation. All deal-breaker rules are reported for every facility,
// triggered or not.
func (e *Engine) Evaluate(sections []model.FacilitySection, valuation *model.CascadiaValuationResult) []model.FacilityBenchmark {
	valuesByName := map[string]model.CascadiaFacilityValuation{}
	if valuation != nil {
		for _, fv := range valuation.Facilities {
			valuesByName[model.NormalizeFacilityName(fv.FacilityName)] = fv
		}
	}

	out := make([]model.FacilityBenchmark, 0, len(sections))
	for i := range sections {
		section := &sections[i]
		fv := valuesByName[model.NormalizeFacilityName(section.FacilityName)]
		out = append(out, e.evaluateOne(section, fv))
	}
	return out
}

func (e *Engine) evaluateOne(section *model.FacilitySection, fv model.CascadiaFacilityValuation) model.FacilityBenchmark {
	m := facilityMetrics(section, fv)

	tier, tierScore := e.operationalTier(m)

	fb := model.FacilityBenchmark{
		FacilityName:    section.FacilityName,
		OperationalTier: tier,
		MarketTier:      e.market,
		TierScore:       tierScore,
	}

	fb.Comparisons = e.compare(tier, m)
	fb.DealBreakers = e.dealBreakers(m)

	if fv.ValuationMethod == model.MethodEBITDARCapRate && fv.Rate > 0 {
		if r, ok := e.knowledge.capRateRange(fv.PropertyType, e.market); ok {
			fb.CapRate = &model.CapRateValidation{
				RateUsed:  fv.Rate,
				RangeLow:  r.Low(),
				RangeHigh: r.High(),
				InRange:   fv.Rate >= r.Low() && fv.Rate <= r.High(),
			}
		}
	}

	zap.L().Debug("benchmark: facility evaluated",
		zap.String("facility", section.FacilityName),
		zap.String("tier", string(tier)),
		zap.Float64("tier_score", tierScore),
	)
	return fb
}

// facilityMetrics collects the raw figures every rule consumes.
type metrics struct {
	revenue          float64
	expenses         float64
	ebitdar          float64
	ebitda           float64
	netIncome        float64
	beds             int
	valuePerBed      float64
	laborCost        float64
	medicaidRevenue  float64
	occupancy        float64
	revenuePerBed    float64
	revenuePerBedDay float64
	ebitdarMargin    float64
	laborPercent     float64
	medicaidShare    float64
}

func facilityMetrics(section *model.FacilitySection, fv model.CascadiaFacilityValuation) metrics {
	sm := section.SummaryMetrics
	m := metrics{
		revenue:     sm.TotalRevenue,
		expenses:    sm.TotalExpenses,
		ebitdar:     sm.EBITDAR,
		ebitda:      sm.EBITDA,
		netIncome:   sm.NetIncome,
		beds:        section.Beds,
		valuePerBed: fv.ValuePerBed,
	}
	if m.beds == 0 {
		m.beds = fv.Beds
	}

	for _, it := range section.LineItems {
		if it.IsTotal || it.IsSubtotal {
			continue
		}
		if it.Category == model.CategoryRevenue && medicaidLabelRe.MatchString(it.Label) {
			m.medicaidRevenue += it.AnnualValue
		}
		if it.Category == model.CategoryExpense && strings.EqualFold(it.Subcategory, "labor") {
			m.laborCost += it.AnnualValue
		}
	}

	if section.Census != nil {
		m.occupancy = section.Census.Occupancy
	}

	if m.beds > 0 {
		m.revenuePerBed = m.revenue / float64(m.beds)
		m.revenuePerBedDay = m.revenuePerBed / 365
	}
	if m.revenue != 0 {
		m.ebitdarMargin = m.ebitdar / m.revenue
		m.laborPercent = m.laborCost / m.revenue
		m.medicaidShare = m.medicaidRevenue / m.revenue
	}
	return m
}

// operationalTier derives strong/average/weak from the weighted average of
// four 1-3 component scores.
func (e *Engine) operationalTier(m metrics) (model.OperationalTier, float64) {
	w := e.knowledge.TierWeights

	marginScore := scoreBand(m.ebitdarMargin, 0.05, 0.12)
	revenueScore := scoreBand(m.revenuePerBed, 60000, 100000)

	// Occupancy proxy: direct occupancy when census rows carried it,
	// otherwise revenue density stands in.
	occupancyScore := revenueScore
	if m.occupancy > 0 {
		occupancyScore = scoreBand(m.occupancy, 0.75, 0.88)
	}

	netIncomeScore := 1.0
	if m.netIncome > 0 {
		netIncomeScore = 3.0
	} else if m.netIncome == 0 {
		netIncomeScore = 2.0
	}

	totalWeight := w.EBITDARMargin + w.RevenuePerBed + w.Occupancy + w.NetIncome
	if totalWeight == 0 {
		return model.TierAverage, 2.0
	}
	score := (w.EBITDARMargin*marginScore +
		w.RevenuePerBed*revenueScore +
		w.Occupancy*occupancyScore +
		w.NetIncome*netIncomeScore) / totalWeight

	switch {
	case score >= 2.4:
		return model.TierStrong, score
	case score >= 1.7:
		return model.TierAverage, score
	default:
		return model.TierWeak, score
	}
}

// scoreBand maps a value onto a 1-3 score: below low is 1, above high is 3.
func scoreBand(v, low, high float64) float64 {
	switch {
	case v >= high:
		return 3.0
	case v >= low:
		return 2.0
	default:
		return 1.0
	}
}

func (e *Engine) compare(tier model.OperationalTier, m metrics) []model.BenchmarkComparison {
	values := []struct {
		name   string
		actual float64
	}{
		{MetricRevenuePerBedDay, m.revenuePerBedDay},
		{MetricEBITDARMargin, m.ebitdarMargin},
		{MetricValuePerBed, m.valuePerBed},
		{MetricLaborCostPercent, m.laborPercent},
	}

	out := make([]model.BenchmarkComparison, 0, len(values))
	for _, v := range values {
		r, ok := e.knowledge.metricRange(v.name, tier, e.market)
		if !ok {
			continue
		}
		cmp := model.BenchmarkComparison{
			Metric:    v.name,
			Actual:    v.actual,
			RangeLow:  r.Low(),
			RangeHigh: r.High(),
		}
		switch {
		case v.actual > r.High():
			cmp.Rating = model.RatingAbove
		case v.actual < r.Low():
			cmp.Rating = model.RatingBelow
		default:
			cmp.Rating = model.RatingAt
		}
		out = append(out, cmp)
	}
	return out
}

// dealBreakers evaluates every rule independently. A rule at exactly its
// threshold does not trigger.
func (e *Engine) dealBreakers(m metrics) []model.DealBreakerResult {
	t := e.knowledge.DealBreakers
	noi := m.revenue - m.expenses

	return []model.DealBreakerResult{
		{
			Rule:      "negative_noi",
			Triggered: noi < 0,
			Actual:    noi,
			Threshold: 0,
			Detail:    fmt.Sprintf("net operating income %.0f", noi),
		},
		{
			Rule:      "negative_ebitda",
			Triggered: m.ebitda < 0,
			Actual:    m.ebitda,
			Threshold: 0,
		},
		{
			Rule:      "revenue_per_bed_below_minimum",
			Triggered: m.beds > 0 && m.revenuePerBed < t.RevenuePerBedMin,
			Actual:    m.revenuePerBed,
			Threshold: t.RevenuePerBedMin,
		},
		{
			Rule:      "medicaid_concentration",
			Triggered: m.medicaidShare > t.MedicaidConcentrationMax,
			Actual:    m.medicaidShare,
			Threshold: t.MedicaidConcentrationMax,
		},
		{
			Rule:      "ebitdar_margin_below_minimum",
			Triggered: m.revenue > 0 && m.ebitdarMargin < t.EBITDARMarginMin,
			Actual:    m.ebitdarMargin,
			Threshold: t.EBITDARMarginMin,
		},
	}
}
