// Package valuation implements the Cascadia three-method real-estate
// valuation: cap-rate-on-EBITDAR for owned SNFs, multiplier-on-EBIT for
// leased facilities, and tiered cap-rate-on-EBITDAR for ALF/SNC assets.
package valuation

import (
	"go.uber.org/zap"

	"github.com/sells-group/valuation-cli/internal/model"
)

// sensitivitySteps are the cap-rate perturbations, in percentage points,
// applied to every cap-rate-valued facility for the sensitivity table.
var sensitivitySteps = []float64{-2.0, -1.5, -1.0, -0.5, 0, 0.5, 1.0, 1.5, 2.0}

// capRateFloor stops a negative perturbation from producing a zero or
// negative divisor.
const capRateFloor = 0.01

// Run values every classified facility and aggregates category totals, the
// portfolio total, and the cap-rate sensitivity table. Facilities whose
// chosen metric is zero still appear, valued at zero.
func Run(classes []model.FacilityClassification, sections []model.FacilitySection, assetEntries []model.AssetValuationEntry) *model.CascadiaValuationResult {
	metricsByName := indexMetrics(sections, assetEntries)

	result := &model.CascadiaValuationResult{
		CategoryTotals:   map[model.PropertyType]float64{},
		FacilitiesByType: map[model.PropertyType]int{},
	}

	for _, cls := range classes {
		metric := metricsByName[model.NormalizeFacilityName(cls.FacilityName)][cls.ValuationMethod]
		fv := valueFacility(cls, metric)
		result.Facilities = append(result.Facilities, fv)
		result.CategoryTotals[cls.PropertyType] += fv.Value
		result.FacilitiesByType[cls.PropertyType]++
		result.PortfolioValue += fv.Value
		result.TotalBeds += fv.Beds
	}

	if result.TotalBeds > 0 {
		result.AvgValuePerBed = result.PortfolioValue / float64(result.TotalBeds)
	}
	result.Sensitivity = sensitivityTable(result.Facilities, result.PortfolioValue)

	zap.L().Info("valuation: portfolio valued",
		zap.Int("facilities", len(result.Facilities)),
		zap.Float64("portfolio_value", result.PortfolioValue),
		zap.Int("total_beds", result.TotalBeds),
	)
	return result
}

// valueFacility applies the method chosen by the classification: metric
// divided by cap rate, or metric multiplied by the lease multiplier.
func valueFacility(cls model.FacilityClassification, metric float64) model.CascadiaFacilityValuation {
	fv := model.CascadiaFacilityValuation{
		FacilityName:    cls.FacilityName,
		PropertyType:    cls.PropertyType,
		ValuationMethod: cls.ValuationMethod,
		Metric:          metric,
		Rate:            cls.ApplicableRate,
		Beds:            cls.Beds,
	}

	switch cls.ValuationMethod {
	case model.MethodEBITMultiplier:
		fv.Value = metric * cls.ApplicableRate
	default:
		if cls.ApplicableRate > 0 {
			fv.Value = metric / cls.ApplicableRate
		}
	}

	if fv.Beds > 0 {
		fv.ValuePerBed = fv.Value / float64(fv.Beds)
	}
	return fv
}

// sensitivityTable recomputes the portfolio across the fixed perturbation
// set. Multiplier-valued facilities are insensitive to cap-rate moves and
// contribute their base value at every step.
func sensitivityTable(facilities []model.CascadiaFacilityValuation, base float64) []model.SensitivityRow {
	rows := make([]model.SensitivityRow, 0, len(sensitivitySteps))

	for _, step := range sensitivitySteps {
		total := 0.0
		for _, fv := range facilities {
			if fv.ValuationMethod == model.MethodEBITMultiplier {
				total += fv.Value
				continue
			}
			rate := fv.Rate + step/100
			if rate < capRateFloor {
				rate = capRateFloor
			}
			total += fv.Metric / rate
		}

		row := model.SensitivityRow{
			DeltaPoints:    step,
			PortfolioValue: total,
			DeltaValue:     total - base,
		}
		if base != 0 {
			row.DeltaPercent = (total - base) / base * 100
		}
		rows = append(rows, row)
	}

	return rows
}

// indexMetrics picks the valuation metric per facility and method: EBITDAR
// for cap-rate valuations, EBIT (EBITDA, falling back to net income) for
// multiplier valuations. The T13 sections are primary; asset-valuation
// figures fill facilities the T13 parse never saw.
func indexMetrics(sections []model.FacilitySection, assetEntries []model.AssetValuationEntry) map[string]map[model.ValuationMethod]float64 {
	out := map[string]map[model.ValuationMethod]float64{}

	put := func(name string, method model.ValuationMethod, v float64) {
		key := model.NormalizeFacilityName(name)
		if out[key] == nil {
			out[key] = map[model.ValuationMethod]float64{}
		}
		if out[key][method] == 0 {
			out[key][method] = v
		}
	}

	for i := range sections {
		m := sections[i].SummaryMetrics
		ebitdar := m.EBITDAR
		if ebitdar == 0 {
			ebitdar = m.TotalRevenue - m.TotalExpenses
		}
		put(sections[i].FacilityName, model.MethodEBITDARCapRate, ebitdar)

		ebit := m.EBITDA
		if ebit == 0 {
			ebit = m.NetIncome
		}
		put(sections[i].FacilityName, model.MethodEBITMultiplier, ebit)
	}

	for i := range assetEntries {
		v := assetEntries[i].LatestEBITDA()
		put(assetEntries[i].FacilityName, model.MethodEBITDARCapRate, v)
		put(assetEntries[i].FacilityName, model.MethodEBITMultiplier, v)
	}

	return out
}
