package facclass

import "github.com/sells-group/valuation-cli/internal/model"

// Cap-rate schedule. SNF valuations cap EBITDAR at a flat rate; leased
// facilities apply an EBIT multiplier instead of a cap rate; ALF/SNC rates
// tier on the specific-needs-census mix.
const (
	SNFCapRate = 0.125

	LeaseMultiplierMin     = 2.0
	LeaseMultiplierMax     = 3.0
	LeaseMultiplierDefault = 2.5

	ALFBaseCapRate = 0.08 // 0% SNC
	ALFMidCapRate  = 0.09 // (0%, 33%]
	ALFHighCapRate = 0.12 // above 33%

	alfSNCBreak = 0.33
)

// RateFor returns the applicable rate and method for a property type. A
// pure function of (propertyType, sncPercent); Leased never yields a cap
// rate.
func RateFor(pt model.PropertyType, sncPercent float64) (rate float64, method model.ValuationMethod) {
	switch pt {
	case model.PropertyLeased:
		return LeaseMultiplierDefault, model.MethodEBITMultiplier
	case model.PropertyALFOwned:
		return alfCapRate(sncPercent), model.MethodEBITDARCapRate
	default:
		return SNFCapRate, model.MethodEBITDARCapRate
	}
}

func alfCapRate(sncPercent float64) float64 {
	switch {
	case sncPercent <= 0:
		return ALFBaseCapRate
	case sncPercent <= alfSNCBreak:
		return ALFMidCapRate
	default:
		return ALFHighCapRate
	}
}

// ClampLeaseMultiplier bounds a multiplier read from a valuation file to
// the supported 2.0-3.0 range.
func ClampLeaseMultiplier(m float64) float64 {
	switch {
	case m < LeaseMultiplierMin:
		return LeaseMultiplierMin
	case m > LeaseMultiplierMax:
		return LeaseMultiplierMax
	default:
		return m
	}
}
