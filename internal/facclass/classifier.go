// Package facclass assigns each facility a property type and valuation
// method by combining asset-valuation evidence with profit/loss heuristics.
package facclass

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/valuation-cli/internal/model"
)

// fuzzyPrefixLen mirrors the T13 resolver's truncated-prefix match length.
const fuzzyPrefixLen = 8

// Explicit facility-type annotations from section headers.
var alfAnnotations = map[string]bool{
	"ALF": true, "AL_IL": true, "MC": true, "IL": true, "SNC": true,
}

var (
	sncLabelRe         = regexp.MustCompile(`(?i)\bsnc\b|specific\s+needs|assisted\s+living|memory\s+care`)
	leaseLabelRe       = regexp.MustCompile(`(?i)(lease|rent)\s+expense`)
	propertyTaxLabelRe = regexp.MustCompile(`(?i)property\s+tax|real\s+estate\s+tax`)
)

// Classify derives one FacilityClassification per facility section,
// deduplicated by normalized name. Valuation-file evidence wins outright;
// otherwise a rule cascade over the section's line items decides.
func Classify(sections []model.FacilitySection, assetEntries []model.AssetValuationEntry) []model.FacilityClassification {
	seen := make(map[string]bool, len(sections))
	out := make([]model.FacilityClassification, 0, len(sections))

	for i := range sections {
		section := &sections[i]
		key := model.NormalizeFacilityName(section.FacilityName)
		if seen[key] {
			continue
		}
		seen[key] = true

		cls := classifyOne(section, assetEntries)
		out = append(out, cls)

		zap.L().Debug("facclass: facility classified",
			zap.String("facility", cls.FacilityName),
			zap.String("property_type", string(cls.PropertyType)),
			zap.Float64("rate", cls.ApplicableRate),
			zap.Float64("confidence", cls.Confidence),
		)
	}

	return out
}

func classifyOne(section *model.FacilitySection, assetEntries []model.AssetValuationEntry) model.FacilityClassification {
	cls := model.FacilityClassification{
		FacilityName: section.FacilityName,
		Beds:         section.Beds,
	}

	// Valuation-file evidence takes priority over P/L heuristics.
	if entry, ok := matchAssetEntry(assetEntries, section.FacilityName); ok {
		cls.PropertyType = entry.PropertyType
		cls.SNCPercent = entry.SNCPercent
		if cls.Beds == 0 {
			cls.Beds = entry.Beds
		}
		switch {
		case entry.Multiplier > 0:
			cls.ValuationMethod = model.MethodEBITMultiplier
			cls.ApplicableRate = ClampLeaseMultiplier(entry.Multiplier)
		case entry.CapRate > 0:
			cls.ValuationMethod = model.MethodEBITDARCapRate
			cls.ApplicableRate = entry.CapRate
		default:
			cls.ApplicableRate, cls.ValuationMethod = RateFor(entry.PropertyType, entry.SNCPercent)
		}
		cls.Confidence = 0.95
		cls.Indicators = append(cls.Indicators, "matched asset valuation entry")
		return cls
	}

	pt, snc, indicators := detectFromSection(section)
	cls.PropertyType = pt
	cls.SNCPercent = snc
	cls.ApplicableRate, cls.ValuationMethod = RateFor(pt, snc)
	cls.Indicators = indicators

	switch {
	case len(indicators) >= 2:
		cls.Confidence = 0.8
	case len(indicators) == 1:
		cls.Confidence = 0.6
	default:
		cls.Confidence = 0.5 // default SNF with no signal at all
	}

	return cls
}

// detectFromSection runs the P/L rule cascade. First match wins:
// explicit type annotation, lease-without-property-tax, ALF/SNC revenue
// evidence, default SNF.
func detectFromSection(section *model.FacilitySection) (model.PropertyType, float64, []string) {
	var indicators []string

	if ann := strings.ToUpper(strings.TrimSpace(section.FacilityType)); ann != "" {
		if alfAnnotations[ann] {
			indicators = append(indicators, "type annotation "+ann)
			snc := estimateSNCPercent(section)
			if snc > 0 {
				indicators = append(indicators, "SNC revenue share estimated")
			}
			return model.PropertyALFOwned, snc, indicators
		}
		if ann == "SNF" {
			return model.PropertySNFOwned, 0, []string{"type annotation SNF"}
		}
	}

	if strings.EqualFold(section.LeaseOwned, "leased") || strings.EqualFold(section.LeaseOwned, "lease") {
		indicators = append(indicators, "mapping sheet lease status")
	}

	hasLease, hasPropertyTax := false, false
	hasSNCRevenue := false
	for _, it := range section.LineItems {
		if leaseLabelRe.MatchString(it.Label) {
			hasLease = true
		}
		if propertyTaxLabelRe.MatchString(it.Label) {
			hasPropertyTax = true
		}
		if it.Category == model.CategoryRevenue && sncLabelRe.MatchString(it.Label) {
			hasSNCRevenue = true
		}
	}
	if section.SummaryMetrics.LeaseExpense != 0 {
		hasLease = true
	}

	if hasLease && !hasPropertyTax {
		indicators = append(indicators, "lease expense without property tax")
		return model.PropertyLeased, 0, indicators
	}

	if hasSNCRevenue {
		indicators = append(indicators, "ALF/SNC revenue lines")
		snc := estimateSNCPercent(section)
		if snc > 0 {
			indicators = append(indicators, "SNC revenue share estimated")
		}
		return model.PropertyALFOwned, snc, indicators
	}

	return model.PropertySNFOwned, 0, indicators
}

// estimateSNCPercent approximates the SNC mix as SNC-labeled revenue over
// total revenue.
func estimateSNCPercent(section *model.FacilitySection) float64 {
	total := section.SummaryMetrics.TotalRevenue
	if total == 0 {
		return 0
	}
	var snc float64
	for _, it := range section.LineItems {
		if it.Category == model.CategoryRevenue && !it.IsTotal && !it.IsSubtotal && sncLabelRe.MatchString(it.Label) {
			snc += it.AnnualValue
		}
	}
	if snc <= 0 {
		return 0
	}
	pct := snc / total
	if pct > 1 {
		return 1
	}
	return pct
}

// matchAssetEntry finds a valuation entry by exact normalized name, then
// truncated-prefix fuzzy match.
func matchAssetEntry(entries []model.AssetValuationEntry, name string) (model.AssetValuationEntry, bool) {
	norm := model.NormalizeFacilityName(name)

	for _, e := range entries {
		if model.NormalizeFacilityName(e.FacilityName) == norm {
			return e, true
		}
	}
	for _, e := range entries {
		if fuzzyPrefixMatch(norm, model.NormalizeFacilityName(e.FacilityName)) {
			return e, true
		}
	}
	return model.AssetValuationEntry{}, false
}

func fuzzyPrefixMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) < fuzzyPrefixLen {
		return false
	}
	return strings.HasPrefix(long, short)
}
