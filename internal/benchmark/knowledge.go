package benchmark

import (
	_ "embed"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/valuation-cli/internal/model"
)

//go:embed benchmarks.yaml
var embeddedKnowledge []byte

// Range is a [low, high] benchmark band.
type Range [2]float64

// Low returns the band floor.
func (r Range) Low() float64 { return r[0] }

// High returns the band ceiling.
func (r Range) High() float64 { return r[1] }

// MetricBenchmark holds one metric's tiered ranges.
type MetricBenchmark struct {
	Name   string                                                `yaml:"name"`
	Ranges map[model.OperationalTier]map[model.MarketTier]Range `yaml:"ranges"`
}

// TierWeights weight the four operational-tier component scores.
type TierWeights struct {
	EBITDARMargin float64 `yaml:"ebitdar_margin"`
	RevenuePerBed float64 `yaml:"revenue_per_bed"`
	Occupancy     float64 `yaml:"occupancy"`
	NetIncome     float64 `yaml:"net_income"`
}

// DealBreakerThresholds hold the fixed rule cutoffs.
type DealBreakerThresholds struct {
	RevenuePerBedMin         float64 `yaml:"revenue_per_bed_min"`
	MedicaidConcentrationMax float64 `yaml:"medicaid_concentration_max"`
	EBITDARMarginMin         float64 `yaml:"ebitdar_margin_min"`
}

// Knowledge is the full institutional benchmark knowledge base.
type Knowledge struct {
	TierWeights  TierWeights                                        `yaml:"tier_weights"`
	Metrics      []MetricBenchmark                                  `yaml:"metrics"`
	CapRates     map[model.PropertyType]map[model.MarketTier]Range `yaml:"cap_rates"`
	DealBreakers DealBreakerThresholds                              `yaml:"deal_breakers"`
}

// LoadKnowledge returns the embedded knowledge base, or the one at path
// when the config overrides it.
func LoadKnowledge(path string) (*Knowledge, error) {
	data := embeddedKnowledge
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "benchmark: read knowledge base %s", path)
		}
		data = b
	}

	var k Knowledge
	if err := yaml.Unmarshal(data, &k); err != nil {
		return nil, eris.Wrap(err, "benchmark: unmarshal knowledge base")
	}
	return &k, nil
}

// metricRange resolves one metric's band for a tier pair. Missing entries
// fall back to the average/secondary band.
func (k *Knowledge) metricRange(name string, ot model.OperationalTier, mt model.MarketTier) (Range, bool) {
	for _, m := range k.Metrics {
		if m.Name != name {
			continue
		}
		if byMarket, ok := m.Ranges[ot]; ok {
			if r, ok := byMarket[mt]; ok {
				return r, true
			}
		}
		if byMarket, ok := m.Ranges[model.TierAverage]; ok {
			if r, ok := byMarket[model.MarketSecondary]; ok {
				return r, true
			}
		}
	}
	return Range{}, false
}

// capRateRange resolves the benchmark cap-rate band for an asset type and
// market. Leased assets have no cap-rate band.
func (k *Knowledge) capRateRange(pt model.PropertyType, mt model.MarketTier) (Range, bool) {
	byMarket, ok := k.CapRates[pt]
	if !ok {
		return Range{}, false
	}
	if r, ok := byMarket[mt]; ok {
		return r, true
	}
	if r, ok := byMarket[model.MarketSecondary]; ok {
		return r, true
	}
	return Range{}, false
}
