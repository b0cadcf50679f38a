package model

// OperationalTier grades a facility's operating strength.
type OperationalTier string

const (
	TierStrong  OperationalTier = "strong"
	TierAverage OperationalTier = "average"
	TierWeak    OperationalTier = "weak"
)

// MarketTier grades the geographic market.
type MarketTier string

const (
	MarketPrimary   MarketTier = "primary"
	MarketSecondary MarketTier = "secondary"
	MarketTertiary  MarketTier = "tertiary"
)

// BenchmarkRating places a metric relative to its benchmark range.
type BenchmarkRating string

const (
	RatingAbove BenchmarkRating = "above"
	RatingAt    BenchmarkRating = "at"
	RatingBelow BenchmarkRating = "below"
)

// BenchmarkComparison rates one facility metric against its tiered range.
type BenchmarkComparison struct {
	Metric    string          `json:"metric"`
	Actual    float64         `json:"actual"`
	RangeLow  float64         `json:"range_low"`
	RangeHigh float64         `json:"range_high"`
	Rating    BenchmarkRating `json:"rating"`
}

// DealBreakerResult is one deal-breaker rule evaluation. Rules are always
// reported, triggered or not.
type DealBreakerResult struct {
	Rule      string  `json:"rule"`
	Triggered bool    `json:"triggered"`
	Actual    float64 `json:"actual"`
	Threshold float64 `json:"threshold"`
	Detail    string  `json:"detail,omitempty"`
}

// CapRateValidation checks the rate actually used against the benchmark
// range for the facility's geography and asset type.
type CapRateValidation struct {
	RateUsed  float64 `json:"rate_used"`
	RangeLow  float64 `json:"range_low"`
	RangeHigh float64 `json:"range_high"`
	InRange   bool    `json:"in_range"`
}

// FacilityBenchmark is the full benchmark report for one facility.
type FacilityBenchmark struct {
	FacilityName    string                `json:"facility_name"`
	OperationalTier OperationalTier       `json:"operational_tier"`
	MarketTier      MarketTier            `json:"market_tier"`
	TierScore       float64               `json:"tier_score"`
	Comparisons     []BenchmarkComparison `json:"comparisons"`
	DealBreakers    []DealBreakerResult   `json:"deal_breakers"`
	CapRate         *CapRateValidation    `json:"cap_rate,omitempty"`
}
