package model

import "time"

// ExtractedDataSet is the single result object of a pipeline run: everything
// extracted and computed from one batch of workbooks. It is a pure value —
// the core never persists it.
type ExtractedDataSet struct {
	Classifications   []FileClassification      `json:"classifications"`
	GLMapping         *GLMapping                `json:"-"`
	GLMappingEntries  []GLMappingEntry          `json:"gl_mapping_entries,omitempty"`
	Facilities        []FacilitySection         `json:"facilities"`
	AssetEntries      []AssetValuationEntry     `json:"asset_entries,omitempty"`
	FacilityClasses   []FacilityClassification  `json:"facility_classes,omitempty"`
	Valuation         *CascadiaValuationResult  `json:"valuation,omitempty"`
	Benchmarks        []FacilityBenchmark       `json:"benchmarks,omitempty"`
	Confidence        float64                   `json:"confidence"`
	Warnings          []string                  `json:"warnings,omitempty"`
	Elapsed           time.Duration             `json:"elapsed_ns"`
	Source            string                    `json:"source,omitempty"` // "pipeline" or "vision_fallback"
}
