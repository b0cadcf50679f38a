package pipeline

import (
	"math"

	"github.com/sells-group/valuation-cli/internal/model"
)

// Aggregate confidence weights. Classification quality and facility-level
// classification quality dominate; completeness (did anything parse at all)
// covers the degraded-to-empty case.
const (
	weightFileConfidence     = 0.35
	weightFacilityConfidence = 0.40
	weightCompleteness       = 0.25
)

// aggregateConfidence folds the run's evidence into a single [0,1] score.
// A run that recovered zero facilities scores near zero regardless of how
// confidently its files classified.
func aggregateConfidence(result *model.ExtractedDataSet) float64 {
	fileConf := averageFileConfidence(result.Classifications)
	facConf := averageFacilityConfidence(result.FacilityClasses)

	completeness := 0.0
	if len(result.Facilities) > 0 {
		completeness = 1.0
		// Each warning chips away at completeness, floored at 0.3.
		penalty := float64(len(result.Warnings)) * 0.05
		completeness = math.Max(1.0-penalty, 0.3)
	}

	score := weightFileConfidence*fileConf +
		weightFacilityConfidence*facConf +
		weightCompleteness*completeness

	return math.Max(0, math.Min(score, 1))
}

func averageFileConfidence(classifications []model.FileClassification) float64 {
	if len(classifications) == 0 {
		return 0
	}
	var sum float64
	for _, c := range classifications {
		sum += c.Confidence
	}
	return sum / float64(len(classifications))
}

func averageFacilityConfidence(classes []model.FacilityClassification) float64 {
	if len(classes) == 0 {
		return 0
	}
	var sum float64
	for _, c := range classes {
		sum += c.Confidence
	}
	return sum / float64(len(classes))
}
