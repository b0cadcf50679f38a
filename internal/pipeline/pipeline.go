// Package pipeline sequences the extraction stages over a batch of
// workbooks: classification, GL mapping, profit/loss and asset-valuation
// parsing, facility classification, valuation, and benchmarks.
package pipeline

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/valuation-cli/internal/assetval"
	"github.com/sells-group/valuation-cli/internal/benchmark"
	"github.com/sells-group/valuation-cli/internal/classifier"
	"github.com/sells-group/valuation-cli/internal/facclass"
	"github.com/sells-group/valuation-cli/internal/glmap"
	"github.com/sells-group/valuation-cli/internal/model"
	"github.com/sells-group/valuation-cli/internal/t13"
	"github.com/sells-group/valuation-cli/internal/valuation"
)

// Options tune one pipeline run.
type Options struct {
	MarketTier    model.MarketTier // defaults to secondary
	KnowledgePath string           // empty uses the embedded knowledge base
	MaxParallel   int              // per-file parse workers, defaults to 4
}

// Run executes the full pipeline over a batch of workbooks and returns the
// single result object. Only structural failures (no input, every workbook
// empty) return an error; malformed business data degrades to warnings and
// a lower confidence score.
func Run(ctx context.Context, workbooks []model.Workbook, opts Options) (*model.ExtractedDataSet, error) {
	start := time.Now()

	if len(workbooks) == 0 {
		return nil, eris.New("pipeline: no workbooks provided")
	}
	nonEmpty := 0
	for i := range workbooks {
		if len(workbooks[i].Sheets) > 0 {
			nonEmpty++
		}
	}
	if nonEmpty == 0 {
		return nil, eris.New("pipeline: every workbook is empty")
	}

	result := &model.ExtractedDataSet{Source: "pipeline"}

	// Stage 1: classify every file, then order the work list by extraction
	// priority. The ordering is a hard contract: the GL mapping must be
	// built before any profit/loss file is parsed.
	ordered := classifyAndOrder(workbooks, result)

	// Stage 2: GL mapping (priority 0) parses first, alone.
	mapping := model.NewGLMapping(nil)
	rest := ordered[:0:0]
	for _, wb := range ordered {
		if wb.classification.FileType == model.FileTypeGLMapping {
			m := glmap.Parse(wb.workbook)
			if m.Len() > 0 && mapping.Len() == 0 {
				mapping = m
			}
			continue
		}
		rest = append(rest, wb)
	}
	result.GLMapping = mapping
	result.GLMappingEntries = mapping.Entries()
	if mapping.Len() == 0 {
		result.Warnings = append(result.Warnings,
			"pipeline: no GL mapping available, categorization falls back to label vocabulary")
	}

	// Stage 3: remaining files parse in parallel; no stage mutates another
	// stage's output, so a mutex around the merge is the only coordination.
	parsed := parseFiles(ctx, rest, mapping, opts.MaxParallel)

	result.Facilities = parsed.sections
	result.AssetEntries = parsed.assetEntries
	result.Warnings = append(result.Warnings, parsed.warnings...)

	// Stage 4: classification, valuation, benchmarks.
	result.FacilityClasses = facclass.Classify(result.Facilities, result.AssetEntries)
	if len(result.FacilityClasses) > 0 {
		result.Valuation = valuation.Run(result.FacilityClasses, result.Facilities, result.AssetEntries)
	}

	knowledge, err := benchmark.LoadKnowledge(opts.KnowledgePath)
	if err != nil {
		result.Warnings = append(result.Warnings, "pipeline: benchmark knowledge base unavailable: "+err.Error())
	} else {
		engine := benchmark.NewEngine(knowledge, opts.MarketTier)
		result.Benchmarks = engine.Evaluate(result.Facilities, result.Valuation)
	}

	result.Confidence = aggregateConfidence(result)
	result.Elapsed = time.Since(start)

	zap.L().Info("pipeline: run complete",
		zap.Int("files", len(workbooks)),
		zap.Int("facilities", len(result.Facilities)),
		zap.Float64("confidence", result.Confidence),
		zap.Duration("elapsed", result.Elapsed),
	)
	return result, nil
}

// classifiedWorkbook pairs a workbook with its classification for the
// priority-sorted work list.
type classifiedWorkbook struct {
	workbook       *model.Workbook
	classification model.FileClassification
}

func classifyAndOrder(workbooks []model.Workbook, result *model.ExtractedDataSet) []classifiedWorkbook {
	ordered := make([]classifiedWorkbook, 0, len(workbooks))
	for i := range workbooks {
		cls := classifier.Classify(&workbooks[i])
		result.Classifications = append(result.Classifications, cls)
		ordered = append(ordered, classifiedWorkbook{
			workbook:       &workbooks[i],
			classification: cls,
		})
	}

	// Stable sort keeps input order within a priority tier, so identical
	// batches parse identically regardless of shuffle.
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].classification.ExtractionPriority < ordered[j].classification.ExtractionPriority
	})
	return ordered
}

// parseResult collects the merged output of the parallel parse stage.
type parseResult struct {
	sections     []model.FacilitySection
	assetEntries []model.AssetValuationEntry
	warnings     []string
}

// parseFiles runs the per-file parsers concurrently and merges results in
// the work list's priority order for determinism.
func parseFiles(ctx context.Context, ordered []classifiedWorkbook, mapping *model.GLMapping, maxParallel int) parseResult {
	type fileOutput struct {
		sections     []model.FacilitySection
		assetEntries []model.AssetValuationEntry
		warnings     []string
	}
	outputs := make([]fileOutput, len(ordered))

	if maxParallel <= 0 {
		maxParallel = 4
	}
	if n := len(ordered); n > 0 && n < maxParallel {
		maxParallel = n
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(maxParallel)

	var mu sync.Mutex
	for i, wb := range ordered {
		i, wb := i, wb
		g.Go(func() error {
			var out fileOutput
			switch wb.classification.FileType {
			case model.FileTypeOpcoReview, model.FileTypePortfolioModel:
				out.sections, out.warnings = t13.Parse(wb.workbook, mapping)
			case model.FileTypeAssetValuation:
				out.assetEntries, out.warnings = assetval.Parse(wb.workbook)
			default:
				out.warnings = []string{"pipeline: file " + wb.workbook.Filename + " is unclassified, skipped"}
			}
			mu.Lock()
			outputs[i] = out
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var merged parseResult
	for _, out := range outputs {
		merged.sections = append(merged.sections, out.sections...)
		merged.assetEntries = append(merged.assetEntries, out.assetEntries...)
		merged.warnings = append(merged.warnings, out.warnings...)
	}

	// Cross-file dedup: the same facility may appear in an opco review and
	// a portfolio model; first (higher-priority) occurrence wins.
	merged.sections = dedupeAcrossFiles(merged.sections)
	return merged
}

func dedupeAcrossFiles(sections []model.FacilitySection) []model.FacilitySection {
	seen := make(map[string]bool, len(sections))
	out := sections[:0]
	for _, s := range sections {
		key := model.NormalizeFacilityName(s.FacilityName)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
