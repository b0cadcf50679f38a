package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/valuation-cli/internal/fetcher"
	"github.com/sells-group/valuation-cli/internal/model"
	"github.com/sells-group/valuation-cli/internal/pipeline"
	"github.com/sells-group/valuation-cli/pkg/vision"
)

var (
	extractOutput     string
	extractMarketTier string
	extractRecord     bool
	extractNoVision   bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <file-or-ftp-url>...",
	Short: "Extract and value facility financials from workbooks",
	Long:  "Classifies each workbook, builds the GL mapping, parses facility P&L sections and asset valuations, then runs the valuation and benchmark engines over the combined portfolio.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		workbooks := make([]model.Workbook, 0, len(args))
		filenames := make([]string, 0, len(args))
		for _, src := range args {
			wb, err := fetcher.Resolve(ctx, src, fetcher.FTPOptions{})
			if err != nil {
				return eris.Wrapf(err, "extract: load %s", src)
			}
			workbooks = append(workbooks, *wb)
			filenames = append(filenames, wb.Filename)
		}

		var runID string
		if extractRecord {
			st, err := initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			if err := st.Migrate(ctx); err != nil {
				return err
			}

			run, err := st.CreateRun(ctx, filenames)
			if err != nil {
				return err
			}
			runID = run.ID
			_ = st.UpdateRunStatus(ctx, runID, model.RunStatusExtracting)

			result, err := runExtraction(cmd, workbooks)
			if err != nil {
				_ = st.FailRun(ctx, runID, err.Error())
				return err
			}
			if err := st.UpdateRunResult(ctx, runID, result); err != nil {
				zap.L().Warn("extract: record result", zap.Error(err))
			}
			return writeResult(result)
		}

		result, err := runExtraction(cmd, workbooks)
		if err != nil {
			return err
		}
		return writeResult(result)
	},
}

func runExtraction(cmd *cobra.Command, workbooks []model.Workbook) (*model.ExtractedDataSet, error) {
	ctx := cmd.Context()

	tier := cfg.Benchmark.MarketTier
	if extractMarketTier != "" {
		tier = extractMarketTier
	}

	result, err := pipeline.Run(ctx, workbooks, pipeline.Options{
		MarketTier:    model.MarketTier(tier),
		KnowledgePath: cfg.Benchmark.KnowledgePath,
		MaxParallel:   cfg.Pipeline.MaxParallelFiles,
	})
	if err != nil {
		return nil, err
	}

	// Low-confidence extractions fall back to the vision model when a key
	// is configured. Recovered facilities only fill gaps.
	if !extractNoVision && result.Confidence < cfg.Pipeline.VisionThreshold && cfg.Vision.Key != "" {
		supplementWithVision(ctx, result, workbooks)
	}

	return result, nil
}

func supplementWithVision(ctx context.Context, result *model.ExtractedDataSet, workbooks []model.Workbook) {
	extractor := vision.NewExtractor(vision.NewClient(cfg.Vision.Key), cfg.Vision.Model, int64(cfg.Vision.MaxTokens))

	known := make(map[string]bool, len(result.Facilities))
	for _, f := range result.Facilities {
		known[model.NormalizeFacilityName(f.FacilityName)] = true
	}

	for i := range workbooks {
		sections, warnings, err := extractor.ExtractFacilities(ctx, &workbooks[i])
		if err != nil {
			zap.L().Warn("extract: vision fallback failed",
				zap.String("file", workbooks[i].Filename), zap.Error(err))
			continue
		}
		result.Warnings = append(result.Warnings, warnings...)

		added := 0
		for _, s := range sections {
			key := model.NormalizeFacilityName(s.FacilityName)
			if known[key] {
				continue
			}
			known[key] = true
			result.Facilities = append(result.Facilities, s)
			added++
		}
		if added > 0 {
			result.Source = "vision_fallback"
			zap.L().Info("extract: vision fallback recovered facilities",
				zap.String("file", workbooks[i].Filename), zap.Int("count", added))
		}
	}
}

func writeResult(result *model.ExtractedDataSet) error {
	out := os.Stdout
	if extractOutput != "" {
		f, err := os.Create(extractOutput)
		if err != nil {
			return eris.Wrap(err, "extract: create output file")
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return eris.Wrap(err, "extract: encode result")
	}

	if extractOutput != "" {
		fmt.Fprintf(os.Stderr, "Result written to %s\n", extractOutput)
	}
	return nil
}

func init() {
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "write JSON result to file instead of stdout")
	extractCmd.Flags().StringVar(&extractMarketTier, "market-tier", "", "market tier for benchmarks (primary, secondary, tertiary)")
	extractCmd.Flags().BoolVar(&extractRecord, "record", false, "record the run in the configured store")
	extractCmd.Flags().BoolVar(&extractNoVision, "no-vision", false, "disable the AI vision fallback")
	rootCmd.AddCommand(extractCmd)
}
