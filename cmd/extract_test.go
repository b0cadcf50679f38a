package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/valuation-cli/internal/config"
	"github.com/sells-group/valuation-cli/internal/model"
)

func TestWriteResult_ToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	extractOutput = path
	t.Cleanup(func() { extractOutput = "" })

	result := &model.ExtractedDataSet{
		Confidence: 0.87,
		Source:     "pipeline",
		Warnings:   []string{"missing GL mapping"},
	}
	require.NoError(t, writeResult(result))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded model.ExtractedDataSet
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 0.87, decoded.Confidence)
	assert.Equal(t, "pipeline", decoded.Source)
	assert.Equal(t, []string{"missing GL mapping"}, decoded.Warnings)
}

func TestSupplementWithVision_NoWorkbooks(t *testing.T) {
	cfg = &config.Config{Vision: config.VisionConfig{Key: "test-key"}}
	t.Cleanup(func() { cfg = nil })

	result := &model.ExtractedDataSet{Source: "pipeline", Confidence: 0.2}
	supplementWithVision(context.Background(), result, nil)

	assert.Equal(t, "pipeline", result.Source)
	assert.Empty(t, result.Facilities)
	assert.Empty(t, result.Warnings)
}
