package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "valuation.db", cfg.Store.SQLitePath)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 2.0, cfg.Server.UploadsPerSec)
	assert.Equal(t, 4, cfg.Pipeline.MaxParallelFiles)
	assert.Equal(t, 0.3, cfg.Pipeline.VisionThreshold)
	assert.Equal(t, "secondary", cfg.Benchmark.MarketTier)
	assert.Equal(t, 30, cfg.Fetch.FTPTimeoutSecs)
	assert.Equal(t, 4096, cfg.Vision.MaxTokens)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("VALUATION_STORE_DRIVER", "postgres")
	t.Setenv("VALUATION_LOG_LEVEL", "debug")
	t.Setenv("VALUATION_SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "shouting", Format: "json"})
	require.Error(t, err)
}
