package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Benchmark BenchmarkConfig `yaml:"benchmark" mapstructure:"benchmark"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Vision    VisionConfig    `yaml:"vision" mapstructure:"vision"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // "postgres" or "sqlite"
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SQLitePath  string `yaml:"sqlite_path" mapstructure:"sqlite_path"`
}

// PipelineConfig configures extraction behavior.
type PipelineConfig struct {
	MaxParallelFiles int     `yaml:"max_parallel_files" mapstructure:"max_parallel_files"`
	VisionThreshold  float64 `yaml:"vision_threshold" mapstructure:"vision_threshold"`
}

// BenchmarkConfig configures the benchmark engine.
type BenchmarkConfig struct {
	MarketTier    string `yaml:"market_tier" mapstructure:"market_tier"`
	KnowledgePath string `yaml:"knowledge_path" mapstructure:"knowledge_path"`
}

// FetchConfig configures remote workbook sources.
type FetchConfig struct {
	FTPTimeoutSecs int `yaml:"ftp_timeout_secs" mapstructure:"ftp_timeout_secs"`
}

// VisionConfig holds the AI-vision fallback settings.
type VisionConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port          int     `yaml:"port" mapstructure:"port"`
	UploadsPerSec float64 `yaml:"uploads_per_sec" mapstructure:"uploads_per_sec"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("VALUATION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.sqlite_path", "valuation.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.uploads_per_sec", 2.0)
	v.SetDefault("pipeline.max_parallel_files", 4)
	v.SetDefault("pipeline.vision_threshold", 0.3)
	v.SetDefault("benchmark.market_tier", "secondary")
	v.SetDefault("fetch.ftp_timeout_secs", 30)
	v.SetDefault("vision.model", "claude-haiku-4-5-20251001")
	v.SetDefault("vision.max_tokens", 4096)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
