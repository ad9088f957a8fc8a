// Package config loads the engine's runtime configuration (schema v1) from
// a project's .pymigrate.toml using viper, with defaults for every field so
// an absent file is a valid configuration.
package config

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"

	"pymigrate/internal/logging"
)

// SchemaVersion is the current configuration schema version.
const SchemaVersion = 1

// Config is the complete runtime configuration for a migration session.
type Config struct {
	Version int `mapstructure:"version"`

	Scanner    ScannerConfig    `mapstructure:"scanner"`
	Engine     EngineConfig     `mapstructure:"engine"`
	Knowledge  KnowledgeConfig  `mapstructure:"knowledge"`
	Risk       RiskConfig       `mapstructure:"risk"`
	PatchStore PatchStoreConfig `mapstructure:"patchStore"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ScannerConfig controls project-tree enumeration.
type ScannerConfig struct {
	Exclude          []string `mapstructure:"exclude"`
	MaxFileSizeBytes int64    `mapstructure:"maxFileSizeBytes"`
	FollowSymlinks   bool     `mapstructure:"followSymlinks"`
}

// EngineConfig controls orchestration and concurrency.
type EngineConfig struct {
	TierPolicy      string `mapstructure:"tierPolicy"`     // tier1-only | up-to-tier2 | all
	ConfidenceFloor string `mapstructure:"confidenceFloor"` // high | medium | low
	WorkerCount     int    `mapstructure:"workerCount"`
	OracleTimeoutMs int    `mapstructure:"oracleTimeoutMs"`
	MaxRetries      int    `mapstructure:"maxRetries"`
}

// KnowledgeConfig controls the acquisition pipeline and its cache.
type KnowledgeConfig struct {
	CacheTTLDays      int  `mapstructure:"cacheTtlDays"`
	NegativeCacheOnly bool `mapstructure:"negativeCacheOnly"`
	CompressDocuments bool `mapstructure:"compressDocuments"`
}

// RiskConfig controls the weighted risk score.
type RiskConfig struct {
	CriticalPathGlobs []string `mapstructure:"criticalPathGlobs"`
}

// PatchStoreConfig controls persistence and backups.
type PatchStoreConfig struct {
	DirName string `mapstructure:"dirName"`
	Backup  bool   `mapstructure:"backup"`
}

// LoggingConfig controls the shared logger.
type LoggingConfig struct {
	Format string `mapstructure:"format"` // json | human
	Level  string `mapstructure:"level"`  // debug | info | warn | error
}

// Default returns the baseline configuration used when no config file is
// present, or as the basis that a loaded file's values are merged onto.
func Default() *Config {
	return &Config{
		Version: SchemaVersion,
		Scanner: ScannerConfig{
			Exclude: []string{
				".venv/**", "venv/**", "__pycache__/**", ".pymigrate/**",
				"*.egg-info/**", "build/**", "dist/**",
			},
			MaxFileSizeBytes: 2 << 20, // 2 MiB
			FollowSymlinks:   false,
		},
		Engine: EngineConfig{
			TierPolicy:      "all",
			ConfidenceFloor: "medium",
			WorkerCount:     runtime.NumCPU(),
			OracleTimeoutMs: 60_000,
			MaxRetries:      3,
		},
		Knowledge: KnowledgeConfig{
			CacheTTLDays:      180,
			NegativeCacheOnly: false,
			CompressDocuments: true,
		},
		Risk: RiskConfig{
			CriticalPathGlobs: []string{"*auth*", "*security*", "*config*", "*migrations*"},
		},
		PatchStore: PatchStoreConfig{
			DirName: ".pymigrate",
			Backup:  false,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// Load reads configuration from projectRoot, overlaying any values found in
// .pymigrate.toml onto Default(). A missing file is not an error.
func Load(projectRoot string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigName(".pymigrate")
	v.AddConfigPath(projectRoot)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config at %s: %w", filepath.Join(projectRoot, ".pymigrate.toml"), err)
		}
		return cfg, nil
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Version != SchemaVersion {
		return nil, fmt.Errorf("unsupported config schema version %d (expected %d)", cfg.Version, SchemaVersion)
	}
	return cfg, nil
}

// NewLogger builds the shared Logger from LoggingConfig.
func (c *Config) NewLogger() *logging.Logger {
	format := logging.Format(c.Logging.Format)
	level := logging.Level(c.Logging.Level)
	return logging.New(logging.Config{Format: format, Level: level})
}
