package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pymigrate/internal/config"
	"pymigrate/internal/logging"
	"pymigrate/internal/version"
)

var (
	projectRootFlag     string
	tierPolicyFlag      string
	confidenceFloorFlag string
	formatFlag          string
)

var rootCmd = &cobra.Command{
	Use:     "pymigrate",
	Short:   "pymigrate migrates Python projects across breaking library upgrades",
	Long:    "pymigrate scans a Python project's source tree, proposes lossless CST rewrites for known breaking library upgrades, and applies the rewrites that pass validation.",
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("pymigrate version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&projectRootFlag, "project-root", ".", "root of the Python project to migrate")
	rootCmd.PersistentFlags().StringVar(&tierPolicyFlag, "tier-policy", "", "tier1-only, up-to-tier2, or all (default: from config)")
	rootCmd.PersistentFlags().StringVar(&confidenceFloorFlag, "confidence-floor", "", "high, medium, or low (default: from config)")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", "human", "output format: human or json")
}

// newLogger builds the shared Logger for the requested output format.
func newLogger(format string) *logging.Logger {
	level := logging.InfoLevel
	logFormat := logging.HumanFormat
	if format == "json" {
		// A JSON-format run is almost always machine-consumed; keep log
		// noise off stdout entirely and don't duplicate it as human text.
		logFormat = logging.JSONFormat
	}
	return logging.New(logging.Config{Format: logFormat, Level: level, Output: os.Stderr})
}

// mustLoadConfig loads the project's configuration, applying CLI flag
// overrides for tier policy and confidence floor, or exits the process
// with a diagnostic on failure — matching cmd/ckb's fail-fast CLI error
// handling for unrecoverable startup errors.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(projectRootFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if tierPolicyFlag != "" {
		cfg.Engine.TierPolicy = tierPolicyFlag
	}
	if confidenceFloorFlag != "" {
		cfg.Engine.ConfidenceFloor = confidenceFloorFlag
	}
	return cfg
}

func newContext() context.Context {
	return context.Background()
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
