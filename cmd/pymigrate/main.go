// Command pymigrate scans a Python project, proposes CST-level rewrites
// for breaking library upgrades, and applies the ones that pass
// validation, per spec.md's tiered migration engine.
package main

import (
	"os"

	"pymigrate/internal/logging"
)

func main() {
	logger := logging.New(logging.Config{Format: logging.HumanFormat, Level: logging.InfoLevel})

	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}
