package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Enumerate and parse the project's Python source files",
	Run:   runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newLogger(formatFlag)
	ctx := newContext()

	files, diags, err := scanProject(ctx, cfg, logger)
	if err != nil {
		fail("scan failed: %v", err)
	}

	fmt.Printf("%d Python files parsed\n", len(files))
	if len(diags) > 0 {
		fmt.Printf("%d diagnostics:\n", len(diags))
		for _, d := range diags {
			fmt.Println(" ", d.String())
		}
	}
}
