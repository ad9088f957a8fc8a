package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pymigrate/internal/engine"
	"pymigrate/internal/patchstore"
	"pymigrate/internal/risk"
)

var analyseCmd = &cobra.Command{
	Use:   "analyse [libraries...]",
	Short: "Scan the project and propose patches for the given libraries (or every declared, migratable one)",
	Run:   runAnalyse,
}

func init() {
	rootCmd.AddCommand(analyseCmd)
}

func runAnalyse(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	logger := newLogger(formatFlag)
	ctx := newContext()

	libraries := requestedLibraries(args)
	if len(libraries) == 0 {
		fail("no migratable libraries declared or given; pass one or more library names")
	}

	files, diags, err := scanProject(ctx, cfg, logger)
	if err != nil {
		fail("scan failed: %v", err)
	}
	for _, d := range diags {
		logger.Warn("scan diagnostic", map[string]interface{}{"detail": d.String()})
	}

	eng, store, err := buildEngine(cfg, logger)
	if err != nil {
		fail("failed to initialize engine: %v", err)
	}

	versions := resolveVersions(ctx, libraries)
	session, err := eng.Analyse(ctx, files, libraries, versions)
	if err != nil {
		fail("analysis failed: %v", err)
	}
	session.ProjectRoot = projectRootFlag

	patches := session.Patches()
	summary := risk.Compute(patches, session.TieredByPath(), cfg.Risk, risk.DefaultWeights())

	if err := persistSession(store, session); err != nil {
		logger.Warn("failed to persist session", map[string]interface{}{"error": err.Error()})
	}

	reportAnalysis(session, summary, cfg.PatchStore.Backup)
}

// persistSession writes every proposed patch's diff to
// .pymigrate/patches/<hash>.patch and records the session summary, so a
// later `pymigrate diff`/`apply`/`status` invocation can resume against
// this run's results without re-analysing.
func persistSession(store *patchstore.Store, session *engine.Session) error {
	summary := &patchstore.SessionSummary{
		ID:          session.ID,
		ProjectRoot: session.ProjectRoot,
		TierPolicy:  string(session.TierPolicy),
	}
	for _, p := range session.Patches() {
		if err := store.SavePatch(p); err != nil {
			return err
		}
		summary.Patches = append(summary.Patches, patchstore.Summarize(p))
	}
	return store.SaveSession(summary)
}

// reportAnalysis prints a human-readable summary of the session: per-file
// patch state and the overall risk score.
func reportAnalysis(session *engine.Session, summary *risk.Summary, backup bool) {
	for _, r := range session.Results {
		if r.Err != nil {
			fmt.Printf("%s: error: %v\n", r.Path, r.Err)
			continue
		}
		if r.Patch == nil {
			continue
		}
		fmt.Printf("%s: %s (%d changes)\n", r.Path, r.Patch.State, len(r.Patch.Changes))
	}
	fmt.Printf("\n%d files changed, %d changes, risk %s (score %.1f)\n",
		summary.FileCount, summary.ChangeCount, summary.Level, summary.Score)
	if len(summary.CriticalPathHits) > 0 {
		fmt.Printf("critical-path files touched: %v\n", summary.CriticalPathHits)
	}
	if backup {
		fmt.Println("backups will be written alongside applied files (.bak)")
	}
}
