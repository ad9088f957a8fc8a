package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pymigrate/internal/patchstore"
)

var applyAllFlag bool

var applyCmd = &cobra.Command{
	Use:   "apply [hash...]",
	Short: "Write Ready patches from the current session to disk",
	Run:   runApply,
}

func init() {
	applyCmd.Flags().BoolVar(&applyAllFlag, "all", false, "apply every Ready patch in the session, ignoring the hash arguments")
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	store := mustOpenStore()

	session, err := store.LoadSession()
	if err != nil {
		fail("no session found; run `pymigrate analyse` first: %v", err)
	}

	wanted := map[string]bool{}
	for _, h := range args {
		wanted[h] = true
	}

	applied, skipped, failed := 0, 0, 0
	for i, summary := range session.Patches {
		if summary.State != patchstore.StateReady {
			skipped++
			continue
		}
		if !applyAllFlag && len(wanted) > 0 && !wanted[summary.Hash] {
			continue
		}

		current, err := os.ReadFile(filepath.Join(session.ProjectRoot, summary.Path))
		if err != nil {
			fmt.Printf("%s: failed to read current file: %v\n", summary.Path, err)
			failed++
			continue
		}
		diff, err := store.LoadPatchDiff(summary.Hash)
		if err != nil {
			fmt.Printf("%s: failed to load diff: %v\n", summary.Path, err)
			failed++
			continue
		}
		newSource, err := patchstore.ApplyUnifiedDiff(current, diff)
		if err != nil {
			fmt.Printf("%s: failed to reconstruct patched file: %v\n", summary.Path, err)
			failed++
			continue
		}
		p := &patchstore.Patch{Path: summary.Path, Hash: summary.Hash, OldSource: current, NewSource: newSource, State: patchstore.StateReady}
		if err := store.ApplyToDisk(p, cfg.PatchStore.Backup); err != nil {
			fmt.Printf("%s: apply failed: %v\n", summary.Path, err)
			failed++
			continue
		}
		session.Patches[i].State = patchstore.StateApplied
		applied++
		fmt.Printf("%s: applied\n", summary.Path)
	}

	if err := store.SaveSession(session); err != nil {
		fmt.Printf("warning: failed to update session: %v\n", err)
	}
	fmt.Printf("\n%d applied, %d skipped, %d failed\n", applied, skipped, failed)
}
