package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pymigrate/internal/patchstore"
	"pymigrate/internal/version"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Summarize the current session's patches without re-running analysis",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	store := mustOpenStore()

	fmt.Printf("pymigrate %s\nproject root: %s\n\n", version.Version, projectRootFlag)

	session, err := store.LoadSession()
	if err != nil {
		fmt.Println("no session found; run `pymigrate analyse` to propose patches")
		return
	}

	counts := map[patchstore.State]int{}
	for _, p := range session.Patches {
		counts[p.State]++
		fmt.Printf("%-8s %s (%d changes)", p.State, p.Path, p.ChangeCount)
		if p.State == patchstore.StateRejected && p.RejectedReason != "" {
			fmt.Printf(" — %s", p.RejectedReason)
		}
		fmt.Println()
	}

	fmt.Printf("\nsession %s, tier policy: %s\n", session.ID, session.TierPolicy)
	fmt.Printf("%d ready, %d applied, %d rejected, %d failed (of %d total)\n",
		counts[patchstore.StateReady], counts[patchstore.StateApplied],
		counts[patchstore.StateRejected], counts[patchstore.StateFailed],
		len(session.Patches))
}
