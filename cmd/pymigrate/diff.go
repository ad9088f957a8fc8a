package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff [hash]",
	Short: "Print the unified diff for one proposed patch, or every patch in the current session",
	Run:   runDiff,
}

func init() {
	rootCmd.AddCommand(diffCmd)
}

func runDiff(cmd *cobra.Command, args []string) {
	store := mustOpenStore()
	session, err := store.LoadSession()
	if err != nil {
		fail("no session found; run `pymigrate analyse` first: %v", err)
	}

	wanted := map[string]bool{}
	if len(args) > 0 {
		for _, h := range args {
			wanted[h] = true
		}
	}

	for _, p := range session.Patches {
		if len(wanted) > 0 && !wanted[p.Hash] {
			continue
		}
		data, err := store.LoadPatchDiff(p.Hash)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", p.Path, err)
			continue
		}
		os.Stdout.Write(data)
	}
}
