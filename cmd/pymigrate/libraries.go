package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"pymigrate/internal/adapters"
	"pymigrate/internal/transform"
)

var librariesCmd = &cobra.Command{
	Use:   "libraries",
	Short: "List libraries pymigrate can migrate, and which are declared by this project",
	Run:   runLibraries,
}

func init() {
	rootCmd.AddCommand(librariesCmd)
}

func runLibraries(cmd *cobra.Command, args []string) {
	registry := transform.Registry()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)

	deps, _ := adapters.NewDependencyLister().List(projectRootFlag)
	declared := map[string]string{}
	for _, d := range deps {
		declared[d.Name] = d.Constraint
	}

	for _, name := range names {
		if constraint, ok := declared[name]; ok {
			fmt.Printf("%-15s tier1  declared %s\n", name, constraint)
		} else {
			fmt.Printf("%-15s tier1\n", name)
		}
	}
	for name, constraint := range declared {
		if _, ok := registry[name]; !ok {
			fmt.Printf("%-15s tier2/3 declared %s\n", name, constraint)
		}
	}
}
