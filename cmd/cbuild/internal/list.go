package internal

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var listVerbose bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List workspace projects",
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listVerbose, "long", "l", false, "show variants and dependencies")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	orch, _, err := newOrchestrator()
	if err != nil {
		return err
	}
	for _, info := range orch.List() {
		if !listVerbose {
			fmt.Printf("%s (%s)\n", info.Name, info.Kind)
			continue
		}
		fmt.Printf("%s (%s)", info.Name, info.Kind)
		if info.Version != "" {
			fmt.Printf(" v%s", info.Version)
		}
		fmt.Println()
		if info.Description != "" {
			fmt.Printf("  %s\n", info.Description)
		}
		if len(info.Dependencies) > 0 {
			fmt.Printf("  depends on: %s\n", strings.Join(info.Dependencies, ", "))
		}
		if len(info.Variants) > 0 {
			fmt.Printf("  variants: %s\n", strings.Join(info.Variants, ", "))
		}
	}
	return nil
}
