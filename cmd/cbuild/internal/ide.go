package internal

import (
	"github.com/spf13/cobra"
)

var ideCmd = &cobra.Command{
	Use:   "ide <vs2022|vs2019|vs2017|xcode|codeblocks|clion> [projects...]",
	Short: "Generate IDE project files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIDE,
}

func init() {
	rootCmd.AddCommand(ideCmd)
}

func runIDE(cmd *cobra.Command, args []string) error {
	orch, opts, err := newOrchestrator()
	if err != nil {
		return err
	}
	return orch.GenerateIDE(cmd.Context(), opts, args[0], selectedProjects(args[1:])...)
}
