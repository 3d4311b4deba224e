package internal

import (
	"github.com/spf13/cobra"
)

var depsCmd = &cobra.Command{
	Use:     "install-deps [projects...]",
	Aliases: []string{"deps"},
	Short:   "Fetch and install external dependencies without building",
	RunE:    runDeps,
}

func init() {
	rootCmd.AddCommand(depsCmd)
}

func runDeps(cmd *cobra.Command, args []string) error {
	orch, opts, err := newOrchestrator()
	if err != nil {
		return err
	}
	return orch.InstallDeps(cmd.Context(), opts, selectedProjects(args)...)
}
