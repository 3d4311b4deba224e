package internal

import (
	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [projects...]",
	Short: "Remove build trees",
	Long:  `Clean deletes the build directories of the named projects, or of every workspace project.`,
	RunE:  runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	orch, opts, err := newOrchestrator()
	if err != nil {
		return err
	}
	return orch.Clean(cmd.Context(), opts, selectedProjects(args)...)
}
