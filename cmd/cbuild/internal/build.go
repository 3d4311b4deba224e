package internal

import (
	"github.com/spf13/cobra"
)

var buildForce bool

var buildCmd = &cobra.Command{
	Use:   "build [projects...]",
	Short: "Build projects in dependency order",
	Long:  `Build compiles the named projects and their workspace dependencies; with no arguments the whole workspace is built.`,
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&buildForce, "force", false, "reconfigure even when a build cache exists")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	orch, opts, err := newOrchestrator()
	if err != nil {
		return err
	}
	opts.Force = buildForce
	return orch.Build(cmd.Context(), opts, selectedProjects(args)...)
}
