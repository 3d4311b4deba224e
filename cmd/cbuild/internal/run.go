package internal

import (
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run [project] [-- args...]",
	Short: "Build and run an executable project",
	Long:  `Run builds a project and executes its binary. With no project the workspace startup project runs. Arguments after -- are passed to the binary.`,
	RunE:  runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	orch, opts, err := newOrchestrator()
	if err != nil {
		return err
	}
	name := ""
	var binArgs []string
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		if dash > 0 {
			name = args[0]
		}
		binArgs = args[dash:]
	} else if len(args) > 0 {
		name = args[0]
		binArgs = args[1:]
	}
	if name == "" {
		name = flagProject
	}
	return orch.Run(cmd.Context(), opts, name, binArgs)
}
