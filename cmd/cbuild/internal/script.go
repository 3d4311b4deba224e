package internal

import (
	"github.com/spf13/cobra"
)

var scriptCmd = &cobra.Command{
	Use:   "script <name>",
	Short: "Run a named workspace or project script",
	Long:  `Script runs a named script. With --project the project's scripts are consulted first; project entries shadow workspace entries of the same name.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runScript,
}

func init() {
	rootCmd.AddCommand(scriptCmd)
}

func runScript(cmd *cobra.Command, args []string) error {
	orch, opts, err := newOrchestrator()
	if err != nil {
		return err
	}
	return orch.RunScript(cmd.Context(), opts, flagProject, args[0])
}
