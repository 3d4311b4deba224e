package internal

import (
	"github.com/spf13/cobra"
)

var installPrefix string

var installCmd = &cobra.Command{
	Use:   "install [projects...]",
	Short: "Build and install projects",
	RunE:  runInstall,
}

func init() {
	installCmd.Flags().StringVar(&installPrefix, "prefix", "", "installation prefix")
	rootCmd.AddCommand(installCmd)
}

func runInstall(cmd *cobra.Command, args []string) error {
	orch, opts, err := newOrchestrator()
	if err != nil {
		return err
	}
	return orch.Install(cmd.Context(), opts, installPrefix, selectedProjects(args)...)
}
