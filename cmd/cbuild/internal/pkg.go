package internal

import (
	"github.com/spf13/cobra"
)

var packageFormat string

var packageCmd = &cobra.Command{
	Use:   "package [projects...]",
	Short: "Build projects and produce distributable packages",
	RunE:  runPackage,
}

func init() {
	packageCmd.Flags().StringVar(&packageFormat, "type", "", "package format (ZIP, TGZ, DEB, ...)")
	rootCmd.AddCommand(packageCmd)
}

func runPackage(cmd *cobra.Command, args []string) error {
	orch, opts, err := newOrchestrator()
	if err != nil {
		return err
	}
	return orch.Package(cmd.Context(), opts, packageFormat, selectedProjects(args)...)
}
