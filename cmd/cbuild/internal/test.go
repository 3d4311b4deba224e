package internal

import (
	"github.com/spf13/cobra"
)

var testFilter string

var testCmd = &cobra.Command{
	Use:   "test [projects...]",
	Short: "Build projects and run their test suites",
	RunE:  runTest,
}

func init() {
	testCmd.Flags().StringVarP(&testFilter, "filter", "R", "", "regular expression selecting tests to run")
	rootCmd.AddCommand(testCmd)
}

func runTest(cmd *cobra.Command, args []string) error {
	orch, opts, err := newOrchestrator()
	if err != nil {
		return err
	}
	var testArgs []string
	if testFilter != "" {
		testArgs = append(testArgs, "-R", testFilter)
	}
	return orch.Test(cmd.Context(), opts, testArgs, selectedProjects(args)...)
}
