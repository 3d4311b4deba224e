package internal

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cbuild-io/cbuild/internal/config"
	"github.com/cbuild-io/cbuild/internal/errs"
)

var startupCmd = &cobra.Command{
	Use:   "startup [list|show|set <project>]",
	Short: "Show or set the workspace startup project",
	Long:  `Startup manages the default project for 'cbuild run': 'list' marks the current one among the workspace projects, 'show' prints it, 'set <project>' persists a new one. A bare project name is shorthand for set.`,
	Args:  cobra.MaximumNArgs(2),
	RunE:  runStartup,
}

func init() {
	rootCmd.AddCommand(startupCmd)
}

func runStartup(cmd *cobra.Command, args []string) error {
	orch, _, err := newOrchestrator()
	if err != nil {
		return err
	}
	ws := orch.Workspace

	verb := "list"
	if len(args) > 0 {
		verb = args[0]
	}
	switch verb {
	case "list":
		current := ws.Startup()
		for _, p := range ws.Projects {
			mark := " "
			if p == current {
				mark = "*"
			}
			fmt.Printf("%s %s\n", mark, p)
		}
		return nil
	case "show":
		if current := ws.Startup(); current != "" {
			fmt.Println(current)
		}
		return nil
	case "set":
		if len(args) < 2 {
			return &errs.ConfigError{Reason: "startup set needs a project name"}
		}
		return setStartup(orch.Workspace, orch.Root, args[1])
	default:
		return setStartup(orch.Workspace, orch.Root, verb)
	}
}

func setStartup(ws *config.Workspace, root, name string) error {
	if !ws.HasProject(name) {
		return &errs.ConfigError{Reason: fmt.Sprintf("project %q is not in the workspace", name)}
	}
	ws.DefaultStartup = name
	if !contains(ws.StartupProjects, name) {
		ws.StartupProjects = append(ws.StartupProjects, name)
	}
	if err := config.SaveWorkspace(ws, root); err != nil {
		return err
	}
	fmt.Printf("startup project set to %s\n", name)
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
