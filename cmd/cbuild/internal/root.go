package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cbuild-io/cbuild/internal/config"
	"github.com/cbuild-io/cbuild/internal/console"
	"github.com/cbuild-io/cbuild/internal/ctxlog"
	"github.com/cbuild-io/cbuild/internal/errs"
	"github.com/cbuild-io/cbuild/internal/orchestrator"
)

var (
	flagConfig      string
	flagVariant     string
	flagProject     string
	flagTarget      string
	flagCrossTarget string
	flagJobs        int
	flagVerbosity   string
)

var rootCmd = &cobra.Command{
	Use:           "cbuild",
	Short:         "cbuild is a front end for C/C++ workspace builds",
	Long:          `cbuild orchestrates multi-project C/C++ workspaces: it resolves dependencies, emits CMake inputs and drives the builds in dependency order.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logLevel := slog.LevelWarn
		if flagVerbosity == "verbose" {
			logLevel = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
		cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagConfig, "config", "c", "", "build configuration (Debug, Release, ...)")
	pf.StringVar(&flagVariant, "variant", "", "build variant to apply")
	pf.StringVarP(&flagProject, "project", "p", "", "operate on a single named project")
	pf.StringVar(&flagTarget, "target", "", "single generator target to build")
	pf.StringVar(&flagCrossTarget, "cross-target", "", "cross-compile target profile")
	pf.IntVarP(&flagJobs, "jobs", "j", 0, "build parallelism passed to the generator")
	pf.StringVar(&flagVerbosity, "verbosity", "normal", "output level: quiet, normal or verbose")
}

// Execute runs the CLI and exits with the code mapped from the error
// taxonomy. Called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		var child *errs.ChildProcessError
		if errors.As(err, &child) && child.Detail() != "" {
			fmt.Fprintln(os.Stderr, child.Detail())
		}
		stop()
		os.Exit(errs.ExitCode(err))
	}
}

// newRenderer builds the renderer from the verbosity flag.
func newRenderer() (console.Renderer, error) {
	level, err := console.ParseVerbosity(flagVerbosity)
	if err != nil {
		return nil, &errs.ConfigError{Reason: err.Error()}
	}
	return console.NewText(os.Stdout, level), nil
}

// newOrchestrator locates the workspace and assembles the
// orchestration context plus the options derived from global flags.
// A lone project directory is treated as a one-project workspace.
func newOrchestrator() (*orchestrator.Context, orchestrator.Options, error) {
	opts := orchestrator.Options{
		Config:      flagConfig,
		Variant:     flagVariant,
		Target:      flagTarget,
		CrossTarget: flagCrossTarget,
		Jobs:        flagJobs,
	}
	r, err := newRenderer()
	if err != nil {
		return nil, opts, err
	}

	root, err := findRoot()
	if err != nil {
		return nil, opts, err
	}
	var ws *config.Workspace
	if config.IsWorkspace(root) {
		ws, err = config.LoadWorkspace(root)
		if err != nil {
			return nil, opts, err
		}
	} else {
		p, err := config.LoadProject(root)
		if err != nil {
			return nil, opts, err
		}
		ws = &config.Workspace{
			Name:     p.Project.Name,
			Projects: []string{p.Project.Name},
		}
	}
	return orchestrator.New(root, ws, r), opts, nil
}

// selectedProjects resolves the projects a verb operates on: positional
// arguments win, then the global --project flag, then everything.
func selectedProjects(args []string) []string {
	if len(args) == 0 && flagProject != "" {
		return []string{flagProject}
	}
	return args
}

// findRoot walks up from the working directory to the nearest
// workspace file, falling back to the nearest project file.
func findRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for dir := cwd; ; {
		if config.IsWorkspace(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	if _, err := os.Stat(filepath.Join(cwd, config.ProjectFile)); err == nil {
		return cwd, nil
	}
	return "", &errs.ConfigError{
		Reason: fmt.Sprintf("no %s or %s found here; run 'cbuild init' first",
			config.WorkspaceFile, config.ProjectFile),
	}
}
