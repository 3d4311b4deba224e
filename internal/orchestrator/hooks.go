package orchestrator

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/cbuild-io/cbuild/internal/errs"
	"github.com/cbuild-io/cbuild/internal/expand"
)

type hookPhase struct {
	commands []string
	name     string
}

// runHooks executes one hook phase through the system shell. Hooks
// see PROJECT_PATH, BUILD_PATH, CONFIG_TYPE and VARIANT in their
// environment and run from the project root. The first failing
// command aborts the phase.
func (c *Context) runHooks(ctx context.Context, eff *expand.Effective, phase hookPhase, opts Options) error {
	for _, command := range phase.commands {
		c.Renderer.Substep(phase.name + ": " + command)
		cmd := shellCommand(ctx, command)
		cmd.Dir = eff.Dir
		cmd.Stdout = c.Renderer.ChildOut()
		cmd.Stderr = c.Renderer.ChildErr()
		cmd.Env = append(os.Environ(),
			"PROJECT_PATH="+eff.Dir,
			"BUILD_PATH="+eff.BuildPath(),
			"CONFIG_TYPE="+eff.Config,
			"VARIANT="+opts.Variant,
		)
		for k, v := range eff.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
		if err := cmd.Run(); err != nil {
			if ctx.Err() != nil {
				return errs.Cancelled
			}
			return fmt.Errorf("%s hook %q: %w", phase.name, command, err)
		}
	}
	return nil
}

func shellCommand(ctx context.Context, command string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", command)
	}
	return exec.CommandContext(ctx, "sh", "-c", command)
}
