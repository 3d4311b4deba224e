package orchestrator

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"github.com/cbuild-io/cbuild/internal/config"
	"github.com/cbuild-io/cbuild/internal/cross"
	"github.com/cbuild-io/cbuild/internal/errs"
	"github.com/cbuild-io/cbuild/internal/expand"
	"github.com/cbuild-io/cbuild/internal/gen"
	"github.com/cbuild-io/cbuild/internal/resolve"
	"github.com/cbuild-io/cbuild/pkgs/buildsys"
)

// Clean removes the build trees of the named projects, or of every
// workspace project. Missing build trees are not an error.
func (c *Context) Clean(ctx context.Context, opts Options, projects ...string) error {
	if len(projects) == 0 {
		projects = c.Workspace.Projects
	}
	for _, name := range projects {
		eff, err := c.compose(name, opts)
		if err != nil {
			return err
		}
		if err := c.runHooks(ctx, eff, hookPhase{eff.HookSet().PreClean, "pre_clean"}, opts); err != nil {
			return err
		}
		c.Renderer.Step("clean", name)
		if err := os.RemoveAll(eff.BuildPath()); err != nil {
			return err
		}
		if err := c.runHooks(ctx, eff, hookPhase{eff.HookSet().PostClean, "post_clean"}, opts); err != nil {
			return err
		}
		c.Renderer.Success(name+" cleaned", eff.BuildPath())
	}
	return nil
}

// Test builds the named projects and runs their test suites through
// the generator's test runner.
func (c *Context) Test(ctx context.Context, opts Options, testArgs []string, projects ...string) error {
	if err := c.Build(ctx, opts, projects...); err != nil {
		return err
	}
	if len(projects) == 0 {
		projects = c.Workspace.Projects
	}
	for _, name := range projects {
		eff, err := c.compose(name, opts)
		if err != nil {
			return err
		}
		c.Renderer.Step("test", name)
		if err := c.driver(ctx, eff).Test(ctx, testArgs...); err != nil {
			return err
		}
		c.Renderer.Success(name+" tests passed", "")
	}
	return nil
}

// Install builds and installs the named projects under prefix, or the
// generator's default prefix when empty.
func (c *Context) Install(ctx context.Context, opts Options, prefix string, projects ...string) error {
	if err := c.Build(ctx, opts, projects...); err != nil {
		return err
	}
	if len(projects) == 0 {
		projects = c.Workspace.Projects
	}
	for _, name := range projects {
		eff, err := c.compose(name, opts)
		if err != nil {
			return err
		}
		if err := c.runHooks(ctx, eff, hookPhase{eff.HookSet().PreInstall, "pre_install"}, opts); err != nil {
			return err
		}
		c.Renderer.Step("install", name)
		d := c.NewDriver(buildsys.Params{
			SourceDir:  eff.Dir,
			BuildDir:   eff.BuildPath(),
			BuildType:  eff.Config,
			InstallDir: prefix,
		})
		d.Output(c.Renderer.ChildOut(), c.Renderer.ChildErr())
		if err := d.Install(ctx); err != nil {
			return err
		}
		if err := c.runHooks(ctx, eff, hookPhase{eff.HookSet().PostInstall, "post_install"}, opts); err != nil {
			return err
		}
		c.Renderer.Success(name+" installed", prefix)
	}
	return nil
}

// Run builds and executes a project binary. An empty name runs the
// workspace startup project. The child's exit code is surfaced
// unchanged through ChildProcessError.
func (c *Context) Run(ctx context.Context, opts Options, name string, args []string) error {
	if name == "" {
		name = c.Workspace.Startup()
	}
	if name == "" {
		return &errs.ConfigError{Reason: "workspace has no projects to run"}
	}
	if err := c.Build(ctx, opts, name); err != nil {
		return err
	}
	eff, err := c.compose(name, opts)
	if err != nil {
		return err
	}
	if eff.Kind != config.KindExecutable {
		return &errs.ConfigError{Reason: fmt.Sprintf("project %s is a %s, not an executable", name, eff.Kind)}
	}

	bin, err := findExecutable(eff)
	if err != nil {
		return err
	}
	if err := c.runHooks(ctx, eff, hookPhase{eff.HookSet().PreRun, "pre_run"}, opts); err != nil {
		return err
	}
	c.Renderer.Step("run", bin)

	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = eff.Dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	start := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return errs.Cancelled
		}
		if exit, ok := err.(*exec.ExitError); ok {
			return &errs.ChildProcessError{Cmd: bin, ExitCode: exit.ExitCode()}
		}
		return err
	}
	if err := c.runHooks(ctx, eff, hookPhase{eff.HookSet().PostRun, "post_run"}, opts); err != nil {
		return err
	}
	c.Renderer.Success(name, fmt.Sprintf("%.1fs", time.Since(start).Seconds()))
	return nil
}

// findExecutable locates a built project binary, checking the
// configured output directory first and the build tree's
// per-configuration layouts second.
func findExecutable(eff *expand.Effective) (string, error) {
	name := eff.Name
	exe := ""
	if eff.Host.OS == "windows" {
		exe = ".exe"
	}
	candidates := []string{
		filepath.Join(eff.BinPath(), name+exe),
		filepath.Join(eff.BuildPath(), name+exe),
		filepath.Join(eff.BuildPath(), eff.Config, name+exe),
		filepath.Join(eff.BuildPath(), "bin", name+exe),
	}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	return "", &errs.ResolveError{Name: name, Scope: "binary"}
}

// InstallDeps runs every project's dependency pre-steps without
// building: vendored installs and git fetches.
func (c *Context) InstallDeps(ctx context.Context, opts Options, projects ...string) error {
	if len(projects) == 0 {
		projects = c.Workspace.Projects
	}
	for _, name := range projects {
		eff, err := c.compose(name, opts)
		if err != nil {
			return err
		}
		deps := eff.Source.Dependencies
		if deps.Vendored == nil && len(deps.Git) == 0 {
			continue
		}
		c.Renderer.Step("deps", name)

		step, _, err := resolve.Vendored(deps.Vendored, eff.Dir)
		if err != nil {
			return err
		}
		var steps []resolve.PreStep
		if step != nil {
			steps = append(steps, *step)
		}
		gitSteps, _, err := resolve.GitSteps(ctx, deps.Git, filepath.Join(eff.Dir, "deps"), c.Runner)
		if err != nil {
			return err
		}
		steps = append(steps, gitSteps...)
		for _, s := range steps {
			spin := c.Renderer.Spin(s.Label)
			if err := s.Run(ctx, c.Runner); err != nil {
				spin.Fail(err.Error())
				return err
			}
			spin.Done()
		}
		c.Renderer.Success(name+" dependencies ready", "")
	}
	return nil
}

// Package builds the named projects and drives the generator's
// packager over each build tree.
func (c *Context) Package(ctx context.Context, opts Options, format string, projects ...string) error {
	if err := c.Build(ctx, opts, projects...); err != nil {
		return err
	}
	if !c.Probe.Has(ctx, "cpack") {
		return &errs.ToolMissing{Tool: "cpack", Hint: "ships with CMake"}
	}
	if len(projects) == 0 {
		projects = c.Workspace.Projects
	}
	for _, name := range projects {
		eff, err := c.compose(name, opts)
		if err != nil {
			return err
		}
		c.Renderer.Step("package", name)
		args := []string{"-C", eff.Config}
		if format != "" {
			args = append(args, "-G", format)
		}
		if out, err := c.Runner(ctx, eff.BuildPath(), "cpack", args...); err != nil {
			c.Renderer.Error("packaging "+name+" failed", string(out))
			return &errs.ChildProcessError{Cmd: "cpack", ExitCode: -1}
		}
		c.Renderer.Success(name+" packaged", eff.BuildPath())
	}
	return nil
}

// ideGenerators maps the IDE verb's argument to a generator name.
var ideGenerators = map[string]string{
	"vs2022":     "Visual Studio 17 2022",
	"vs2019":     "Visual Studio 16 2019",
	"vs2017":     "Visual Studio 15 2017",
	"xcode":      "Xcode",
	"codeblocks": "CodeBlocks - Unix Makefiles",
	"clion":      "", // CLion consumes the default cache directly
}

// GenerateIDE configures each project with an IDE-friendly generator
// so the build tree can be opened as a project file.
func (c *Context) GenerateIDE(ctx context.Context, opts Options, kind string, projects ...string) error {
	generator, ok := ideGenerators[kind]
	if !ok {
		names := make([]string, 0, len(ideGenerators))
		for n := range ideGenerators {
			names = append(names, n)
		}
		sort.Strings(names)
		return &errs.ConfigError{Reason: fmt.Sprintf("unknown IDE %q (want one of %v)", kind, names)}
	}
	if len(projects) == 0 {
		projects = c.Workspace.Projects
	}
	for _, name := range projects {
		eff, err := c.compose(name, opts)
		if err != nil {
			return err
		}
		if _, err := gen.Emit(eff); err != nil {
			return err
		}
		c.Renderer.Step("ide", name+" ("+kind+")")
		d := c.NewDriver(buildsys.Params{
			SourceDir: eff.Dir,
			BuildDir:  eff.BuildPath() + "-" + kind,
			Generator: generator,
			BuildType: eff.Config,
		})
		d.Output(c.Renderer.ChildOut(), c.Renderer.ChildErr())
		if err := d.Configure(ctx, eff.Options...); err != nil {
			return err
		}
		c.Renderer.Success(name+" project files ready", eff.BuildPath()+"-"+kind)
	}
	return nil
}

// RunScript executes a named script: project scripts shadow workspace
// scripts of the same name.
func (c *Context) RunScript(ctx context.Context, opts Options, project, script string) error {
	if project != "" {
		eff, err := c.compose(project, opts)
		if err != nil {
			return err
		}
		if cmd, ok := eff.Scripts[script]; ok {
			c.Renderer.Step("script", script)
			return c.runHooks(ctx, eff, hookPhase{[]string{cmd}, "script"}, opts)
		}
	}
	command, ok := c.Workspace.Scripts[script]
	if !ok {
		return &errs.ConfigError{Reason: fmt.Sprintf("no script named %q", script)}
	}
	c.Renderer.Step("script", script)
	cmd := shellCommand(ctx, command)
	cmd.Dir = c.Root
	cmd.Stdout = c.Renderer.ChildOut()
	cmd.Stderr = c.Renderer.ChildErr()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return errs.Cancelled
		}
		return fmt.Errorf("script %q: %w", script, err)
	}
	return nil
}

// ProjectInfo is the listing surface of one workspace project.
type ProjectInfo struct {
	Name         string
	Kind         string
	Version      string
	Description  string
	Variants     []string
	Dependencies []string
	CrossTargets []string
}

// List describes every workspace project for the list verb. Projects
// whose configuration fails to load are reported with a warning and
// skipped.
func (c *Context) List() []ProjectInfo {
	var infos []ProjectInfo
	for _, name := range c.Workspace.Projects {
		p, err := c.load(name)
		if err != nil {
			c.Renderer.Warning("could not load "+name, err.Error())
			continue
		}
		info := ProjectInfo{
			Name:        p.Project.Name,
			Kind:        p.Project.Kind,
			Version:     p.Project.Version,
			Description: p.Project.Description,
		}
		for v := range p.Variants {
			info.Variants = append(info.Variants, v)
		}
		sort.Strings(info.Variants)
		for _, d := range p.Dependencies.Workspace {
			info.Dependencies = append(info.Dependencies, d.Name)
		}
		info.CrossTargets = cross.Names()
		infos = append(infos, info)
	}
	return infos
}
