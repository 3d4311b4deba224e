// Package orchestrator sequences multi-project builds: it derives the
// build order from the dependency graph, resolves each project's
// dependencies and drives the backing generator per project.
package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cbuild-io/cbuild/internal/config"
	"github.com/cbuild-io/cbuild/internal/console"
	"github.com/cbuild-io/cbuild/internal/ctxlog"
	"github.com/cbuild-io/cbuild/internal/errs"
	"github.com/cbuild-io/cbuild/internal/expand"
	"github.com/cbuild-io/cbuild/internal/gen"
	"github.com/cbuild-io/cbuild/internal/graph"
	"github.com/cbuild-io/cbuild/internal/resolve"
	"github.com/cbuild-io/cbuild/internal/toolchain"
	"github.com/cbuild-io/cbuild/pkgs/buildsys"
	"github.com/cbuild-io/cbuild/pkgs/buildsys/cmake"
)

// Context carries the collaborators of one invocation. All of them
// are injectable; tests substitute fakes.
type Context struct {
	Root      string // workspace root
	Workspace *config.Workspace
	Renderer  console.Renderer
	Probe     *toolchain.Probe
	Host      toolchain.Host
	NewDriver buildsys.Factory
	Runner    resolve.Runner

	projects map[string]*config.Project
	effs     map[string]*expand.Effective
	built    map[string]bool
}

// Options select the overlays and knobs of one invocation.
type Options struct {
	Config      string
	Variant     string
	Target      string // single generator target, empty builds all
	CrossTarget string
	Force       bool // reconfigure even when a cache exists
	Jobs        int  // generator-level build parallelism, 0 = default
	ExtraArgs   []string
}

// New prepares an orchestrator context. Zero collaborators get
// production defaults.
func New(root string, ws *config.Workspace, r console.Renderer) *Context {
	return &Context{
		Root:      root,
		Workspace: ws,
		Renderer:  r,
		Probe:     toolchain.NewProbe(),
		Host:      toolchain.Detect(),
		NewDriver: cmake.FromParams,
		Runner:    resolve.ExecRunner,
		projects:  map[string]*config.Project{},
		effs:      map[string]*expand.Effective{},
		built:     map[string]bool{},
	}
}

// load reads and memoizes a project's configuration.
func (c *Context) load(name string) (*config.Project, error) {
	if p, ok := c.projects[name]; ok {
		return p, nil
	}
	p, err := config.LoadProject(config.ProjectDir(c.Root, name))
	if err != nil {
		return nil, err
	}
	c.projects[name] = p
	return p, nil
}

// compose memoizes the effective configuration for one invocation.
// The cache key is the project name: options do not change within an
// invocation.
func (c *Context) compose(name string, opts Options) (*expand.Effective, error) {
	if eff, ok := c.effs[name]; ok {
		return eff, nil
	}
	p, err := c.load(name)
	if err != nil {
		return nil, err
	}
	eff, err := expand.Compose(p, config.ProjectDir(c.Root, name), expand.Request{
		Config:      opts.Config,
		Variant:     opts.Variant,
		CrossTarget: opts.CrossTarget,
		Host:        c.Host,
		Warn:        func(msg string) { c.Renderer.Warning(msg, "") },
	})
	if err != nil {
		return nil, err
	}
	c.effs[name] = eff
	return eff, nil
}

// plan computes the build order for the requested projects, or the
// whole workspace when none are named.
func (c *Context) plan(roots []string) ([]string, error) {
	g := graph.Build(c.Workspace, c.load, func(msg string) {
		c.Renderer.Warning(msg, "")
	})
	if len(roots) == 0 {
		roots = c.Workspace.Projects
	}
	return g.ResolveOrder(roots)
}

// Build builds the named projects (the whole workspace when none are
// named) in dependency order. With multiple projects a failure is
// recorded and the run continues; the aggregate is the final error.
// A single explicitly requested project fails fast.
func (c *Context) Build(ctx context.Context, opts Options, projects ...string) error {
	if len(c.Workspace.Projects) == 0 {
		c.Renderer.Warning("workspace has no projects", "add some to "+config.WorkspaceFile)
		c.Renderer.Success("nothing to build", "")
		return nil
	}
	if !c.Probe.Has(ctx, "cmake") {
		return &errs.ToolMissing{Tool: "cmake", Hint: "install CMake 3.15 or newer"}
	}

	order, err := c.plan(projects)
	if err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("build plan resolved", "order", order)

	failFast := len(projects) == 1
	var failed []string
	for _, name := range order {
		if err := ctx.Err(); err != nil {
			return errs.Cancelled
		}
		if c.built[name] {
			continue
		}
		if err := c.buildOne(ctx, name, opts); err != nil {
			if failFast || errs.ExitCode(err) == errs.ExitCancelled {
				return err
			}
			c.Renderer.Error(name+" failed", err.Error())
			failed = append(failed, name)
			continue
		}
		c.built[name] = true
	}
	if len(failed) > 0 {
		return &errs.Aggregate{Total: len(order), Failed: failed}
	}
	return nil
}

// buildOne drives a single project through resolve, emit, configure
// and compile.
func (c *Context) buildOne(ctx context.Context, name string, opts Options) error {
	eff, err := c.compose(name, opts)
	if err != nil {
		return err
	}
	label := fmt.Sprintf("%s [%s]", name, eff.Config)
	if eff.Cross != nil {
		label += " (" + eff.Cross.Target + ")"
	}
	c.Renderer.Step("build", label)

	args, err := c.resolveDeps(ctx, eff, opts)
	if err != nil {
		return err
	}
	if _, err := gen.Emit(eff); err != nil {
		return err
	}

	driver := c.driver(ctx, eff)
	if err := c.runHooks(ctx, eff, hookPhase{eff.HookSet().PreBuild, "pre_build"}, opts); err != nil {
		return err
	}

	if opts.Force || !cmake.Configured(eff.BuildPath()) {
		if err := c.runHooks(ctx, eff, hookPhase{eff.HookSet().PreConfigure, "pre_configure"}, opts); err != nil {
			return err
		}
		spin := c.Renderer.Spin("configuring " + name)
		if err := driver.Configure(ctx, args...); err != nil {
			spin.Fail(err.Error())
			return err
		}
		spin.Done()
		if err := c.runHooks(ctx, eff, hookPhase{eff.HookSet().PostConfigure, "post_configure"}, opts); err != nil {
			return err
		}
	} else {
		c.Renderer.Substep("configure up to date")
	}

	var buildArgs []string
	if opts.Target != "" {
		buildArgs = append(buildArgs, "--target", opts.Target)
	}
	if opts.Jobs > 0 {
		buildArgs = append(buildArgs, "--parallel", fmt.Sprint(opts.Jobs))
	}
	buildArgs = append(buildArgs, opts.ExtraArgs...)
	spin := c.Renderer.Spin("compiling " + name)
	if err := driver.Compile(ctx, buildArgs...); err != nil {
		spin.Fail(err.Error())
		return err
	}
	spin.Done()

	if err := c.runHooks(ctx, eff, hookPhase{eff.HookSet().PostBuild, "post_build"}, opts); err != nil {
		return err
	}
	c.Renderer.Success(label, eff.BinPath())
	return nil
}

// driver instantiates the backing generator driver for one project.
func (c *Context) driver(ctx context.Context, eff *expand.Effective) buildsys.Driver {
	d := c.NewDriver(buildsys.Params{
		SourceDir: eff.Dir,
		BuildDir:  eff.BuildPath(),
		Generator: c.Probe.Generator(ctx, eff.GeneratorHint, c.Host),
		BuildType: eff.Config,
	})
	for k, v := range eff.Env {
		d.Env(k, v)
	}
	d.Output(c.Renderer.ChildOut(), c.Renderer.ChildErr())
	return d
}

// resolveDeps gathers the configure arguments contributed by every
// dependency class and runs the pre-steps they require.
func (c *Context) resolveDeps(ctx context.Context, eff *expand.Effective, opts Options) ([]string, error) {
	var args []string
	deps := eff.Source.Dependencies

	if len(deps.System) > 0 {
		c.Renderer.Substep(fmt.Sprintf("assuming %d system dependencies are installed", len(deps.System)))
		args = append(args, resolve.SystemArgs(deps.System)...)
	}

	step, vendorArgs, err := resolve.Vendored(deps.Vendored, eff.Dir)
	if err != nil {
		return nil, err
	}
	if step != nil {
		spin := c.Renderer.Spin(step.Label)
		if err := step.Run(ctx, c.Runner); err != nil {
			spin.Fail(err.Error())
			return nil, err
		}
		spin.Done()
		args = append(args, vendorArgs...)
	}

	if len(deps.Git) > 0 {
		depsDir := filepath.Join(eff.Dir, "deps")
		steps, gitArgs, err := resolve.GitSteps(ctx, deps.Git, depsDir, c.Runner)
		if err != nil {
			return nil, err
		}
		for _, s := range steps {
			spin := c.Renderer.Spin(s.Label)
			if err := s.Run(ctx, c.Runner); err != nil {
				spin.Fail(err.Error())
				return nil, err
			}
			spin.Done()
		}
		args = append(args, gitArgs...)
	}

	if len(deps.Workspace) > 0 {
		r := &resolve.WorkspaceResolver{
			Root: c.Root,
			Compose: func(name string) (*expand.Effective, error) {
				return c.compose(name, opts)
			},
			BuildDep: func(ctx context.Context, name string) error {
				if c.built[name] {
					return nil
				}
				if err := c.buildOne(ctx, name, opts); err != nil {
					return err
				}
				c.built[name] = true
				return nil
			},
			EnsureStub: func(a *resolve.Artifact, depEff *expand.Effective) (string, error) {
				return gen.WritePackageConfig(depEff, a.Libraries)
			},
			Warn: func(msg string) { c.Renderer.Warning(msg, "") },
		}
		_, wsArgs, err := r.Resolve(ctx, deps.Workspace)
		if err != nil {
			return nil, err
		}
		args = append(args, wsArgs...)
	}

	// Cross profiles carry their own compiler selection.
	if eff.Cross == nil {
		if cc, cxx, ok := toolchain.MapCompiler(eff.Compiler); ok && c.Probe.Has(ctx, cc) {
			args = append(args,
				"-DCMAKE_C_COMPILER="+cc,
				"-DCMAKE_CXX_COMPILER="+cxx,
			)
		}
	}
	args = append(args, eff.Options...)
	return args, nil
}
