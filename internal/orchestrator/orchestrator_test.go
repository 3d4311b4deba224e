package orchestrator

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbuild-io/cbuild/internal/config"
	"github.com/cbuild-io/cbuild/internal/console"
	"github.com/cbuild-io/cbuild/internal/errs"
	"github.com/cbuild-io/cbuild/pkgs/buildsys"
)

// recorder is a console.Renderer capturing everything.
type recorder struct {
	mu       sync.Mutex
	warnings []string
	errors   []string
	success  []string
}

func (r *recorder) Status(string)                {}
func (r *recorder) Step(string, string)          {}
func (r *recorder) Substep(string)               {}
func (r *recorder) Verbosity() console.Verbosity { return console.Quiet }
func (r *recorder) ChildOut() io.Writer          { return io.Discard }
func (r *recorder) ChildErr() io.Writer          { return io.Discard }

func (r *recorder) Success(msg, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.success = append(r.success, msg)
}

func (r *recorder) Warning(msg, hint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnings = append(r.warnings, msg)
}

func (r *recorder) Error(msg, hint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, msg)
}

func (r *recorder) Spin(msg string) console.Spinner { return nopSpinner{} }

type nopSpinner struct{}

func (nopSpinner) Update(string) {}
func (nopSpinner) Done()         {}
func (nopSpinner) Fail(string)   {}

// driverLog records driver lifecycle events across all fake drivers.
type driverLog struct {
	mu      sync.Mutex
	events  []string
	args    map[string][]string // project -> configure args
	compile map[string][]string // project -> compile args
	fail    map[string]bool     // project -> fail the compile
}

func newDriverLog() *driverLog {
	return &driverLog{
		args:    map[string][]string{},
		compile: map[string][]string{},
		fail:    map[string]bool{},
	}
}

func (l *driverLog) record(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

type fakeDriver struct {
	log     *driverLog
	project string
}

func (d *fakeDriver) Source(string)         {}
func (d *fakeDriver) Build(string)          {}
func (d *fakeDriver) InstallDir(string)     {}
func (d *fakeDriver) Env(string, string)    {}
func (d *fakeDriver) Output(_, _ io.Writer) {}
func (d *fakeDriver) OutputDir() string     { return "" }

func (d *fakeDriver) Configure(ctx context.Context, args ...string) error {
	d.log.mu.Lock()
	d.log.args[d.project] = args
	d.log.mu.Unlock()
	d.log.record("configure:" + d.project)
	return nil
}

func (d *fakeDriver) Compile(ctx context.Context, args ...string) error {
	d.log.mu.Lock()
	d.log.compile[d.project] = args
	d.log.mu.Unlock()
	if d.log.fail[d.project] {
		d.log.record("fail:" + d.project)
		return &errs.ChildProcessError{Cmd: "cmake --build", ExitCode: 2}
	}
	d.log.record("compile:" + d.project)
	return nil
}

func (d *fakeDriver) Test(ctx context.Context, args ...string) error {
	d.log.record("test:" + d.project)
	return nil
}

func (d *fakeDriver) Install(ctx context.Context, args ...string) error {
	d.log.record("install:" + d.project)
	return nil
}

// setup writes a workspace with the given project -> deps layout to a
// temp dir and wires an orchestrator with fakes.
func setup(t *testing.T, projects []string, deps map[string][]string) (*Context, *driverLog, *recorder) {
	t.Helper()
	root := t.TempDir()

	for _, name := range projects {
		p := &config.Project{}
		p.Project.Name = name
		p.Project.Kind = config.KindStaticLibrary
		p.Project.Version = "0.1.0"
		for _, d := range deps[name] {
			p.Dependencies.Workspace = append(p.Dependencies.Workspace, config.WorkspaceDep{Name: d})
		}
		dir := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		require.NoError(t, config.SaveProject(p, dir))
	}
	ws := &config.Workspace{Name: "test", Projects: projects}
	require.NoError(t, config.SaveWorkspace(ws, root))

	rec := &recorder{}
	log := newDriverLog()
	orch := New(root, ws, rec)
	orch.NewDriver = func(p buildsys.Params) buildsys.Driver {
		return &fakeDriver{log: log, project: filepath.Base(p.SourceDir)}
	}
	orch.Runner = func(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
		return nil, nil
	}
	for _, tool := range []string{"cmake", "cpack", "ninja", "gcc", "cl", "clang"} {
		orch.Probe.Assume(tool, true)
	}
	return orch, log, rec
}

func TestBuildChainInDependencyOrder(t *testing.T) {
	orch, log, _ := setup(t, []string{"app", "core"}, map[string][]string{
		"app": {"core"},
	})
	err := orch.Build(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"configure:core", "compile:core",
		"configure:app", "compile:app",
	}, log.events)
}

func TestBuildPassesDependencyArgs(t *testing.T) {
	orch, log, _ := setup(t, []string{"app", "core"}, map[string][]string{
		"app": {"core"},
	})
	require.NoError(t, orch.Build(context.Background(), Options{}))

	joined := strings.Join(log.args["app"], "\n")
	// The fake driver builds no artifacts, so the generator gets the
	// search-path fallback.
	assert.Contains(t, joined, "-DCORE_LIBRARY_NAME=core")
	assert.Contains(t, joined, "-DCMAKE_LIBRARY_PATH=")
}

func TestBuildNamedGeneratorTarget(t *testing.T) {
	orch, log, _ := setup(t, []string{"app"}, nil)
	require.NoError(t, orch.Build(context.Background(), Options{Target: "app_tests"}))

	assert.Equal(t, []string{"--target", "app_tests"}, log.compile["app"])
}

func TestBuildContinuesAfterFailure(t *testing.T) {
	orch, log, rec := setup(t, []string{"bad", "good"}, nil)
	log.fail["bad"] = true

	err := orch.Build(context.Background(), Options{})
	var agg *errs.Aggregate
	require.True(t, errors.As(err, &agg), "want Aggregate, got %v", err)
	assert.Equal(t, []string{"bad"}, agg.Failed)
	assert.Equal(t, 2, agg.Total)
	assert.Equal(t, errs.ExitBuild, errs.ExitCode(err))

	assert.Contains(t, log.events, "compile:good")
	require.NotEmpty(t, rec.errors)
	assert.Contains(t, rec.errors[0], "bad")
}

func TestBuildSingleProjectFailsFast(t *testing.T) {
	orch, log, _ := setup(t, []string{"bad", "good"}, nil)
	log.fail["bad"] = true

	err := orch.Build(context.Background(), Options{}, "bad")
	var child *errs.ChildProcessError
	require.True(t, errors.As(err, &child), "want ChildProcessError, got %v", err)
	assert.NotContains(t, log.events, "compile:good")
}

func TestBuildEmptyWorkspace(t *testing.T) {
	root := t.TempDir()
	rec := &recorder{}
	ws := &config.Workspace{Name: "empty"}
	orch := New(root, ws, rec)

	err := orch.Build(context.Background(), Options{})
	require.NoError(t, err)
	require.NotEmpty(t, rec.warnings)
	assert.Contains(t, rec.warnings[0], "no projects")
	require.NotEmpty(t, rec.success)
}

func TestBuildRequiresGenerator(t *testing.T) {
	orch, _, _ := setup(t, []string{"app"}, nil)
	orch.Probe.Assume("cmake", false)

	err := orch.Build(context.Background(), Options{})
	var tool *errs.ToolMissing
	require.True(t, errors.As(err, &tool))
	assert.Equal(t, "cmake", tool.Tool)
	assert.Equal(t, errs.ExitTool, errs.ExitCode(err))
}

func TestBuildCycleSurfaces(t *testing.T) {
	orch, _, _ := setup(t, []string{"x", "y"}, map[string][]string{
		"x": {"y"},
		"y": {"x"},
	})
	err := orch.Build(context.Background(), Options{})
	var cyc *errs.CycleError
	require.True(t, errors.As(err, &cyc), "want CycleError, got %v", err)
}

func TestCleanRemovesBuildTree(t *testing.T) {
	orch, _, _ := setup(t, []string{"app"}, nil)
	buildDir := filepath.Join(orch.Root, "app", "build")
	require.NoError(t, os.MkdirAll(buildDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(buildDir, "CMakeCache.txt"), []byte("x"), 0o644))

	require.NoError(t, orch.Clean(context.Background(), Options{}, "app"))
	_, err := os.Stat(buildDir)
	assert.True(t, os.IsNotExist(err))
}

func TestRunRejectsNonExecutable(t *testing.T) {
	orch, _, _ := setup(t, []string{"app"}, nil) // static-library
	err := orch.Run(context.Background(), Options{}, "app", nil)
	var cfg *errs.ConfigError
	require.True(t, errors.As(err, &cfg), "want ConfigError, got %v", err)
	assert.Contains(t, cfg.Reason, "not an executable")
}

func TestTestBuildsFirst(t *testing.T) {
	orch, log, _ := setup(t, []string{"app"}, nil)
	require.NoError(t, orch.Test(context.Background(), Options{}, nil, "app"))

	assert.Equal(t, []string{"configure:app", "compile:app", "test:app"}, log.events)
}

func TestListDescribesProjects(t *testing.T) {
	orch, _, _ := setup(t, []string{"core", "app"}, map[string][]string{
		"app": {"core"},
	})
	infos := orch.List()
	require.Len(t, infos, 2)
	assert.Equal(t, "core", infos[0].Name)
	assert.Equal(t, config.KindStaticLibrary, infos[0].Kind)
	assert.Equal(t, []string{"core"}, infos[1].Dependencies)
}
