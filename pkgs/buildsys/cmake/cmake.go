// Package cmake drives CMake builds with chainable configuration.
package cmake

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cbuild-io/cbuild/internal/errs"
	"github.com/cbuild-io/cbuild/pkgs/buildsys"
)

type defineValue struct {
	value    string
	typeName string
}

// CMake wraps the common CMake lifecycle. Environment overlays are
// scoped to the spawned children; the process-global environment is
// never touched.
type CMake struct {
	sourceDir  string
	buildDir   string
	installDir string
	generator  string
	buildType  string
	toolchain  string
	defines    map[string]defineValue
	env        map[string]string
	stdout     io.Writer
	stderr     io.Writer
}

var _ buildsys.Driver = (*CMake)(nil)

// New creates a CMake driver rooted at sourceDir.
func New(sourceDir string) *CMake {
	return &CMake{
		sourceDir: sourceDir,
		buildDir:  "build",
		defines:   map[string]defineValue{},
		env:       map[string]string{},
		stdout:    io.Discard,
		stderr:    io.Discard,
	}
}

// FromParams is the buildsys.Factory for this driver.
func FromParams(p buildsys.Params) buildsys.Driver {
	c := New(p.SourceDir).Generator(p.Generator).BuildType(p.BuildType)
	if p.BuildDir != "" {
		c.Build(p.BuildDir)
	}
	if p.InstallDir != "" {
		c.InstallDir(p.InstallDir)
	}
	return c
}

func (c *CMake) Source(dir string)     { c.sourceDir = dir }
func (c *CMake) Build(dir string)      { c.buildDir = dir }
func (c *CMake) InstallDir(dir string) { c.installDir = dir }

func (c *CMake) Generator(name string) *CMake {
	c.generator = name
	return c
}

func (c *CMake) BuildType(name string) *CMake {
	c.buildType = name
	return c
}

func (c *CMake) Toolchain(path string) *CMake {
	c.toolchain = path
	return c
}

func (c *CMake) Define(key, value string) *CMake {
	c.defines[key] = defineValue{value: value, typeName: "STRING"}
	return c
}

func (c *CMake) DefineBool(key string, value bool) *CMake {
	v := "OFF"
	if value {
		v = "ON"
	}
	c.defines[key] = defineValue{value: v, typeName: "BOOL"}
	return c
}

func (c *CMake) Env(key, value string) {
	c.env[key] = value
}

func (c *CMake) Output(stdout, stderr io.Writer) {
	if stdout != nil {
		c.stdout = stdout
	}
	if stderr != nil {
		c.stderr = stderr
	}
}

func (c *CMake) Configure(ctx context.Context, args ...string) error {
	if err := os.MkdirAll(c.buildDir, 0o755); err != nil {
		return err
	}
	cmakeArgs := []string{"-S", c.sourceDir, "-B", c.buildDir}
	if c.generator != "" {
		cmakeArgs = append(cmakeArgs, "-G", c.generator)
	}
	if c.installDir != "" {
		c.Define("CMAKE_INSTALL_PREFIX", c.installDir)
	}
	if c.toolchain != "" {
		c.Define("CMAKE_TOOLCHAIN_FILE", c.toolchain)
	}
	if c.buildType != "" {
		c.Define("CMAKE_BUILD_TYPE", c.buildType)
	}
	cmakeArgs = append(cmakeArgs, c.definesArgs()...)
	cmakeArgs = append(cmakeArgs, args...)
	return c.run(ctx, "cmake", cmakeArgs)
}

func (c *CMake) Compile(ctx context.Context, args ...string) error {
	cmdArgs := []string{"--build", c.buildDir}
	if c.buildType != "" {
		cmdArgs = append(cmdArgs, "--config", c.buildType)
	}
	cmdArgs = append(cmdArgs, args...)
	return c.run(ctx, "cmake", cmdArgs)
}

func (c *CMake) Test(ctx context.Context, args ...string) error {
	cmdArgs := []string{"--test-dir", c.buildDir, "--output-on-failure"}
	if c.buildType != "" {
		cmdArgs = append(cmdArgs, "-C", c.buildType)
	}
	cmdArgs = append(cmdArgs, args...)
	return c.run(ctx, "ctest", cmdArgs)
}

func (c *CMake) Install(ctx context.Context, args ...string) error {
	cmdArgs := []string{"--install", c.buildDir}
	if c.buildType != "" {
		cmdArgs = append(cmdArgs, "--config", c.buildType)
	}
	if c.installDir != "" {
		cmdArgs = append(cmdArgs, "--prefix", c.installDir)
	}
	cmdArgs = append(cmdArgs, args...)
	return c.run(ctx, "cmake", cmdArgs)
}

// OutputDir returns the install dir if set, otherwise the build dir.
func (c *CMake) OutputDir() string {
	if c.installDir != "" {
		return c.installDir
	}
	return c.buildDir
}

// Configured reports whether a previous configure left a usable cache
// in the build tree. An empty cache file counts as unconfigured; an
// aborted configure can leave one behind.
func Configured(buildDir string) bool {
	info, err := os.Stat(filepath.Join(buildDir, "CMakeCache.txt"))
	return err == nil && info.Size() > 0
}

func (c *CMake) definesArgs() []string {
	if len(c.defines) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.defines))
	for k := range c.defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		def := c.defines[k]
		if def.typeName != "" {
			args = append(args, "-D"+k+":"+def.typeName+"="+def.value)
			continue
		}
		args = append(args, "-D"+k+"="+def.value)
	}
	return args
}

// stderrTailSize is how many trailing stderr lines survive a failure.
const stderrTailSize = 20

func (c *CMake) run(ctx context.Context, bin string, args []string) error {
	cmd := exec.CommandContext(ctx, bin, args...)
	tail := newTailWriter(stderrTailSize)
	cmd.Stdout = c.stdout
	cmd.Stderr = io.MultiWriter(c.stderr, tail)
	if len(c.env) > 0 {
		cmd.Env = mergeEnv(os.Environ(), c.env)
	}
	setProcAttrs(cmd)

	err := cmd.Run()
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return errs.Cancelled
	}
	var exit *exec.ExitError
	if errors.As(err, &exit) {
		return &errs.ChildProcessError{
			Cmd:        bin + " " + strings.Join(args, " "),
			ExitCode:   exit.ExitCode(),
			StderrTail: tail.Lines(),
		}
	}
	if errors.Is(err, exec.ErrNotFound) {
		return &errs.ToolMissing{Tool: bin, Hint: "install it and ensure it is on PATH"}
	}
	return err
}

func mergeEnv(base []string, override map[string]string) []string {
	envMap := make(map[string]string, len(base))
	for _, kv := range base {
		if k, v, ok := strings.Cut(kv, "="); ok {
			envMap[k] = v
		}
	}
	for k, v := range override {
		envMap[k] = v
	}
	keys := make([]string, 0, len(envMap))
	for k := range envMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+envMap[k])
	}
	return out
}

// tailWriter keeps the last n lines written to it.
type tailWriter struct {
	n     int
	lines []string
	part  strings.Builder
}

func newTailWriter(n int) *tailWriter {
	return &tailWriter{n: n}
}

func (t *tailWriter) Write(p []byte) (int, error) {
	for _, b := range p {
		if b == '\n' {
			t.push(t.part.String())
			t.part.Reset()
			continue
		}
		t.part.WriteByte(b)
	}
	return len(p), nil
}

func (t *tailWriter) push(line string) {
	t.lines = append(t.lines, line)
	if len(t.lines) > t.n {
		t.lines = t.lines[1:]
	}
}

// Lines returns the retained tail, including any unterminated line.
func (t *tailWriter) Lines() []string {
	out := t.lines
	if t.part.Len() > 0 {
		out = append(out, t.part.String())
	}
	return out
}
