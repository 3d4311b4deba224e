// Package resolve locates a project's dependencies and turns them
// into generator arguments and pre-configure steps.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/cbuild-io/cbuild/internal/config"
	"github.com/cbuild-io/cbuild/internal/errs"
)

// VendoredTimeout bounds one external package-manager invocation.
const VendoredTimeout = 120 * time.Second

// Runner executes an external command in dir and returns its combined
// output. Injected so tests never spawn processes.
type Runner func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

// ExecRunner is the production Runner.
func ExecRunner(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// PreStep is a command the orchestrator runs before configuring a
// project, typically a package-manager install or a git fetch.
type PreStep struct {
	Label   string
	Dir     string
	Name    string
	Args    []string
	Timeout time.Duration
}

// Run executes the step through the given runner, enforcing its
// timeout and mapping failures to the error taxonomy.
func (s PreStep) Run(ctx context.Context, run Runner) error {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	out, err := run(ctx, s.Dir, s.Name, s.Args...)
	if err == nil {
		return nil
	}
	if ctx.Err() == context.DeadlineExceeded {
		return &errs.Timeout{
			Op:      s.Label,
			Seconds: int(s.Timeout / time.Second),
			Hint:    "run it manually or raise the timeout",
		}
	}
	return &errs.ChildProcessError{
		Cmd:        s.Name,
		ExitCode:   exitCode(err),
		StderrTail: tailLines(string(out), 20),
	}
}

// SystemArgs maps system dependencies to find_package requests. The
// generator locates them; missing packages surface as configure
// errors, so the caller should warn that availability is assumed.
func SystemArgs(system []string) []string {
	var args []string
	for _, name := range system {
		args = append(args, "-DCBUILD_REQUIRE_"+strings.ToUpper(sanitize(name))+"=1")
	}
	return args
}

// Vendored expands a vendored-dependency section into the install
// pre-step and the toolchain argument wiring the manager's packages
// into the configure.
func Vendored(v *config.Vendored, projectDir string) (*PreStep, []string, error) {
	if v == nil || len(v.Packages) == 0 {
		return nil, nil, nil
	}
	manager := v.Manager
	if manager == "" {
		manager = "vcpkg"
	}
	if manager != "vcpkg" {
		return nil, nil, &errs.ConfigError{
			Reason: fmt.Sprintf("unsupported vendored package manager %q", manager),
		}
	}

	root := v.Path
	if root == "" {
		root = os.Getenv("VCPKG_ROOT")
	}
	if root == "" {
		return nil, nil, &errs.ToolMissing{
			Tool: "vcpkg",
			Hint: "set VCPKG_ROOT or dependencies.vendored.path",
		}
	}
	root = os.ExpandEnv(root)

	step := &PreStep{
		Label:   "vcpkg install",
		Dir:     projectDir,
		Name:    filepath.Join(root, "vcpkg"),
		Args:    append([]string{"install"}, v.Packages...),
		Timeout: VendoredTimeout,
	}
	toolchain := filepath.Join(root, "scripts", "buildsystems", "vcpkg.cmake")
	return step, []string{"-DCMAKE_TOOLCHAIN_FILE=" + toolchain}, nil
}

// GitSteps plans the fetch of each git dependency into depsDir,
// creating it when absent. Deps already present on disk are skipped; a
// dependency pinned to a branch is refreshed with a pull step instead.
func GitSteps(ctx context.Context, deps []config.GitDep, depsDir string, run Runner) ([]PreStep, []string, error) {
	if len(deps) == 0 {
		return nil, nil, nil
	}
	if err := os.MkdirAll(depsDir, 0o755); err != nil {
		return nil, nil, err
	}
	var steps []PreStep
	var args []string
	for _, dep := range deps {
		dir := filepath.Join(depsDir, dep.Name)
		args = append(args, "-DCBUILD_DEP_"+strings.ToUpper(sanitize(dep.Name))+"_DIR="+dir)

		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			if dep.Branch != "" {
				steps = append(steps, PreStep{
					Label: "update " + dep.Name,
					Dir:   dir,
					Name:  "git",
					Args:  []string{"pull", "--ff-only"},
				})
			}
			continue
		}

		clone := []string{"clone"}
		if dep.Shallow {
			clone = append(clone, "--depth", "1")
		}
		if dep.Branch != "" {
			clone = append(clone, "--branch", dep.Branch)
		}
		if dep.Tag != "" && dep.Tag != "latest" {
			clone = append(clone, "--branch", dep.Tag)
		}
		clone = append(clone, dep.URL, dir)
		steps = append(steps, PreStep{
			Label: "fetch " + dep.Name,
			Dir:   depsDir,
			Name:  "git",
			Args:  clone,
		})

		if dep.Tag == "latest" {
			tag, err := LatestTag(ctx, dep.URL, run)
			if err != nil {
				return nil, nil, err
			}
			steps[len(steps)-1].Args = insertBranch(steps[len(steps)-1].Args, tag)
		}
		if dep.Commit != "" {
			steps = append(steps, PreStep{
				Label: "pin " + dep.Name,
				Dir:   dir,
				Name:  "git",
				Args:  []string{"checkout", dep.Commit},
			})
		}
	}
	return steps, args, nil
}

// LatestTag lists the remote's tags and returns the highest semantic
// version among them. Tags that do not parse as versions are ignored.
func LatestTag(ctx context.Context, url string, run Runner) (string, error) {
	out, err := run(ctx, "", "git", "ls-remote", "--tags", "--refs", url)
	if err != nil {
		return "", &errs.ResolveError{Name: url, Scope: "git"}
	}
	var tags []string
	for _, line := range strings.Split(string(out), "\n") {
		_, ref, ok := strings.Cut(line, "refs/tags/")
		if !ok {
			continue
		}
		v := ref
		if !strings.HasPrefix(v, "v") {
			v = "v" + v
		}
		if semver.IsValid(v) {
			tags = append(tags, ref)
		}
	}
	if len(tags) == 0 {
		return "", &errs.ResolveError{Name: url, Scope: "git"}
	}
	sort.Slice(tags, func(i, j int) bool {
		return semver.Compare(canonical(tags[i]), canonical(tags[j])) < 0
	})
	return tags[len(tags)-1], nil
}

func canonical(tag string) string {
	if strings.HasPrefix(tag, "v") {
		return tag
	}
	return "v" + tag
}

// insertBranch splices --branch <tag> into a planned clone argv.
func insertBranch(args []string, tag string) []string {
	out := make([]string, 0, len(args)+2)
	out = append(out, args[0])
	out = append(out, "--branch", tag)
	return append(out, args[1:]...)
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return '_'
	}, name)
}

func exitCode(err error) int {
	var exit *exec.ExitError
	if errors.As(err, &exit) {
		return exit.ExitCode()
	}
	return -1
}

func tailLines(s string, n int) []string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}
