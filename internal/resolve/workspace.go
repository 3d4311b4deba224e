package resolve

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cbuild-io/cbuild/internal/config"
	"github.com/cbuild-io/cbuild/internal/errs"
	"github.com/cbuild-io/cbuild/internal/expand"
)

// Artifact is what a built workspace dependency exposes to its
// dependents.
type Artifact struct {
	Project       string
	BuildDir      string
	IncludeDir    string
	LibDir        string   // directory the libraries were found in
	Libraries     []string // absolute paths, may be empty for interface libs
	PackageConfig string   // path to <Name>Config.cmake, empty if none
}

// Found reports whether a linkable artifact was located.
func (a *Artifact) Found() bool { return len(a.Libraries) > 0 }

// WorkspaceResolver locates workspace dependencies for a project
// being configured. Collaborators are injected: Compose yields a
// sibling's effective configuration, BuildDep is the safety net that
// builds a dependency whose artifacts are missing, and EnsureStub
// writes a package-config file into a dependency's build tree.
type WorkspaceResolver struct {
	Root       string // workspace root
	Compose    func(name string) (*expand.Effective, error)
	BuildDep   func(ctx context.Context, name string) error
	EnsureStub func(a *Artifact, eff *expand.Effective) (string, error)
	Warn       func(string)
}

// Resolve locates every workspace dependency of deps and returns the
// generator arguments that let the dependent's configure find them.
// A dependency with no artifacts on disk is built once via BuildDep
// before being declared unresolved.
func (r *WorkspaceResolver) Resolve(ctx context.Context, deps []config.WorkspaceDep) ([]Artifact, []string, error) {
	warn := r.Warn
	if warn == nil {
		warn = func(string) {}
	}

	var artifacts []Artifact
	var args []string
	prefixes := map[string]bool{}

	for _, dep := range deps {
		eff, err := r.Compose(dep.Name)
		if err != nil {
			return nil, nil, &errs.ResolveError{Name: dep.Name, Scope: "workspace"}
		}

		a := r.locate(dep, eff)
		if !a.Found() && eff.Kind != config.KindInterface {
			warn(fmt.Sprintf("no artifacts for %s yet, building it first", dep.Name))
			if err := r.BuildDep(ctx, dep.Name); err != nil {
				return nil, nil, err
			}
			a = r.locate(dep, eff)
		}

		if r.EnsureStub != nil {
			stub, err := r.EnsureStub(&a, eff)
			if err != nil {
				warn(fmt.Sprintf("could not write package config for %s: %v", dep.Name, err))
			} else {
				a.PackageConfig = stub
			}
		}

		if a.Found() || eff.Kind == config.KindInterface {
			args = append(args, foundArgs(&a, dep.Name)...)
			if !prefixes[a.BuildDir] {
				prefixes[a.BuildDir] = true
				args = append(args, "-DCMAKE_PREFIX_PATH="+a.BuildDir)
			}
		} else {
			warn(fmt.Sprintf("could not locate a library for %s, letting the generator search", dep.Name))
			args = append(args, fallbackArgs(&a, dep, eff)...)
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, args, nil
}

// locate discovers a dependency's artifacts: the output library dir
// first, then the build tree itself.
func (r *WorkspaceResolver) locate(dep config.WorkspaceDep, eff *expand.Effective) Artifact {
	a := Artifact{
		Project:    dep.Name,
		BuildDir:   eff.BuildPath(),
		IncludeDir: eff.IncludePath(),
	}
	shared := linkShared(dep, eff)
	for _, base := range []string{eff.LibPath(), eff.BuildPath()} {
		if libs := FindLibraries(base, dep.Name, shared, eff.SlashStyle); len(libs) > 0 {
			a.LibDir = base
			a.Libraries = libs
			break
		}
	}
	if stub := filepath.Join(a.BuildDir, configFileName(dep.Name)); exists(stub) {
		a.PackageConfig = stub
	}
	return a
}

// foundArgs wires a located artifact into the dependent's configure.
func foundArgs(a *Artifact, name string) []string {
	upper := strings.ToUpper(sanitize(name))
	args := []string{
		"-D" + upper + "_INCLUDE_DIR=" + a.IncludeDir,
		"-D" + sanitize(name) + "_DIR=" + a.BuildDir,
	}
	if len(a.Libraries) > 0 {
		args = append([]string{"-D" + upper + "_LIBRARY=" + a.Libraries[0]}, args...)
	}
	return args
}

// fallbackArgs points the generator's own search machinery at the
// places the artifact could appear, covering both naming conventions.
func fallbackArgs(a *Artifact, dep config.WorkspaceDep, eff *expand.Effective) []string {
	suffixes := ".a;.lib"
	if linkShared(dep, eff) {
		suffixes = ".so;.dylib;.dll;.dll.a;.lib"
	}
	return []string{
		"-DCMAKE_LIBRARY_PATH=" + eff.LibPath() + ";" + eff.BuildPath(),
		`-DCMAKE_FIND_LIBRARY_PREFIXES=lib;`,
		"-DCMAKE_FIND_LIBRARY_SUFFIXES=" + suffixes,
		"-D" + strings.ToUpper(sanitize(dep.Name)) + "_LIBRARY_NAME=" + dep.Name,
	}
}

// linkShared decides whether the dependent links the shared artifact:
// an explicit link_type wins, else the dependency's own kind decides.
func linkShared(dep config.WorkspaceDep, eff *expand.Effective) bool {
	switch dep.LinkType {
	case "shared":
		return true
	case "static":
		return false
	}
	return eff.Shared()
}

func configFileName(project string) string {
	return project + "Config.cmake"
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
