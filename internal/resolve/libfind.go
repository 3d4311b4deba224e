package resolve

import (
	"os"
	"path/filepath"
	"strings"
)

// LibraryNames returns the candidate file names for a project's
// library artifact, covering the prefix/suffix conventions of both
// driver styles. Ordering matters: link-time artifacts (import libs,
// archives) come before runtime ones.
func LibraryNames(project string, shared, slashStyle bool) []string {
	var names []string
	add := func(patterns ...string) { names = append(names, patterns...) }

	if slashStyle {
		if shared {
			add(project+".lib", "lib"+project+".lib",
				project+".dll", "lib"+project+".dll")
		} else {
			add(project+".lib", "lib"+project+".lib")
		}
		return names
	}
	if shared {
		add("lib"+project+".dll.a", project+".dll.a",
			"lib"+project+".so", "lib"+project+".dylib",
			"lib"+project+".dll", project+".dll")
	} else {
		add("lib"+project+".a", project+".a")
	}
	return names
}

// versionedSharedPrefix matches versioned shared objects
// (lib<name>.so.1.2.3) when the project is a shared library built
// dash-style.
func versionedSharedPrefix(project string) string {
	return "lib" + project + ".so."
}

// FindLibraries searches base for the project's library artifacts.
// It checks base itself, then the conventional subdirectories, then
// the per-configuration directories the multi-config generators use.
// Returned paths are absolute.
func FindLibraries(base, project string, shared, slashStyle bool) []string {
	names := LibraryNames(project, shared, slashStyle)

	dirs := []string{""}
	for _, sub := range []string{"lib", "libs", "bin", filepath.Join("build", "lib"), filepath.Join("build", "bin")} {
		dirs = append(dirs, sub)
	}
	for _, cfg := range []string{"Debug", "Release", "RelWithDebInfo", "MinSizeRel"} {
		dirs = append(dirs, cfg)
	}

	var found []string
	for _, dir := range dirs {
		root := filepath.Join(base, dir)
		for _, name := range names {
			path := filepath.Join(root, name)
			if _, err := os.Stat(path); err == nil {
				found = append(found, abs(path))
			}
		}
		if shared && !slashStyle {
			found = append(found, globVersionedShared(root, project)...)
		}
		if len(found) > 0 {
			return found
		}
	}
	return nil
}

func globVersionedShared(dir, project string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var out []string
	prefix := versionedSharedPrefix(project)
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			out = append(out, abs(filepath.Join(dir, e.Name())))
		}
	}
	return out
}

func abs(path string) string {
	if a, err := filepath.Abs(path); err == nil {
		return a
	}
	return path
}
