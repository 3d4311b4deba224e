// Package gen emits backing-generator input files from an effective
// project configuration: the top-level lists file and the
// package-config stubs workspace dependents consume.
package gen

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cbuild-io/cbuild/internal/config"
	"github.com/cbuild-io/cbuild/internal/expand"
)

// ListsFile is the generator's entry-point file name.
const ListsFile = "CMakeLists.txt"

// minVersion is the oldest generator release the emitted files target.
const minVersion = "3.15"

// Emit renders the lists file for eff and writes it to the project
// root, replacing any previous render. Hand-maintained lists files
// are preserved: only files carrying the marker are overwritten.
func Emit(eff *expand.Effective) (string, error) {
	path := filepath.Join(eff.Dir, ListsFile)
	if data, err := os.ReadFile(path); err == nil && !strings.Contains(string(data), marker) {
		return path, nil
	}
	content := Render(eff)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("emit %s: %w", ListsFile, err)
	}
	return path, nil
}

const marker = "# generated by cbuild"

// Render produces the lists file contents. Output is deterministic:
// targets are emitted in name order.
func Render(eff *expand.Effective) string {
	var b strings.Builder
	w := func(format string, a ...any) { fmt.Fprintf(&b, format+"\n", a...) }

	w("%s, do not edit", marker)
	w("cmake_minimum_required(VERSION %s)", minVersion)
	version := eff.Source.Project.Version
	if version == "" {
		version = "0.1.0"
	}
	w("project(%s VERSION %s LANGUAGES %s)", eff.Name, version, languages(eff.Source))
	w("")
	emitStandard(w, eff.Source)

	for _, name := range targetNames(eff) {
		emitTarget(w, eff, name, eff.Targets[name])
	}
	if eff.PCH != nil {
		emitPCH(w, eff)
	}
	emitInstall(w, eff)
	return b.String()
}

func languages(p *config.Project) string {
	if p.Project.Language == "c" {
		return "C"
	}
	return "C CXX"
}

func emitStandard(w func(string, ...any), p *config.Project) {
	std := strings.TrimPrefix(strings.TrimPrefix(p.Project.Standard, "c++"), "c")
	if std == "" {
		return
	}
	if strings.HasPrefix(p.Project.Standard, "c++") {
		w("set(CMAKE_CXX_STANDARD %s)", std)
		w("set(CMAKE_CXX_STANDARD_REQUIRED ON)")
	} else {
		w("set(CMAKE_C_STANDARD %s)", std)
		w("set(CMAKE_C_STANDARD_REQUIRED ON)")
	}
	w("")
}

// targetNames returns the project's target names sorted, falling back
// to a single target named after the project when none are declared.
func targetNames(eff *expand.Effective) []string {
	if len(eff.Targets) == 0 {
		return []string{eff.Name}
	}
	names := make([]string, 0, len(eff.Targets))
	for n := range eff.Targets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func emitTarget(w func(string, ...any), eff *expand.Effective, name string, t config.Target) {
	sources := t.Sources
	if len(sources) == 0 {
		sources = []string{"src/*.cpp", "src/*.c"}
	}
	w("file(GLOB_RECURSE %s_SOURCES %s)", upper(name), strings.Join(sources, " "))

	switch eff.Kind {
	case config.KindStaticLibrary:
		w("add_library(%s STATIC ${%s_SOURCES})", name, upper(name))
	case config.KindSharedLibrary:
		w("add_library(%s SHARED ${%s_SOURCES})", name, upper(name))
	case config.KindInterface:
		w("add_library(%s INTERFACE)", name)
	default:
		w("add_executable(%s ${%s_SOURCES})", name, upper(name))
	}

	scope := "PUBLIC"
	if eff.Kind == config.KindInterface {
		scope = "INTERFACE"
	}
	includes := append([]string{"include"}, t.IncludeDirs...)
	w("target_include_directories(%s %s %s)", name, scope, strings.Join(includes, " "))

	defines := append(append([]string{}, eff.Defines...), t.Defines...)
	if len(defines) > 0 && eff.Kind != config.KindInterface {
		w("target_compile_definitions(%s PRIVATE %s)", name, strings.Join(defines, " "))
	}
	if len(eff.Flags) > 0 && eff.Kind != config.KindInterface {
		w("target_compile_options(%s PRIVATE %s)", name, strings.Join(eff.Flags, " "))
	}
	if len(eff.LinkFlags) > 0 && eff.Kind != config.KindInterface {
		w("target_link_options(%s PRIVATE %s)", name, strings.Join(eff.LinkFlags, " "))
	}
	if len(t.Links) > 0 {
		w("target_link_libraries(%s %s %s)", name, scope, strings.Join(t.Links, " "))
	}

	if eff.Kind == config.KindExecutable {
		w("set_target_properties(%s PROPERTIES RUNTIME_OUTPUT_DIRECTORY ${CMAKE_SOURCE_DIR}/%s)", name, filepath.ToSlash(eff.BinDir))
	} else if eff.Kind != config.KindInterface {
		w("set_target_properties(%s PROPERTIES ARCHIVE_OUTPUT_DIRECTORY ${CMAKE_SOURCE_DIR}/%[2]s LIBRARY_OUTPUT_DIRECTORY ${CMAKE_SOURCE_DIR}/%[2]s)", name, filepath.ToSlash(eff.LibDir))
	}
	w("")
}

// emitPCH wires precompiled headers: the native command on generator
// releases that have it, per-style compiler flags on older ones.
func emitPCH(w func(string, ...any), eff *expand.Effective) {
	pch := eff.PCH
	targets := pch.OnlyForTargets
	if len(targets) == 0 {
		targets = targetNames(eff)
	}

	w("if(NOT CMAKE_VERSION VERSION_LESS 3.16)")
	for _, t := range targets {
		w("  target_precompile_headers(%s PRIVATE %s)", t, pch.Header)
		if pch.DisableUnityBuild {
			w("  set_target_properties(%s PROPERTIES UNITY_BUILD OFF)", t)
		}
	}
	for _, src := range pch.ExcludeSources {
		w("  set_source_files_properties(%s PROPERTIES SKIP_PRECOMPILE_HEADERS ON)", src)
	}
	w("else()")
	if eff.SlashStyle {
		stem := strings.TrimSuffix(filepath.Base(pch.Header), filepath.Ext(pch.Header))
		for _, t := range targets {
			w("  target_compile_options(%s PRIVATE /Yu%s /Fp${CMAKE_BINARY_DIR}/%s.pch)", t, pch.Header, stem)
		}
		if pch.Source != "" {
			w("  set_source_files_properties(%s PROPERTIES COMPILE_OPTIONS /Yc%s)", pch.Source, pch.Header)
		}
	} else {
		for _, t := range targets {
			w("  target_compile_options(%s PRIVATE -include %s)", t, pch.Header)
		}
	}
	w("endif()")
	w("")
}

func emitInstall(w func(string, ...any), eff *expand.Effective) {
	names := targetNames(eff)
	w("install(TARGETS %s", strings.Join(names, " "))
	w("  RUNTIME DESTINATION bin")
	w("  LIBRARY DESTINATION lib")
	w("  ARCHIVE DESTINATION lib)")
	if eff.Kind != config.KindExecutable {
		w("install(DIRECTORY include/ DESTINATION include)")
	}
}

func upper(s string) string {
	return strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(s))
}
