package gen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cbuild-io/cbuild/internal/config"
	"github.com/cbuild-io/cbuild/internal/expand"
	"github.com/cbuild-io/cbuild/internal/toolchain"
)

func effective(t *testing.T, dir string, mutate func(*config.Project)) *expand.Effective {
	t.Helper()
	p := &config.Project{}
	p.Project.Name = "demo"
	p.Project.Kind = config.KindExecutable
	p.Project.Version = "1.2.3"
	p.Project.Standard = "c++17"
	p.Build.BuildDir = "build"
	p.Build.DefaultConfig = "Debug"
	p.Output.BinDir = "bin/${CONFIG}"
	p.Output.LibDir = "lib/${CONFIG}"
	if mutate != nil {
		mutate(p)
	}
	eff, err := expand.Compose(p, dir, expand.Request{Host: toolchain.Host{OS: "linux", Arch: "x64"}})
	if err != nil {
		t.Fatal(err)
	}
	return eff
}

func TestRenderExecutable(t *testing.T) {
	out := Render(effective(t, t.TempDir(), nil))

	for _, want := range []string{
		"cmake_minimum_required(VERSION 3.15)",
		"project(demo VERSION 1.2.3 LANGUAGES C CXX)",
		"set(CMAKE_CXX_STANDARD 17)",
		"add_executable(demo ${DEMO_SOURCES})",
		"RUNTIME_OUTPUT_DIRECTORY ${CMAKE_SOURCE_DIR}/bin/Debug",
		"install(TARGETS demo",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestRenderStaticLibrary(t *testing.T) {
	out := Render(effective(t, t.TempDir(), func(p *config.Project) {
		p.Project.Kind = config.KindStaticLibrary
	}))
	if !strings.Contains(out, "add_library(demo STATIC") {
		t.Errorf("want STATIC library, got:\n%s", out)
	}
	if !strings.Contains(out, "install(DIRECTORY include/ DESTINATION include)") {
		t.Errorf("library must install headers:\n%s", out)
	}
}

func TestRenderInterfaceLibrary(t *testing.T) {
	out := Render(effective(t, t.TempDir(), func(p *config.Project) {
		p.Project.Kind = config.KindInterface
	}))
	if !strings.Contains(out, "add_library(demo INTERFACE)") {
		t.Errorf("want INTERFACE library, got:\n%s", out)
	}
	if !strings.Contains(out, "target_include_directories(demo INTERFACE") {
		t.Errorf("interface scope expected:\n%s", out)
	}
}

func TestRenderTargetsSorted(t *testing.T) {
	out := Render(effective(t, t.TempDir(), func(p *config.Project) {
		p.Targets = map[string]config.Target{
			"zeta":  {Sources: []string{"src/z.cpp"}},
			"alpha": {Sources: []string{"src/a.cpp"}, Links: []string{"zeta"}},
		}
	}))
	if strings.Index(out, "add_executable(alpha") > strings.Index(out, "add_executable(zeta") {
		t.Errorf("targets must render in name order:\n%s", out)
	}
	if !strings.Contains(out, "target_link_libraries(alpha PUBLIC zeta)") {
		t.Errorf("links missing:\n%s", out)
	}
}

func TestRenderCStandard(t *testing.T) {
	out := Render(effective(t, t.TempDir(), func(p *config.Project) {
		p.Project.Language = "c"
		p.Project.Standard = "c11"
	}))
	if !strings.Contains(out, "project(demo VERSION 1.2.3 LANGUAGES C)") {
		t.Errorf("C project must not declare CXX:\n%s", out)
	}
	if !strings.Contains(out, "set(CMAKE_C_STANDARD 11)") {
		t.Errorf("C standard missing:\n%s", out)
	}
}

func TestRenderPCHNativeAndFallback(t *testing.T) {
	out := Render(effective(t, t.TempDir(), func(p *config.Project) {
		p.PCH = &config.PCH{Header: "src/pch.h", Source: "src/pch.cpp"}
	}))
	if !strings.Contains(out, "if(NOT CMAKE_VERSION VERSION_LESS 3.16)") {
		t.Errorf("version guard missing:\n%s", out)
	}
	if !strings.Contains(out, "target_precompile_headers(demo PRIVATE src/pch.h)") {
		t.Errorf("native pch missing:\n%s", out)
	}
	if !strings.Contains(out, "-include src/pch.h") {
		t.Errorf("dash-style fallback missing:\n%s", out)
	}
}

func TestRenderPCHSlashFallback(t *testing.T) {
	out := Render(effective(t, t.TempDir(), func(p *config.Project) {
		p.Build.Compiler = "msvc"
		p.PCH = &config.PCH{Header: "pch.h", Source: "pch.cpp"}
	}))
	if !strings.Contains(out, "/Yupch.h") {
		t.Errorf("use-pch flag missing:\n%s", out)
	}
	if !strings.Contains(out, "/Ycpch.h") {
		t.Errorf("create-pch flag missing:\n%s", out)
	}
}

func TestEmitWritesAndPreservesHandwritten(t *testing.T) {
	dir := t.TempDir()
	eff := effective(t, dir, nil)

	path, err := Emit(eff)
	if err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), marker) {
		t.Fatalf("generated file must carry the marker")
	}

	// Re-emit overwrites a generated file.
	if _, err := Emit(eff); err != nil {
		t.Fatal(err)
	}

	// A hand-written file is left alone.
	hand := filepath.Join(dir, ListsFile)
	if err := os.WriteFile(hand, []byte("project(custom)\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Emit(eff); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(hand)
	if string(data) != "project(custom)\n" {
		t.Errorf("hand-written lists file was overwritten:\n%s", data)
	}
}

func TestWritePackageConfig(t *testing.T) {
	dir := t.TempDir()
	eff := effective(t, dir, func(p *config.Project) {
		p.Project.Kind = config.KindStaticLibrary
	})
	path, err := WritePackageConfig(eff, []string{filepath.Join(dir, "lib", "libdemo.a")})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "demoConfig.cmake" {
		t.Errorf("unexpected stub name %s", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"DEMO_FOUND", "DEMO_INCLUDE_DIRS", "DEMO_LIBRARIES", "libdemo.a"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("missing %q in stub:\n%s", want, data)
		}
	}
}
