package toolchain

import (
	"context"
	"errors"
	"testing"
)

func newTestProbe(available ...string) *Probe {
	p := NewProbe()
	p.lookPath = func(name string) (string, error) {
		return "", errors.New("not found")
	}
	for _, name := range available {
		p.Assume(name, true)
	}
	return p
}

func TestSlashStyle(t *testing.T) {
	cases := map[string]bool{
		"msvc":     true,
		"MSVC":     true,
		"cl":       true,
		"clang-cl": true,
		"clang":    false,
		"gcc":      false,
		"":         false,
	}
	for label, want := range cases {
		if got := SlashStyle(label); got != want {
			t.Errorf("SlashStyle(%q) = %v, want %v", label, got, want)
		}
	}
}

func TestDefaultCompiler(t *testing.T) {
	cases := map[string]string{
		"windows": "msvc",
		"darwin":  "clang",
		"linux":   "gcc",
	}
	for os, want := range cases {
		if got := DefaultCompiler(Host{OS: os}); got != want {
			t.Errorf("DefaultCompiler(%s) = %s, want %s", os, got, want)
		}
	}
}

func TestMapCompiler(t *testing.T) {
	cc, cxx, ok := MapCompiler("clang")
	if !ok || cc != "clang" || cxx != "clang++" {
		t.Errorf("MapCompiler(clang) = %s, %s, %v", cc, cxx, ok)
	}
	if _, _, ok := MapCompiler("tcc"); ok {
		t.Error("unknown label must not map")
	}
}

func TestGeneratorHints(t *testing.T) {
	ctx := context.Background()
	p := newTestProbe()

	cases := map[string]string{
		"vs2022":                "Visual Studio 17 2022",
		"VS2019":                "Visual Studio 16 2019",
		"vs":                    "Visual Studio 17 2022", // newest is the fallback
		"Visual Studio 15 2017": "Visual Studio 15 2017",
		"Ninja Multi-Config":    "Ninja Multi-Config",
	}
	for hint, want := range cases {
		if got := p.Generator(ctx, hint, Host{OS: "windows"}); got != want {
			t.Errorf("Generator(%q) = %q, want %q", hint, got, want)
		}
	}
}

func TestGeneratorDetectPrefersNinja(t *testing.T) {
	p := newTestProbe("ninja")
	if got := p.Generator(context.Background(), "", Host{OS: "linux"}); got != "Ninja" {
		t.Errorf("got %q, want Ninja", got)
	}
}

func TestGeneratorDetectFallbacks(t *testing.T) {
	ctx := context.Background()

	if got := newTestProbe().Generator(ctx, "default", Host{OS: "linux"}); got != "Unix Makefiles" {
		t.Errorf("linux fallback = %q", got)
	}
	if got := newTestProbe().Generator(ctx, "", Host{OS: "darwin"}); got != "Xcode" {
		t.Errorf("darwin fallback = %q", got)
	}
	if got := newTestProbe().Generator(ctx, "", Host{OS: "windows"}); got != "NMake Makefiles" {
		t.Errorf("windows without cl = %q", got)
	}
	if got := newTestProbe("cl").Generator(ctx, "", Host{OS: "windows"}); got != "Visual Studio 17 2022" {
		t.Errorf("windows with cl = %q", got)
	}
}

func TestProbeMemoizes(t *testing.T) {
	p := NewProbe()
	looked := 0
	p.lookPath = func(name string) (string, error) {
		looked++
		return "", errors.New("nope")
	}
	ctx := context.Background()
	p.Has(ctx, "cmake")
	p.Has(ctx, "cmake")
	if looked != 1 {
		t.Errorf("lookPath ran %d times, want 1", looked)
	}
}
