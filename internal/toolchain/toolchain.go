// Package toolchain probes the host for compilers, generators and
// auxiliary tools, and maps compiler labels to driver conventions.
package toolchain

import (
	"context"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Host describes the build host in the vocabulary used by output
// token expansion: OS in {windows, darwin, linux}, Arch in
// {x64, x86, arm64}.
type Host struct {
	OS   string
	Arch string
}

// Detect returns the current host description.
func Detect() Host {
	h := Host{OS: runtime.GOOS, Arch: runtime.GOARCH}
	switch runtime.GOOS {
	case "windows", "darwin":
	default:
		h.OS = "linux"
	}
	switch runtime.GOARCH {
	case "amd64":
		h.Arch = "x64"
	case "386":
		h.Arch = "x86"
	default:
		h.Arch = "arm64"
	}
	return h
}

// DefaultProbeTimeout bounds each probe command so a misconfigured
// tool cannot hang the startup phase.
const DefaultProbeTimeout = 5 * time.Second

// Probe checks tool availability. Results are memoized; the cache is
// written during startup and read-only for the rest of the run.
type Probe struct {
	Timeout time.Duration

	mu   sync.Mutex
	seen map[string]bool

	// lookPath is swappable in tests.
	lookPath func(string) (string, error)
}

// NewProbe returns a Probe with the default timeout.
func NewProbe() *Probe {
	return &Probe{
		Timeout:  DefaultProbeTimeout,
		seen:     make(map[string]bool),
		lookPath: exec.LookPath,
	}
}

// Assume records a probe result without probing, for callers that
// already know whether a tool is present.
func (p *Probe) Assume(name string, ok bool) {
	p.mu.Lock()
	p.seen[name] = ok
	p.mu.Unlock()
}

// Has reports whether the named command exists and answers a version
// query within the probe timeout.
func (p *Probe) Has(ctx context.Context, name string) bool {
	p.mu.Lock()
	if ok, hit := p.seen[name]; hit {
		p.mu.Unlock()
		return ok
	}
	p.mu.Unlock()

	ok := p.check(ctx, name)

	p.mu.Lock()
	p.seen[name] = ok
	p.mu.Unlock()
	return ok
}

func (p *Probe) check(ctx context.Context, name string) bool {
	if _, err := p.lookPath(name); err != nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	// cl.exe has no --version; /? exits zero. Everything else in the
	// toolchain answers --version.
	arg := "--version"
	if name == "cl" || name == "nmake" {
		arg = "/?"
	}
	cmd := exec.CommandContext(ctx, name, arg)
	return cmd.Run() == nil
}

// SlashStyle reports whether the compiler label uses slash-style
// (MSVC driver) flags.
func SlashStyle(label string) bool {
	switch strings.ToLower(label) {
	case "msvc", "cl", "clang-cl":
		return true
	}
	return false
}

// DefaultCompiler picks the conventional compiler label for a host
// when the project does not set one.
func DefaultCompiler(h Host) string {
	switch h.OS {
	case "windows":
		return "msvc"
	case "darwin":
		return "clang"
	}
	return "gcc"
}

// MapCompiler maps a compiler label to the (cc, cxx) command pair the
// generator should be told about. Unknown labels return ok=false and
// are left for the generator to pick.
func MapCompiler(label string) (cc, cxx string, ok bool) {
	switch strings.ToLower(label) {
	case "gcc":
		return "gcc", "g++", true
	case "clang":
		return "clang", "clang++", true
	case "clang-cl":
		return "clang-cl", "clang-cl", true
	case "msvc", "cl":
		return "cl", "cl", true
	}
	return "", "", false
}

// CompilerCommand returns the command probed for a compiler label.
func CompilerCommand(label string) string {
	cc, _, ok := MapCompiler(label)
	if !ok {
		return label
	}
	return cc
}
