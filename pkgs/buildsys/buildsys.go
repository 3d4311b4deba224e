package buildsys

import (
	"context"
	"io"
)

// Driver captures the lifecycle of a backing build system (CMake
// today; the interface keeps the door open). Implementations stream
// child output to the writers set via Output and honor context
// cancellation by terminating the whole child process group.
type Driver interface {
	// Basic paths.
	Source(dir string)
	Build(dir string)
	InstallDir(dir string)

	// Environment overlay for every child process.
	Env(key, val string)

	// Output destinations for child stdout and stderr.
	Output(stdout, stderr io.Writer)

	// Lifecycle.
	Configure(ctx context.Context, args ...string) error
	Compile(ctx context.Context, args ...string) error
	Test(ctx context.Context, args ...string) error
	Install(ctx context.Context, args ...string) error

	// Where artifacts land.
	OutputDir() string
}

// Params is the per-project driver setup a Factory receives.
type Params struct {
	SourceDir  string
	BuildDir   string
	InstallDir string
	Generator  string
	BuildType  string
}

// Factory creates a fresh driver per project build. Orchestration
// code takes a Factory so tests can substitute a fake.
type Factory func(p Params) Driver
