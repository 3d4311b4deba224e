// Package errs defines the error taxonomy shared by every cbuild
// subsystem and the mapping from errors to process exit codes.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Process exit codes.
const (
	ExitOK        = 0
	ExitUsage     = 1 // bad config, missing project, bad arguments
	ExitCycle     = 2
	ExitTool      = 3
	ExitBuild     = 4
	ExitCancelled = 5
	ExitInternal  = 10
)

// Cancelled reports a user interrupt. It aborts the remaining plan.
var Cancelled = errors.New("cancelled by user")

// ConfigError reports a schema or invariant violation in a
// configuration document.
type ConfigError struct {
	Path   string // file the error was found in, may be empty
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config %s: %s", e.Path, e.Reason)
	}
	return "config: " + e.Reason
}

// CycleError reports a dependency cycle. Cycle holds the offending
// path; its first and last elements are the same project.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return "dependency cycle: " + strings.Join(e.Cycle, " -> ")
}

// ToolMissing reports that a required external tool is not available.
type ToolMissing struct {
	Tool string
	Hint string
}

func (e *ToolMissing) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("required tool %q not found (%s)", e.Tool, e.Hint)
	}
	return fmt.Sprintf("required tool %q not found", e.Tool)
}

// ResolveError reports a dependency that could not be located, either
// in the workspace or on the host system.
type ResolveError struct {
	Name  string
	Scope string // "workspace", "system", "git", "vendored"
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("cannot resolve %s dependency %q", e.Scope, e.Name)
}

// ChildProcessError reports a failed child process together with the
// tail of its stderr for diagnosis.
type ChildProcessError struct {
	Cmd        string
	ExitCode   int
	StderrTail []string
}

func (e *ChildProcessError) Error() string {
	return fmt.Sprintf("%s exited with code %d", e.Cmd, e.ExitCode)
}

// Detail returns the captured stderr tail, one line per entry.
func (e *ChildProcessError) Detail() string {
	return strings.Join(e.StderrTail, "\n")
}

// Timeout reports an operation that exceeded its deadline.
type Timeout struct {
	Op      string
	Seconds int
	Hint    string
}

func (e *Timeout) Error() string {
	return fmt.Sprintf("%s timed out after %ds", e.Op, e.Seconds)
}

// Aggregate summarizes a multi-project run with per-project failures.
type Aggregate struct {
	Total  int
	Failed []string
}

func (e *Aggregate) Error() string {
	return fmt.Sprintf("%d of %d projects failed: %s",
		len(e.Failed), e.Total, strings.Join(e.Failed, ", "))
}

// ExitCode maps an error to the exit code contract. A nil error maps
// to ExitOK; unknown error types map to ExitInternal.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var (
		cfg   *ConfigError
		cyc   *CycleError
		tool  *ToolMissing
		res   *ResolveError
		child *ChildProcessError
		tmo   *Timeout
		agg   *Aggregate
	)
	switch {
	case errors.Is(err, Cancelled):
		return ExitCancelled
	case errors.As(err, &cyc):
		return ExitCycle
	case errors.As(err, &tool):
		return ExitTool
	case errors.As(err, &tmo):
		return ExitTool
	case errors.As(err, &child), errors.As(err, &agg):
		return ExitBuild
	case errors.As(err, &cfg), errors.As(err, &res):
		return ExitUsage
	}
	return ExitInternal
}
