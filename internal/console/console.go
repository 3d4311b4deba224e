// Package console is the terminal-renderer collaborator interface the
// orchestrator reports through. The default implementation is a plain
// text renderer; richer renderers implement the same interface.
package console

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Verbosity controls how much of the renderer output is shown.
type Verbosity int

const (
	Quiet Verbosity = iota
	Normal
	Verbose
)

// ParseVerbosity maps the CLI flag value to a Verbosity level.
func ParseVerbosity(s string) (Verbosity, error) {
	switch s {
	case "quiet":
		return Quiet, nil
	case "", "normal":
		return Normal, nil
	case "verbose":
		return Verbose, nil
	}
	return Normal, fmt.Errorf("unknown verbosity %q (want quiet, normal or verbose)", s)
}

// Renderer is the set of hooks the orchestrator calls. Quiet
// verbosity suppresses everything except warnings and errors.
type Renderer interface {
	Status(msg string)
	Step(action, target string)
	Substep(msg string)
	Success(msg, detail string)
	Warning(msg, hint string)
	Error(msg, hint string)

	// Spin opens a transient spinning context showing elapsed time.
	Spin(msg string) Spinner

	// Verbosity reports the active level so callers can gate
	// detail-only work.
	Verbosity() Verbosity

	// ChildOut and ChildErr are the sinks for streamed child-process
	// output.
	ChildOut() io.Writer
	ChildErr() io.Writer
}

// Spinner is a transient progress context. Update replaces the status
// string; Done and Fail close it.
type Spinner interface {
	Update(status string)
	Done()
	Fail(msg string)
}

// Text is a line-oriented Renderer writing to a single stream.
type Text struct {
	mu    sync.Mutex
	w     io.Writer
	level Verbosity
}

// NewText returns a plain text renderer at the given verbosity.
func NewText(w io.Writer, level Verbosity) *Text {
	return &Text{w: w, level: level}
}

func (t *Text) Verbosity() Verbosity { return t.level }

func (t *Text) printf(min Verbosity, format string, args ...any) {
	if t.level < min {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.w, format+"\n", args...)
}

func (t *Text) Status(msg string)          { t.printf(Normal, "%s", msg) }
func (t *Text) Step(action, target string) { t.printf(Normal, "==> %s %s", action, target) }
func (t *Text) Substep(msg string)         { t.printf(Normal, "  - %s", msg) }

func (t *Text) Success(msg, detail string) {
	if detail != "" && t.level >= Verbose {
		t.printf(Normal, "ok: %s (%s)", msg, detail)
		return
	}
	t.printf(Normal, "ok: %s", msg)
}

func (t *Text) Warning(msg, hint string) {
	if hint != "" {
		t.printf(Quiet, "warning: %s (%s)", msg, hint)
		return
	}
	t.printf(Quiet, "warning: %s", msg)
}

func (t *Text) Error(msg, hint string) {
	if hint != "" {
		t.printf(Quiet, "error: %s (%s)", msg, hint)
		return
	}
	t.printf(Quiet, "error: %s", msg)
}

func (t *Text) Spin(msg string) Spinner {
	if t.level >= Normal {
		t.Status(msg + "...")
	}
	return &textSpinner{t: t, msg: msg, start: time.Now()}
}

func (t *Text) ChildOut() io.Writer {
	if t.level >= Verbose {
		return t.w
	}
	return io.Discard
}

func (t *Text) ChildErr() io.Writer { return t.w }

type textSpinner struct {
	t     *Text
	msg   string
	start time.Time
}

func (s *textSpinner) Update(status string) {
	s.t.printf(Verbose, "  %s: %s", s.msg, status)
}

func (s *textSpinner) Done() {
	s.t.printf(Normal, "ok: %s (%.1fs)", s.msg, time.Since(s.start).Seconds())
}

func (s *textSpinner) Fail(msg string) {
	s.t.Error(s.msg+" failed", msg)
}
