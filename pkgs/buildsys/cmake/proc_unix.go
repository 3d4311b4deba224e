//go:build unix

package cmake

import (
	"os/exec"
	"time"

	"golang.org/x/sys/unix"
)

// setProcAttrs puts the child in its own process group so
// cancellation reaches the compiler processes CMake spawns, not just
// CMake itself. SIGINT first; the WaitDelay escalation to SIGKILL is
// handled by exec.
func setProcAttrs(cmd *exec.Cmd) {
	cmd.SysProcAttr = &unix.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return unix.Kill(-cmd.Process.Pid, unix.SIGINT)
	}
	cmd.WaitDelay = 10 * time.Second
}
