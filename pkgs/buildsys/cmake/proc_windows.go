//go:build windows

package cmake

import (
	"os/exec"
	"time"
)

// setProcAttrs relies on exec's default Kill on Windows; there is no
// portable way to interrupt a whole console process group from here.
func setProcAttrs(cmd *exec.Cmd) {
	cmd.WaitDelay = 10 * time.Second
}
