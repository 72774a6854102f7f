//go:build !windows

package shell

import (
	"os/exec"
	"syscall"
)

func platformShell() (string, string) {
	return "/bin/sh", "-c"
}

// configureProcessGroup puts the child in its own group so a timeout
// also kills anything the shell started.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
