//go:build windows

package shell

import "os/exec"

func platformShell() (string, string) {
	return "cmd", "/C"
}

func configureProcessGroup(_ *exec.Cmd) {}
