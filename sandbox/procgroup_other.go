//go:build !unix

package sandbox

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		return cmd.Process.Kill()
	}
}

// killProcessGroup is a no-op here: without process groups only the leader
// can be signalled, and it has already exited
func killProcessGroup(*exec.Cmd) {}
