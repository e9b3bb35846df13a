//go:build unix

package runner

import (
	"os/exec"
	"syscall"
)

// isolate starts the child in its own process group so that kill reaches
// the helpers a wrapper script spawns.
func isolate(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killTree sends SIGKILL to the child's process group.
func killTree(cmd *exec.Cmd) error {
	pid := cmd.Process.Pid
	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil {
		return cmd.Process.Kill()
	}
	return nil
}
