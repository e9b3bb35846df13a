//go:build !unix

package runner

import "os/exec"

func isolate(cmd *exec.Cmd) {}

func killTree(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}
