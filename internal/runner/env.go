package runner

import (
	"os"
	"path/filepath"
	"strings"
)

// cleanTmpDir returns a dedicated temp directory for child processes so that
// editor sockets left in the shared TMPDIR are not visible to the tool.
func cleanTmpDir() string {
	dir := filepath.Join(os.TempDir(), "diffsense-runner")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ""
	}
	return dir
}

// childEnv copies the current environment, overriding TMPDIR when tmpDir is
// set and appending extra entries last so they win.
func childEnv(tmpDir string, extra []string) []string {
	env := os.Environ()
	if tmpDir != "" {
		found := false
		for i, kv := range env {
			if strings.HasPrefix(kv, "TMPDIR=") {
				env[i] = "TMPDIR=" + tmpDir
				found = true
				break
			}
		}
		if !found {
			env = append(env, "TMPDIR="+tmpDir)
		}
	}
	return append(env, extra...)
}
