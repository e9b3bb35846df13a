package analysis

import (
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dshills/diffsense/internal/gitctx"
)

// setupRepo creates a git repository with one committed file.
func setupRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	git(t, dir, "init")
	git(t, dir, "checkout", "-b", "main")
	writeFile(t, dir, "main.go", "package main\n\nfunc main() {}\n")
	git(t, dir, "add", "-A")
	git(t, dir, "commit", "-m", "init")
	return dir
}

func git(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test",
		"GIT_AUTHOR_EMAIL=test@test.com",
		"GIT_COMMITTER_NAME=test",
		"GIT_COMMITTER_EMAIL=test@test.com",
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// fakeTool writes an executable that answers --version and otherwise runs body.
func fakeTool(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-tool")
	script := "#!/bin/sh\nif [ \"$1\" = \"--version\" ]; then echo 'fake 1.0'; exit 0; fi\n" + body + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

// recorder captures observer callbacks.
type recorder struct {
	mu      sync.Mutex
	pending []gitctx.Source
	results []*Result
	errs    []error
}

func (r *recorder) observer() Observer {
	return Observer{
		OnPending: func(src gitctx.Source) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.pending = append(r.pending, src)
		},
		OnResult: func(res *Result) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.results = append(r.results, res)
		},
		OnError: func(err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errs = append(r.errs, err)
		},
	}
}

func (r *recorder) counts() (pending, results, errs int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending), len(r.results), len(r.errs)
}

// invocations counts the lines a fake tool appended to its log file.
func invocations(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	n := 0
	for _, b := range data {
		if b == '\n' {
			n++
		}
	}
	return n
}
