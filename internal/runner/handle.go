package runner

import (
	"bytes"
	"errors"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// waitDelay bounds how long Wait keeps draining pipes after the child exits,
// e.g. when a grandchild still holds stdout open.
const waitDelay = 2 * time.Second

// handle owns one spawned process and its standard streams.
type handle struct {
	cmd    *exec.Cmd
	stdout *chunkWriter
	stderr *chunkWriter
	done   chan error
}

func newHandle(r *Runner, prompt string) *handle {
	cmd := exec.Command(r.command, r.args...)
	cmd.Dir = r.dir
	cmd.Env = childEnv(r.tmpDir, r.env)
	cmd.Stdin = strings.NewReader(prompt)
	cmd.WaitDelay = waitDelay
	isolate(cmd)

	h := &handle{
		cmd:    cmd,
		stdout: &chunkWriter{onChunk: r.onChunk},
		stderr: &chunkWriter{},
		done:   make(chan error, 1),
	}
	cmd.Stdout = h.stdout
	cmd.Stderr = h.stderr
	return h
}

func (h *handle) start() error {
	if err := h.cmd.Start(); err != nil {
		return err
	}
	go func() {
		h.done <- h.cmd.Wait()
	}()
	return nil
}

func (h *handle) pid() int {
	if h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

func (h *handle) kill() error {
	if h.cmd.Process == nil {
		return nil
	}
	return killTree(h.cmd)
}

// settle converts the Wait result into the run outcome. It must only be
// called after a value was received from done.
//
// A descendant that keeps stdout open makes Wait report exec.ErrWaitDelay
// even though the child itself exited; a zero exit still counts as success
// with whatever was written before the pipes were closed.
func (h *handle) settle(waitErr error) (string, error) {
	if waitErr == nil {
		return strings.TrimSpace(h.stdout.String()), nil
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return "", &ExitError{Code: exitErr.ExitCode(), Stderr: h.stderr.String()}
	}
	state := h.cmd.ProcessState
	if errors.Is(waitErr, exec.ErrWaitDelay) && state != nil && state.Success() {
		return strings.TrimSpace(h.stdout.String()), nil
	}
	code := -1
	if state != nil {
		code = state.ExitCode()
	}
	stderr := strings.TrimSpace(h.stderr.String())
	if stderr != "" {
		stderr += "\n"
	}
	return "", &ExitError{Code: code, Stderr: stderr + waitErr.Error()}
}

// chunkWriter accumulates output in arrival order and forwards each chunk to
// an optional observer.
type chunkWriter struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	onChunk func([]byte)
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	w.buf.Write(p)
	w.mu.Unlock()
	if w.onChunk != nil {
		w.onChunk(bytes.Clone(p))
	}
	return len(p), nil
}

func (w *chunkWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func (w *chunkWriter) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Len()
}
