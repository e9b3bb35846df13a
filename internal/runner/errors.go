package runner

import (
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"strings"
)

// InstallGuideURL points users at installation instructions for the default tool.
const InstallGuideURL = "https://support.anthropic.com/en/articles/8979357-claude-command-line-tool"

var (
	// ErrBusy is returned when an analysis is already in flight.
	ErrBusy = errors.New("analysis already in progress")

	// ErrCancelled is returned when the caller cancelled the run.
	ErrCancelled = errors.New("analysis was cancelled")

	// ErrTimeout is returned when the configured run timeout expired.
	ErrTimeout = errors.New("analysis timed out")

	// ErrToolUnavailable marks failures to find or invoke the analysis binary.
	ErrToolUnavailable = errors.New("analysis tool is not available")
)

// ExitError reports a process that ran but exited with a non-zero code.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" {
		return fmt.Sprintf("analysis process exited with code %d", e.Code)
	}
	return fmt.Sprintf("analysis process exited with code %d: %s", e.Code, msg)
}

// SpawnError reports an operating-system failure to start the process.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("starting %s: %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrToolUnavailable) match a missing or
// non-executable binary.
func (e *SpawnError) Is(target error) bool {
	if target != ErrToolUnavailable {
		return false
	}
	return errors.Is(e.Err, exec.ErrNotFound) ||
		errors.Is(e.Err, fs.ErrNotExist) ||
		errors.Is(e.Err, fs.ErrPermission)
}
