package analysis

import (
	"errors"
	"fmt"

	"github.com/dshills/diffsense/internal/gitctx"
	"github.com/dshills/diffsense/internal/runner"
)

// Kind classifies an analysis failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindBusy
	KindNoDiffSource
	KindEmptyDiff
	KindToolUnavailable
	KindProcessFailed
	KindSpawnFailed
	KindCancelled
)

var kindNames = map[Kind]string{
	KindUnknown:         "unknown",
	KindBusy:            "busy",
	KindNoDiffSource:    "no-diff-source",
	KindEmptyDiff:       "empty-diff",
	KindToolUnavailable: "tool-unavailable",
	KindProcessFailed:   "process-failed",
	KindSpawnFailed:     "spawn-failed",
	KindCancelled:       "cancelled",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Silent reports whether the failure must not be surfaced at all.
func (k Kind) Silent() bool { return k == KindCancelled }

// Notice reports whether the failure is informational rather than an error.
func (k Kind) Notice() bool { return k == KindBusy || k == KindEmptyDiff }

// Retryable reports whether offering a retry makes sense.
func (k Kind) Retryable() bool {
	switch k {
	case KindToolUnavailable, KindProcessFailed, KindSpawnFailed, KindUnknown:
		return true
	}
	return false
}

var (
	ErrBusy            = runner.ErrBusy
	ErrCancelled       = runner.ErrCancelled
	ErrToolUnavailable = runner.ErrToolUnavailable

	// ErrNoDiffSource is returned when the working directory cannot supply a
	// diff, typically because it is not a git repository.
	ErrNoDiffSource = errors.New("no diff source")

	// ErrEmptyDiff marks a source without changes.
	ErrEmptyDiff = errors.New("no changes to analyze")
)

// NoChangesError reports an empty diff for a source. It matches ErrEmptyDiff.
type NoChangesError struct {
	Source gitctx.Source
}

func (e *NoChangesError) Error() string {
	switch e.Source.Mode {
	case gitctx.ModeStaged:
		return "No staged changes to analyze."
	case gitctx.ModeFile:
		return fmt.Sprintf("No changes in %s to analyze.", e.Source.Path)
	default:
		return "No changes to analyze."
	}
}

func (e *NoChangesError) Is(target error) bool { return target == ErrEmptyDiff }

// Classify maps err onto a Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var spawnErr *runner.SpawnError
	var exitErr *runner.ExitError
	switch {
	case errors.Is(err, ErrCancelled):
		return KindCancelled
	case errors.Is(err, ErrBusy):
		return KindBusy
	case errors.Is(err, ErrNoDiffSource), errors.Is(err, gitctx.ErrNotRepository):
		return KindNoDiffSource
	case errors.Is(err, ErrEmptyDiff):
		return KindEmptyDiff
	case errors.As(err, &spawnErr):
		return KindSpawnFailed
	case errors.Is(err, ErrToolUnavailable):
		return KindToolUnavailable
	case errors.As(err, &exitErr), errors.Is(err, runner.ErrTimeout):
		return KindProcessFailed
	default:
		return KindUnknown
	}
}

// Hint returns actionable guidance for a failure kind, or "".
func Hint(k Kind) string {
	switch k {
	case KindToolUnavailable:
		return "Install the analysis tool and make sure it is on PATH: " + runner.InstallGuideURL
	case KindNoDiffSource:
		return "Run diffsense inside a git working tree."
	case KindBusy:
		return "Wait for the running analysis to finish."
	case KindSpawnFailed:
		return "Check the configured command and its permissions."
	}
	return ""
}
