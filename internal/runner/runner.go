package runner

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// DefaultCommand is the analysis binary used when none is configured.
const DefaultCommand = "claude"

// DefaultArgs makes the default tool read its prompt from stdin and print.
var DefaultArgs = []string{"-p", "-"}

// Options configures a Runner.
type Options struct {
	// Command is the binary to execute. Defaults to DefaultCommand.
	Command string

	// Args are passed to Command. Nil selects DefaultArgs; an empty non-nil
	// slice passes no arguments.
	Args []string

	// Dir is the working directory of the child. Empty means the current one.
	Dir string

	// Env entries are appended to the inherited environment.
	Env []string

	// Timeout bounds a single run. Zero means no limit beyond the caller's
	// context.
	Timeout time.Duration

	// OnChunk receives every standard-output chunk as it arrives. It is
	// called from the copying goroutine and must not block for long.
	OnChunk func([]byte)

	// Logger receives diagnostics. Nil disables logging.
	Logger *zap.Logger
}

// Runner runs the analysis tool with single-flight semantics. The zero value
// is not usable; create one with New.
type Runner struct {
	command string
	args    []string
	dir     string
	env     []string
	tmpDir  string
	timeout time.Duration
	onChunk func([]byte)
	log     *zap.Logger

	sem *semaphore.Weighted
}

// New creates a Runner from opts.
func New(opts Options) *Runner {
	command := opts.Command
	if command == "" {
		command = DefaultCommand
	}
	args := opts.Args
	if args == nil {
		args = DefaultArgs
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		command: command,
		args:    append([]string(nil), args...),
		dir:     opts.Dir,
		env:     opts.Env,
		tmpDir:  cleanTmpDir(),
		timeout: opts.Timeout,
		onChunk: opts.OnChunk,
		log:     log.Named("runner"),
		sem:     semaphore.NewWeighted(1),
	}
}

// Command returns the configured binary.
func (r *Runner) Command() string { return r.command }

// Args returns a copy of the configured arguments.
func (r *Runner) Args() []string { return append([]string(nil), r.args...) }

// InProgress reports whether a run currently holds the single-flight slot.
func (r *Runner) InProgress() bool {
	if r.sem.TryAcquire(1) {
		r.sem.Release(1)
		return false
	}
	return true
}

// Run feeds prompt to a new process and returns its trimmed standard output.
//
// Errors: ErrBusy when another run is in flight, *SpawnError when the process
// cannot start, *ExitError on a non-zero exit, ErrCancelled when ctx is
// cancelled first and ErrTimeout when the configured timeout expires. Run
// returns exactly once; a process exit that arrives after cancellation was
// observed is discarded.
func (r *Runner) Run(ctx context.Context, prompt string) (string, error) {
	if !r.sem.TryAcquire(1) {
		return "", ErrBusy
	}
	defer r.sem.Release(1)

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return "", r.interrupted(err)
	}

	h := newHandle(r, prompt)
	start := time.Now()
	if err := h.start(); err != nil {
		r.log.Warn("spawn failed", zap.String("command", r.command), zap.Error(err))
		return "", &SpawnError{Command: r.command, Err: err}
	}
	r.log.Debug("process started",
		zap.String("command", r.command),
		zap.Strings("args", r.args),
		zap.Int("pid", h.pid()),
		zap.Int("promptBytes", len(prompt)))

	select {
	case waitErr := <-h.done:
		if err := ctx.Err(); err != nil {
			// cancellation was requested before the exit was processed
			return "", r.interrupted(err)
		}
		out, err := h.settle(waitErr)
		r.log.Debug("process exited",
			zap.Int("pid", h.pid()),
			zap.Duration("elapsed", time.Since(start)),
			zap.Int("stdoutBytes", h.stdout.Len()),
			zap.Int("stderrBytes", h.stderr.Len()),
			zap.Error(err))
		return out, err
	case <-ctx.Done():
		if err := h.kill(); err != nil {
			r.log.Debug("kill failed", zap.Int("pid", h.pid()), zap.Error(err))
		}
		r.log.Info("process killed", zap.Int("pid", h.pid()), zap.Duration("elapsed", time.Since(start)))
		return "", r.interrupted(ctx.Err())
	}
}

func (r *Runner) interrupted(ctxErr error) error {
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		if r.timeout == 0 {
			return ErrTimeout
		}
		return fmt.Errorf("%w after %s", ErrTimeout, r.timeout)
	}
	return ErrCancelled
}

// Check verifies the tool can be invoked by running it with --version and
// returns the reported version.
func (r *Runner) Check(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, r.command, "--version")
	cmd.Env = childEnv(r.tmpDir, r.env)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("%w: %s --version: %v (install guide: %s)", ErrToolUnavailable, r.command, err, InstallGuideURL)
	}
	return strings.TrimSpace(string(out)), nil
}
