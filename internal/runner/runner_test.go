package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// shell returns a runner executing script with /bin/sh.
func shell(script string, opts ...func(*Options)) *Runner {
	o := Options{Command: "/bin/sh", Args: []string{"-c", script}}
	for _, fn := range opts {
		fn(&o)
	}
	return New(o)
}

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRun_EchoesPromptTrimmed(t *testing.T) {
	r := shell("cat")
	out, err := r.Run(context.Background(), "  ## Summary\nall good\n\n")
	require.NoError(t, err)
	assert.Equal(t, "## Summary\nall good", out)
	assert.False(t, r.InProgress())
}

func TestRun_LargePrompt(t *testing.T) {
	prompt := strings.Repeat("x", 4<<20)
	out, err := shell("cat").Run(context.Background(), prompt)
	require.NoError(t, err)
	assert.Len(t, out, len(prompt))
}

func TestRun_NonZeroExitCarriesDiagnostics(t *testing.T) {
	_, err := shell("echo partial; echo boom >&2; exit 2").Run(context.Background(), "prompt")
	require.Error(t, err)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 2, exitErr.Code)
	assert.Contains(t, exitErr.Stderr, "boom")
	assert.Contains(t, err.Error(), "2")
	assert.Contains(t, err.Error(), "boom")
}

func TestRun_SpawnFailure(t *testing.T) {
	r := New(Options{Command: filepath.Join(t.TempDir(), "missing-tool")})
	_, err := r.Run(context.Background(), "prompt")
	require.Error(t, err)

	var spawnErr *SpawnError
	require.True(t, errors.As(err, &spawnErr))
	assert.ErrorIs(t, err, ErrToolUnavailable)
	assert.False(t, r.InProgress(), "guard must be released after a spawn failure")
}

func TestRun_StreamsChunks(t *testing.T) {
	var mu sync.Mutex
	var chunks []string
	r := shell("printf one; sleep 0.05; printf two; sleep 0.05; printf three", func(o *Options) {
		o.OnChunk = func(p []byte) {
			mu.Lock()
			chunks = append(chunks, string(p))
			mu.Unlock()
		}
	})

	out, err := r.Run(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "onetwothree", out)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, out, strings.Join(chunks, ""))
}

func TestRun_SingleFlight(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "spawned")
	r := shell("echo x >> " + marker + "; sleep 0.3; echo first")

	type result struct {
		out string
		err error
	}
	first := make(chan result, 1)
	go func() {
		out, err := r.Run(context.Background(), "")
		first <- result{out, err}
	}()
	waitUntil(t, r.InProgress)

	_, err := r.Run(context.Background(), "")
	assert.ErrorIs(t, err, ErrBusy)

	res := <-first
	require.NoError(t, res.err)
	assert.Equal(t, "first", res.out)

	data, err := os.ReadFile(marker)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "x"), "second call must not spawn")
	assert.False(t, r.InProgress())
}

func TestRun_CancelKillsProcess(t *testing.T) {
	r := shell("exec sleep 30")
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		for !r.InProgress() {
			time.Sleep(5 * time.Millisecond)
		}
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := r.Run(ctx, "")
	assert.ErrorIs(t, err, ErrCancelled)
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.False(t, r.InProgress(), "guard must be released after cancellation")
}

func TestRun_CancelledBeforeStart(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "spawned")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := shell("touch "+marker).Run(ctx, "")
	assert.ErrorIs(t, err, ErrCancelled)
	_, statErr := os.Stat(marker)
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_CancelRacingExitSettlesOnce(t *testing.T) {
	r := shell("echo done")
	for i := 0; i < 50; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		delay := time.Duration(i%10) * time.Millisecond
		go func() {
			time.Sleep(delay)
			cancel()
		}()

		out, err := r.Run(ctx, "")
		switch {
		case err == nil:
			assert.Equal(t, "done", out)
		case errors.Is(err, ErrCancelled):
			assert.Empty(t, out)
		default:
			t.Fatalf("unexpected error: %v", err)
		}
		cancel()
	}
	assert.False(t, r.InProgress())
}

func TestRun_Timeout(t *testing.T) {
	r := shell("exec sleep 30", func(o *Options) { o.Timeout = 100 * time.Millisecond })
	_, err := r.Run(context.Background(), "")
	assert.ErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, ErrCancelled)
}

func TestRun_DescendantHoldingStdout(t *testing.T) {
	// the background sleep inherits stdout and outlives the shell
	out, err := shell("(sleep 3 &) ; echo hi").Run(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "hi", out)

	_, err = shell("(sleep 3 &) ; echo oops; exit 5").Run(context.Background(), "prompt")
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 5, exitErr.Code)
}

func TestRun_ReusableAfterFailure(t *testing.T) {
	r := shell(`read line; [ "$line" = ok ] || exit 3; echo "$line"`)

	_, err := r.Run(context.Background(), "bad\n")
	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 3, exitErr.Code)

	out, err := r.Run(context.Background(), "ok\n")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	tool := filepath.Join(dir, "tool")
	require.NoError(t, os.WriteFile(tool, []byte("#!/bin/sh\necho 'tool 1.2.3'\n"), 0o755))

	version, err := New(Options{Command: tool}).Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tool 1.2.3", version)

	_, err = New(Options{Command: filepath.Join(dir, "nope")}).Check(context.Background())
	assert.ErrorIs(t, err, ErrToolUnavailable)
	assert.Contains(t, err.Error(), InstallGuideURL)
}

func TestNew_Defaults(t *testing.T) {
	r := New(Options{})
	assert.Equal(t, DefaultCommand, r.Command())
	assert.Equal(t, DefaultArgs, r.args)

	r = New(Options{Args: []string{}})
	assert.Empty(t, r.args)
}

func TestChildEnv(t *testing.T) {
	t.Setenv("TMPDIR", "/tmp/elsewhere")
	env := childEnv("/tmp/clean", []string{"EXTRA=1"})
	assert.Contains(t, env, "TMPDIR=/tmp/clean")
	assert.NotContains(t, env, "TMPDIR=/tmp/elsewhere")
	assert.Equal(t, "EXTRA=1", env[len(env)-1])
}
