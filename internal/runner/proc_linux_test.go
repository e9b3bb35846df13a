//go:build linux

package runner

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// alive reports whether pid names a process that has not terminated.
func alive(pid int) bool {
	data, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return false
	}
	// the state follows the parenthesised command name
	stat := string(data)
	i := strings.LastIndexByte(stat, ')')
	return i < 0 || i+2 >= len(stat) || stat[i+2] != 'Z'
}

func TestRun_CancelKillsDescendants(t *testing.T) {
	var (
		mu  sync.Mutex
		buf strings.Builder
	)
	r := shell("sleep 30 & echo $!; wait", func(o *Options) {
		o.OnChunk = func(p []byte) {
			mu.Lock()
			buf.Write(p)
			mu.Unlock()
		}
	})
	pid := func() int {
		mu.Lock()
		defer mu.Unlock()
		n, _ := strconv.Atoi(strings.TrimSpace(buf.String()))
		return n
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := r.Run(ctx, "")
		errc <- err
	}()

	waitUntil(t, func() bool { return pid() > 0 })
	child := pid()
	require.True(t, alive(child))

	cancel()
	assert.ErrorIs(t, <-errc, ErrCancelled)
	waitUntil(t, func() bool { return !alive(child) })
}
