package cli

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// progress shows a single status line on a terminal while the tool runs. On
// other writers it prints the label once.
type progress struct {
	mu      sync.Mutex
	w       io.Writer
	tty     bool
	quiet   bool
	active  bool
	label   string
	bytes   int
	started time.Time
}

func newProgress(w io.Writer, quiet bool) *progress {
	tty := false
	if f, ok := w.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &progress{w: w, tty: tty, quiet: quiet}
}

func (p *progress) Start(label string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.quiet {
		return
	}
	p.label = label
	p.bytes = 0
	p.started = time.Now()
	p.active = true
	if p.tty {
		fmt.Fprintf(p.w, "\r\x1b[K%s...", label)
		return
	}
	console.Info("%s...", label)
}

// Chunk is the runner's OnChunk callback.
func (p *progress) Chunk(b []byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bytes += len(b)
	if !p.active || !p.tty {
		return
	}
	fmt.Fprintf(p.w, "\r\x1b[K%s... %s received (%s)", p.label, formatBytes(p.bytes),
		time.Since(p.started).Round(time.Second))
}

// Done clears the status line.
func (p *progress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.active && p.tty {
		fmt.Fprint(p.w, "\r\x1b[K")
	}
	p.active = false
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
