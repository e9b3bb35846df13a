package logging

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Console prints short user-facing notices. Color is enabled only when the
// writer is a terminal and NO_COLOR is unset.
type Console struct {
	mu    sync.Mutex
	w     io.Writer
	color bool
	quiet bool
}

// NewConsole creates a Console writing to w. A nil writer discards output.
func NewConsole(w io.Writer) *Console {
	if w == nil {
		w = io.Discard
	}
	return &Console{w: w, color: isTerminal(w)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetQuiet suppresses Info and Success messages.
func (c *Console) SetQuiet(quiet bool) {
	c.mu.Lock()
	c.quiet = quiet
	c.mu.Unlock()
}

// SetColor forces color on or off.
func (c *Console) SetColor(enabled bool) {
	c.mu.Lock()
	c.color = enabled
	c.mu.Unlock()
}

func (c *Console) Info(format string, args ...any) {
	c.print(true, color.FgCyan, "", format, args...)
}

func (c *Console) Success(format string, args ...any) {
	c.print(true, color.FgGreen, "✓ ", format, args...)
}

func (c *Console) Warn(format string, args ...any) {
	c.print(false, color.FgYellow, "warning: ", format, args...)
}

func (c *Console) Error(format string, args ...any) {
	c.print(false, color.FgRed, "error: ", format, args...)
}

// Hint prints dimmed follow-up guidance.
func (c *Console) Hint(format string, args ...any) {
	c.print(false, color.FgHiBlack, "  ", format, args...)
}

func (c *Console) print(optional bool, attr color.Attribute, prefix, format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if optional && c.quiet {
		return
	}
	msg := prefix + fmt.Sprintf(format, args...)
	if c.color {
		c2 := color.New(attr)
		c2.EnableColor()
		msg = c2.Sprint(msg)
	}
	fmt.Fprintln(c.w, msg)
}
