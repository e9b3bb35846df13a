package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"

	"github.com/dshills/diffsense/internal/analysis"
)

const defaultWrap = 100

// TerminalWriter renders the response as styled markdown. Styling is only
// applied when the destination is a terminal.
type TerminalWriter struct {
	// Width is the word-wrap column; zero selects a default.
	Width int
	// Color forces ANSI styling on or off. Nil detects it from the writer.
	Color *bool
}

func (t *TerminalWriter) Write(w io.Writer, res *analysis.Result) error {
	color := isTerminal(w)
	if t.Color != nil {
		color = *t.Color
	}
	width := t.Width
	if width <= 0 {
		width = defaultWrap
	}

	rendered, err := renderTerminal(res.Response, color, width)
	if err != nil {
		return err
	}

	ew := &errWriter{w: w}
	rule := strings.Repeat("─", 60)
	ew.printf("diffsense: %s\n", sourceLabel(res))
	ew.printf("%s · %s characters analyzed", res.Timestamp.Local().Format(timestampLayout), GroupDigits(res.DiffLength))
	if res.Cached {
		ew.printf(" · cached")
	}
	ew.println("")
	ew.println(rule)
	ew.printf("%s\n", strings.TrimRight(rendered, "\n"))
	ew.println(rule)
	if len(res.References) > 0 {
		ew.printf("Referenced files: %s\n", strings.Join(res.ReferencePaths(), ", "))
	}
	ew.printf("Completed in %dms (git: %dms, tool: %dms)\n",
		res.Timing.TotalMs, res.Timing.GitMs, res.Timing.ToolMs)
	return ew.err
}

func renderTerminal(markdown string, color bool, width int) (string, error) {
	style := glamour.WithAutoStyle()
	if !color {
		style = glamour.WithStylePath("notty")
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return "", fmt.Errorf("creating terminal renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
