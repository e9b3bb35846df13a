package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dshills/diffsense/internal/analysis"
)

// Formats lists the supported writer formats.
var Formats = []string{"terminal", "markdown", "html", "json"}

// Writer writes an analysis result in a specific format.
type Writer interface {
	Write(w io.Writer, res *analysis.Result) error
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string) (Writer, error) {
	switch strings.ToLower(format) {
	case "", "terminal", "text":
		return &TerminalWriter{}, nil
	case "markdown", "md":
		return &MarkdownWriter{}, nil
	case "html":
		return &HTMLWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// WriteResult writes the result to outPath, or to stdout when outPath is empty.
func WriteResult(stdout io.Writer, res *analysis.Result, format, outPath string) error {
	writer, err := GetWriter(format)
	if err != nil {
		return err
	}
	if outPath == "" {
		return writer.Write(stdout, res)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := writer.Write(f, res); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}

// GroupDigits formats n with thousands separators.
func GroupDigits(n int) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// sourceLabel describes what was analyzed, e.g. "staged changes on main".
func sourceLabel(res *analysis.Result) string {
	label := res.Source.String()
	if res.Repo.Branch != "" && res.Repo.Branch != "HEAD" {
		label += " on " + res.Repo.Branch
	}
	return label
}

const timestampLayout = "Jan 2, 2006 3:04:05 PM"
