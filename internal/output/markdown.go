package output

import (
	"io"
	"strings"

	"github.com/dshills/diffsense/internal/analysis"
)

// MarkdownWriter outputs the raw response followed by a metadata footer.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, res *analysis.Result) error {
	ew := &errWriter{w: w}
	ew.println(strings.TrimRight(res.Response, "\n"))
	ew.printf("\n---\n\n")
	ew.printf("*%s characters of %s analyzed by `%s` on %s",
		GroupDigits(res.DiffLength), sourceLabel(res), res.Tool, res.Timestamp.Local().Format(timestampLayout))
	if res.Cached {
		ew.printf(" (cached)")
	}
	ew.printf("*\n")
	if res.Truncated {
		ew.println("\n> The diff exceeded the size limit and was truncated before analysis.")
	}
	if res.Redacted > 0 || len(res.Withheld) > 0 {
		ew.printf("\n> %d secret(s) redacted, %d file(s) withheld before analysis.\n", res.Redacted, len(res.Withheld))
	}
	return ew.err
}
