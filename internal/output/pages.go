package output

import (
	"bytes"
	"fmt"
	"html"
	"html/template"
	"io"
	"strings"

	"github.com/dshills/diffsense/internal/analysis"
	"github.com/dshills/diffsense/internal/gitctx"
	"github.com/dshills/diffsense/internal/markup"
)

var pages = template.Must(template.New("pages").Parse(
	headTmpl + hostScriptTmpl + loadingTmpl + idleTmpl + resultTmpl + errorTmpl + viewTmpl,
))

// PageOptions controls how host pages are rendered.
type PageOptions struct {
	// Interactive enables the script that talks to the preview server.
	Interactive bool
	// IconURI is shown next to the result title, usually a data: URI.
	IconURI string
	// Tool is the name of the analysis command.
	Tool string
	// Root is the repository the host serves.
	Root string
}

func (o PageOptions) tool() string {
	if o.Tool == "" {
		return "Claude"
	}
	return o.Tool
}

type pageData struct {
	Title       string
	Interactive bool
	Tool        string
}

type resultData struct {
	pageData
	ID         string
	IconURI    template.URL
	Timestamp  string
	DiffLength string
	Source     string
	Cached     bool
	Truncated  bool
	Redacted   int
	Withheld   []string
	Body       template.HTML
	Refs       []string
	DiffRefs   []string
}

type errorData struct {
	pageData
	Heading string
	Message string
	Hint    string
	Notice  bool
}

type viewLine struct {
	Class string
	Text  string
}

type viewData struct {
	pageData
	Heading string
	Lines   []viewLine
	Empty   string
}

func (o PageOptions) base(title string) pageData {
	return pageData{Title: title, Interactive: o.Interactive, Tool: o.tool()}
}

// LoadingPage is shown while an analysis of src is running.
func LoadingPage(src gitctx.Source, opts PageOptions) string {
	return render("loading", struct {
		pageData
		Source string
	}{opts.base("Git Diff"), src.String()})
}

// IdlePage is shown before the first analysis.
func IdlePage(opts PageOptions) string {
	return render("idle", struct {
		pageData
		Root string
	}{opts.base("Git Diff"), opts.Root})
}

// ResultPage renders a finished analysis. The response markdown is converted
// with markup.Render; everything else is escaped by the template.
func ResultPage(res *analysis.Result, opts PageOptions) string {
	data := resultData{
		pageData:   opts.base("Git Diff"),
		ID:         res.ID,
		IconURI:    safeIcon(opts.IconURI),
		Timestamp:  res.Timestamp.Local().Format(timestampLayout),
		DiffLength: GroupDigits(res.DiffLength),
		Source:     sourceLabel(res),
		Cached:     res.Cached,
		Truncated:  res.Truncated,
		Redacted:   res.Redacted,
		Withheld:   res.Withheld,
		Body:       template.HTML(markup.Render(res.Response)),
		Refs:       []string{},
		DiffRefs:   []string{},
	}
	if res.Tool != "" {
		data.Tool = res.Tool
	}
	for _, ref := range res.References {
		data.Refs = append(data.Refs, ref.Path)
		if ref.InDiff {
			data.DiffRefs = append(data.DiffRefs, ref.Path)
		}
	}
	return render("result", data)
}

// ErrorPage renders a failed analysis. Empty diffs and busy notices get a
// softer heading than real failures.
func ErrorPage(err error, opts PageOptions) string {
	kind := analysis.Classify(err)
	heading := "Analysis Failed"
	switch kind {
	case analysis.KindEmptyDiff:
		heading = "Nothing to Analyze"
	case analysis.KindBusy:
		heading = "Analysis in Progress"
	}

	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}

	return render("error", errorData{
		pageData: opts.base(heading),
		Heading:  heading,
		Message:  msg,
		Hint:     analysis.Hint(kind),
		Notice:   kind.Notice(),
	})
}

// FilePage shows the current content of a repository file.
func FilePage(path, content string, opts PageOptions) string {
	lines := make([]viewLine, 0, strings.Count(content, "\n")+1)
	for i, l := range splitLines(content) {
		lines = append(lines, viewLine{Text: fmt.Sprintf("%5d  %s", i+1, l)})
	}
	return render("view", viewData{
		pageData: opts.base(path),
		Heading:  path,
		Lines:    lines,
		Empty:    "The file is empty.",
	})
}

// DiffPage shows the diff of a single file with per-line highlighting.
func DiffPage(path, diff string, opts PageOptions) string {
	var lines []viewLine
	for _, l := range splitLines(diff) {
		lines = append(lines, viewLine{Class: diffClass(l), Text: l})
	}
	return render("view", viewData{
		pageData: opts.base("Diff: " + path),
		Heading:  "Diff: " + path,
		Lines:    lines,
		Empty:    "No changes in " + path + ".",
	})
}

func diffClass(l string) string {
	switch {
	case strings.HasPrefix(l, "+++"), strings.HasPrefix(l, "---"),
		strings.HasPrefix(l, "diff --git"), strings.HasPrefix(l, "index "):
		return "line-meta"
	case strings.HasPrefix(l, "@@"):
		return "line-hunk"
	case strings.HasPrefix(l, "+"):
		return "line-add"
	case strings.HasPrefix(l, "-"):
		return "line-del"
	}
	return ""
}

func splitLines(s string) []string {
	s = strings.TrimRight(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// safeIcon only lets image data URIs through.
func safeIcon(uri string) template.URL {
	if strings.HasPrefix(uri, "data:image/") {
		return template.URL(uri)
	}
	return ""
}

func render(name string, data any) string {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		return "<!DOCTYPE html><html><body><pre>" + html.EscapeString(err.Error()) + "</pre></body></html>"
	}
	return buf.String()
}

// HTMLWriter writes a standalone result page without the host script.
type HTMLWriter struct {
	IconURI string
}

func (h *HTMLWriter) Write(w io.Writer, res *analysis.Result) error {
	_, err := io.WriteString(w, ResultPage(res, PageOptions{IconURI: h.IconURI}))
	return err
}
