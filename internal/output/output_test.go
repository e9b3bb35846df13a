package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/diffsense/internal/analysis"
	"github.com/dshills/diffsense/internal/gitctx"
	"github.com/dshills/diffsense/internal/runner"
)

func testResult() *analysis.Result {
	return &analysis.Result{
		ID:         "a1b2c3",
		Tool:       "claude",
		Response:   "## Summary\n\nUpdated `main.go` and <script>alert(1)</script>.\n\n- one\n- two",
		Timestamp:  time.Date(2025, 3, 14, 15, 9, 26, 0, time.Local),
		DiffLength: 12345,
		Source:     gitctx.Source{Mode: gitctx.ModeStaged},
		Repo:       analysis.RepoInfo{Root: "/repo", Head: "abc", Branch: "main"},
		Files:      []string{"main.go"},
		References: []analysis.Reference{{Path: "main.go", InDiff: true}, {Path: "util.go"}},
		Timing:     analysis.Timing{GitMs: 5, ToolMs: 1200, TotalMs: 1210},
	}
}

func TestGetWriter(t *testing.T) {
	tests := []struct {
		format  string
		want    any
		wantErr bool
	}{
		{"", &TerminalWriter{}, false},
		{"terminal", &TerminalWriter{}, false},
		{"TEXT", &TerminalWriter{}, false},
		{"markdown", &MarkdownWriter{}, false},
		{"md", &MarkdownWriter{}, false},
		{"html", &HTMLWriter{}, false},
		{"json", &JSONWriter{}, false},
		{"sarif", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			w, err := GetWriter(tt.format)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unsupported output format")
				return
			}
			require.NoError(t, err)
			assert.IsType(t, tt.want, w)
		})
	}
}

func TestGroupDigits(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{12345, "12,345"},
		{1234567, "1,234,567"},
		{-4200, "-4,200"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, GroupDigits(tt.n), "GroupDigits(%d)", tt.n)
	}
}

func TestMarkdownWriter(t *testing.T) {
	res := testResult()
	res.Cached = true
	res.Truncated = true

	var buf bytes.Buffer
	require.NoError(t, (&MarkdownWriter{}).Write(&buf, res))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "## Summary"))
	assert.Contains(t, out, "12,345 characters of staged changes on main analyzed by `claude`")
	assert.Contains(t, out, "(cached)")
	assert.Contains(t, out, "truncated")
}

func TestJSONWriter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONWriter{}).Write(&buf, testResult()))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "a1b2c3", decoded["id"])
	assert.Equal(t, float64(12345), decoded["diffLength"])
	source := decoded["source"].(map[string]any)
	assert.Equal(t, "staged", source["mode"])
}

func TestJSONWriter_NoHTMLEscaping(t *testing.T) {
	res := testResult()
	res.Response = "use `a < b && c > d`"
	var buf bytes.Buffer
	require.NoError(t, (&JSONWriter{}).Write(&buf, res))
	assert.Contains(t, buf.String(), "a < b && c > d")
	assert.NotContains(t, buf.String(), `\u003c`)
}

func TestTerminalWriter_Plain(t *testing.T) {
	off := false
	var buf bytes.Buffer
	require.NoError(t, (&TerminalWriter{Width: 80, Color: &off}).Write(&buf, testResult()))
	out := buf.String()

	assert.Contains(t, out, "diffsense: staged changes on main")
	assert.Contains(t, out, "12,345 characters analyzed")
	assert.Contains(t, out, "Summary")
	assert.Contains(t, out, "Referenced files: main.go, util.go")
	assert.NotContains(t, out, "\x1b[", "plain output must not carry ANSI escapes")
}

func TestHTMLWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &HTMLWriter{IconURI: "data:image/png;base64,AAAA"}
	require.NoError(t, w.Write(&buf, testResult()))
	out := buf.String()

	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, `<img src="data:image/png;base64,AAAA"`)
	assert.NotContains(t, out, "/api/message", "standalone pages have no host script")
	assert.NotContains(t, out, "Re-run Analysis")
}

func TestWriteResult_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.md")
	var stdout bytes.Buffer
	require.NoError(t, WriteResult(&stdout, testResult(), "markdown", path))
	assert.Zero(t, stdout.Len(), "nothing goes to stdout when a path is given")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "## Summary")

	require.NoError(t, WriteResult(&stdout, testResult(), "json", ""))
	assert.Contains(t, stdout.String(), `"id": "a1b2c3"`)

	assert.Error(t, WriteResult(&stdout, testResult(), "bogus", path))
}

func TestResultPage(t *testing.T) {
	page := ResultPage(testResult(), PageOptions{Interactive: true})

	assert.Contains(t, page, "12,345 characters analyzed")
	assert.Contains(t, page, "<h2>Summary</h2>")
	assert.Contains(t, page, "<code>main.go</code>")
	assert.Contains(t, page, "&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.NotContains(t, page, "<script>alert(1)</script>")
	assert.Contains(t, page, "Powered by claude")
	assert.Contains(t, page, "/api/message")
	assert.Contains(t, page, "Re-run Analysis")
	assert.Contains(t, page, `["main.go","util.go"]`)
}

func TestResultPage_Notices(t *testing.T) {
	res := testResult()
	res.Truncated = true
	res.Redacted = 2
	res.Withheld = []string{".env"}
	res.Cached = true

	page := ResultPage(res, PageOptions{})
	assert.Contains(t, page, "truncated before analysis")
	assert.Contains(t, page, "2 secret(s) were redacted")
	assert.Contains(t, page, "Content of .env was withheld")
	assert.Contains(t, page, "cached response")
}

func TestResultPage_RejectsNonImageIcon(t *testing.T) {
	page := ResultPage(testResult(), PageOptions{IconURI: "javascript:alert(1)"})
	assert.NotContains(t, page, "javascript:alert(1)")
	assert.NotContains(t, page, "header-icon")
}

func TestLoadingPage(t *testing.T) {
	page := LoadingPage(gitctx.AllChanges, PageOptions{Tool: "claude", Interactive: true})
	assert.Contains(t, page, "Analyzing all changes with claude...")
	assert.Contains(t, page, "spinner")
	assert.Contains(t, page, "/api/state")

	page = LoadingPage(gitctx.Source{Mode: gitctx.ModeFile, Path: "a<b>.go"}, PageOptions{})
	assert.Contains(t, page, "Analyzing a&lt;b&gt;.go with Claude...")
}

func TestIdlePage(t *testing.T) {
	page := IdlePage(PageOptions{Interactive: true, Root: "/work/repo"})
	assert.Contains(t, page, "No analysis yet")
	assert.Contains(t, page, "/work/repo")
	assert.Contains(t, page, "Analyze Changes")
}

func TestErrorPage(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		heading     string
		contains    []string
		notContains []string
	}{
		{
			name:     "process failure escapes stderr",
			err:      &runner.ExitError{Code: 1, Stderr: "bad <input> & more"},
			heading:  "Analysis Failed",
			contains: []string{"bad &lt;input&gt; &amp; more", "Try Again"},
		},
		{
			name:     "empty diff",
			err:      &analysis.NoChangesError{Source: gitctx.Source{Mode: gitctx.ModeStaged}},
			heading:  "Nothing to Analyze",
			contains: []string{"No staged changes to analyze."},
		},
		{
			name:     "tool unavailable carries install hint",
			err:      fmt.Errorf("checking tool: %w", runner.ErrToolUnavailable),
			heading:  "Analysis Failed",
			contains: []string{runner.InstallGuideURL},
		},
		{
			name:     "busy",
			err:      analysis.ErrBusy,
			heading:  "Analysis in Progress",
			contains: []string{"Wait for the running analysis"},
		},
		{
			name:     "unknown",
			err:      errors.New("boom"),
			heading:  "Analysis Failed",
			contains: []string{"boom"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := ErrorPage(tt.err, PageOptions{Interactive: true})
			assert.Contains(t, page, "<h2>"+tt.heading+"</h2>")
			for _, s := range tt.contains {
				assert.Contains(t, page, s)
			}
		})
	}
}

func TestErrorPage_StaticHasNoRetry(t *testing.T) {
	page := ErrorPage(errors.New("boom"), PageOptions{})
	assert.NotContains(t, page, "Try Again")
}

func TestFilePage(t *testing.T) {
	page := FilePage("cmd/<x>.go", "package main\n\nfunc main() {}\n", PageOptions{})
	assert.Contains(t, page, "cmd/&lt;x&gt;.go")
	assert.Contains(t, page, "    1  package main")
	assert.Contains(t, page, "    3  func main() {}")
	assert.Contains(t, page, `href="/"`)

	empty := FilePage("empty.txt", "", PageOptions{})
	assert.Contains(t, empty, "The file is empty.")
}

func TestDiffPage(t *testing.T) {
	diff := "diff --git a/a.go b/a.go\n--- a/a.go\n+++ b/a.go\n@@ -1 +1 @@\n-old\n+new\n ctx\n"
	page := DiffPage("a.go", diff, PageOptions{})

	assert.Contains(t, page, "Diff: a.go")
	assert.Contains(t, page, `<span class="line-hunk">@@ -1 &#43;1 @@</span>`)
	assert.Contains(t, page, `<span class="line-del">-old</span>`)
	assert.Contains(t, page, `<span class="line-add">&#43;new</span>`)
	assert.Contains(t, page, `<span class="line-meta">&#43;&#43;&#43; b/a.go</span>`)

	none := DiffPage("a.go", "", PageOptions{})
	assert.Contains(t, none, "No changes in a.go.")
}

func TestDiffClass(t *testing.T) {
	tests := map[string]string{
		"+++ b/x":     "line-meta",
		"--- a/x":     "line-meta",
		"index 1..2":  "line-meta",
		"@@ -1 +1 @@": "line-hunk",
		"+added":      "line-add",
		"-removed":    "line-del",
		" context":    "",
	}
	for in, want := range tests {
		assert.Equal(t, want, diffClass(in), in)
	}
}
