package markup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"whitespace only", "  \n \n", ""},
		{"heading h2", "## Impact Assessment", "<h2>Impact Assessment</h2>"},
		{"heading h1", "# Title", "<h1>Title</h1>"},
		{"heading h4", "#### Deep", "<h4>Deep</h4>"},
		{"five hashes is text", "##### Deeper", "<p>##### Deeper</p>"},
		{"hash without space is text", "#tag", "<p>#tag</p>"},
		{"single paragraph", "Hello world", "<p>Hello world</p>"},
		{"two paragraphs", "one\n\ntwo", "<p>one</p>\n\n<p>two</p>"},
		{"multi-line block keeps lines apart", "one\ntwo", "<p>one</p>\n<p>two</p>"},
		{"bold", "**Impact Level:** High", "<p><strong>Impact Level:</strong> High</p>"},
		{"italic", "an *important* note", "<p>an <em>important</em> note</p>"},
		{"bold italic", "***both***", "<p><strong><em>both</em></strong></p>"},
		{"inline code", "see `main.go`", "<p>see <code>main.go</code></p>"},
		{
			"list grouping boundary",
			"- A\n- B\n  - C",
			"<ul><li>A</li><li>B</li></ul>\n<ul><li>C</li></ul>",
		},
		{"star list", "* one\n* two", "<ul><li>one</li><li>two</li></ul>"},
		{"plus list", "+ one", "<ul><li>one</li></ul>"},
		{
			"fenced code",
			"```\nconst x = 1 < 2;\n```",
			"<pre><code>const x = 1 &lt; 2;</code></pre>",
		},
		{
			"fenced code with language",
			"```go\nfmt.Println(\"hi\")\n```",
			`<pre><code class="language-go">fmt.Println("hi")</code></pre>`,
		},
		{"escaping", "<script>alert(1)</script>", "<p>&lt;script&gt;alert(1)&lt;/script&gt;</p>"},
		{"ampersand", "a & b", "<p>a &amp; b</p>"},
		{"heading then text in one block", "## Summary\nText", "<h2>Summary</h2>\nText"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Render(tt.in))
		})
	}
}

func TestRender_NeverEmitsSourceAngleBrackets(t *testing.T) {
	inputs := []string{
		"<script>x</script>",
		"# <b>head</b>",
		"- <li>item</li>",
		"`<code>`",
		"```\n<pre>\n```",
		"**<em>**",
		"text <img src=x onerror=alert(1)>",
	}
	for _, in := range inputs {
		out := Render(in)
		assert.NotContains(t, out, "<script", in)
		assert.NotContains(t, out, "<b>", in)
		assert.NotContains(t, out, "<img", in)
		assert.Contains(t, out, "&lt;", in)
	}
}

func TestRender_FenceContentsAreOpaque(t *testing.T) {
	in := "```\n# not a heading\n- not a list\n**not bold** `not code`\n\nsecond half\n```"
	out := Render(in)

	assert.True(t, strings.HasPrefix(out, "<pre><code>"))
	assert.NotContains(t, out, "<h1>")
	assert.NotContains(t, out, "<ul>")
	assert.NotContains(t, out, "<strong>")
	assert.NotContains(t, out, "<p>")
	assert.Contains(t, out, "# not a heading\n- not a list")
	assert.Contains(t, out, "\n\nsecond half</code></pre>")
}

func TestRender_FenceSeparatesParagraphs(t *testing.T) {
	out := Render("Before:\n```\ncode\n```\nAfter")
	assert.Equal(t, "<p>Before:</p>\n\n<pre><code>code</code></pre>\n\n<p>After</p>", out)
}

func TestRender_UnclosedFenceIsText(t *testing.T) {
	out := Render("```\nstill text")
	assert.Equal(t, "<p>```</p>\n<p>still text</p>", out)
}

func TestRender_HeadingMatchesExactlyOneLevel(t *testing.T) {
	for level := 1; level <= 4; level++ {
		marker := strings.Repeat("#", level)
		out := Render("intro\n\n" + marker + " Title\n\noutro")
		assert.Equal(t, 1, strings.Count(out, "<h"), marker)
		assert.Contains(t, out, "<h"+string(rune('0'+level))+">Title</h"+string(rune('0'+level))+">")
	}
}

func TestRender_AnalysisLayout(t *testing.T) {
	in := strings.Join([]string{
		"## Summary",
		"",
		"Adds a *small* helper.",
		"",
		"## File Changes",
		"",
		"### `internal/runner/runner.go`",
		"",
		"**Key modifications:**",
		"- Adds `Run`",
		"- Adds **cancellation**",
		"",
		"**Potential issues:** None identified",
	}, "\n")

	want := strings.Join([]string{
		"<h2>Summary</h2>",
		"<p>Adds a <em>small</em> helper.</p>",
		"<h2>File Changes</h2>",
		"<h3><code>internal/runner/runner.go</code></h3>",
		"<p><strong>Key modifications:</strong></p>\n<ul><li>Adds <code>Run</code></li><li>Adds <strong>cancellation</strong></li></ul>",
		"<p><strong>Potential issues:</strong> None identified</p>",
	}, "\n\n")

	assert.Equal(t, want, Render(in))
}

func TestRender_Deterministic(t *testing.T) {
	in := "# A\n\n- x\n- y\n\n```\nz\n```"
	assert.Equal(t, Render(in), Render(in))
}
