package markup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func texts(doc []line) []string {
	out := make([]string, len(doc))
	for i, l := range doc {
		out[i] = l.text
	}
	return out
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "a &amp;&lt;&gt; b", escape("a &<> b"))
	assert.Equal(t, "x\ny", escape("x\r\ny"))
	assert.Equal(t, `"quoted" 'single'`, escape(`"quoted" 'single'`))
}

func TestFences(t *testing.T) {
	doc := fences(splitLines("a\n```\n  code  \n```\nb"))
	require.Len(t, doc, 3)
	assert.Equal(t, "a", doc[0].text)
	assert.True(t, doc[1].opaque)
	assert.Equal(t, "<pre><code>code</code></pre>", doc[1].text)
	assert.Equal(t, "b", doc[2].text)
}

func TestFences_SingleLine(t *testing.T) {
	doc := fences(splitLines("```x := 1```"))
	require.Len(t, doc, 1)
	assert.True(t, doc[0].opaque)
	assert.Equal(t, "<pre><code>x := 1</code></pre>", doc[0].text)
}

func TestFences_RejectsUnsafeLanguage(t *testing.T) {
	doc := fences(splitLines("```a\"b\ncode\n```"))
	require.Len(t, doc, 1)
	assert.Equal(t, "<pre><code>code</code></pre>", doc[0].text)
}

func TestHeadings(t *testing.T) {
	doc := headings(splitLines("# one\n## two\n### three\n#### four\n##### five\n#none"))
	assert.Equal(t, []string{
		"<h1>one</h1>",
		"<h2>two</h2>",
		"<h3>three</h3>",
		"<h4>four</h4>",
		"##### five",
		"#none",
	}, texts(doc))
}

func TestHeadings_SkipsOpaque(t *testing.T) {
	doc := []line{{text: "# inside", opaque: true}}
	assert.Equal(t, "# inside", headings(doc)[0].text)
}

func TestExtractCodeSpans(t *testing.T) {
	tests := []struct {
		in        string
		wantText  string
		wantSpans []string
	}{
		{"plain", "plain", nil},
		{"a `b` c", "a \x000\x00 c", []string{"b"}},
		{"`x` and `y`", "\x000\x00 and \x001\x00", []string{"x", "y"}},
		{"empty `` pair", "empty `` pair", nil},
		{"lonely ` tick", "lonely ` tick", nil},
		{"``a`", "`\x000\x00", []string{"a"}},
	}
	for _, tt := range tests {
		text, spans := extractCodeSpans(tt.in)
		assert.Equal(t, tt.wantText, text, tt.in)
		assert.Equal(t, tt.wantSpans, spans, tt.in)
	}
}

func TestFormatInline(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"**a `b` c**", "<strong>a <code>b</code> c</strong>"},
		{"`a*b*c`", "<code>a*b*c</code>"},
		{"***x*** and **y** and *z*", "<strong><em>x</em></strong> and <strong>y</strong> and <em>z</em>"},
		{"2 * 3 = 6", "2 * 3 = 6"},
		{"*a* *b* *c", "<em>a</em> <em>b</em> *c"},
		{"****", "****"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatInline(tt.in), tt.in)
	}
}

func TestInline_ListMarkerIsNotEmphasis(t *testing.T) {
	doc := inline(splitLines("* item with *stress*"))
	assert.Equal(t, "* item with <em>stress</em>", doc[0].text)
}

func TestLists(t *testing.T) {
	doc := lists(splitLines("intro\n- a\n- b\ntext\n  * c\n  * d\n    + e"))
	assert.Equal(t, []string{
		"intro",
		"<ul><li>a</li><li>b</li></ul>",
		"text",
		"<ul><li>c</li><li>d</li></ul>",
		"<ul><li>e</li></ul>",
	}, texts(doc))
}

func TestLists_MarkerWithoutTextIsNotAList(t *testing.T) {
	doc := lists(splitLines("-\nnext"))
	assert.Equal(t, []string{"-", "next"}, texts(doc))
}

func TestParagraphs(t *testing.T) {
	doc := []line{
		{text: "one"},
		{text: ""},
		{text: ""},
		{text: "two"},
		{text: "   "},
		{text: "three"},
		{text: ""},
		{text: "<ul><li>x</li></ul>"},
	}
	assert.Equal(t, "<p>one</p>\n\n<p>two</p>\n\n<p>three</p>\n\n<ul><li>x</li></ul>", paragraphs(doc))
}

func TestParagraphs_BlankLineInsideBlock(t *testing.T) {
	doc := splitLines("a\n  \nb\nc")
	assert.Equal(t, "<p>a</p>\n\n<p>b</p>\n<p>c</p>", paragraphs(doc))
}
