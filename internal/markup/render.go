package markup

import "strings"

// line is one entry of the document the stages operate on. Opaque lines hold
// finished block markup (a whole fenced code block) and are skipped by every
// later stage.
type line struct {
	text   string
	opaque bool
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Render converts markdown into block markup. Empty input yields empty output.
func Render(markdown string) string {
	if markdown == "" {
		return ""
	}
	doc := splitLines(escape(markdown))
	doc = fences(doc)
	doc = headings(doc)
	doc = inline(doc)
	doc = lists(doc)
	return paragraphs(doc)
}

// escape replaces the three HTML metacharacters. It runs exactly once, before
// any markup is produced. CRLF line endings are normalized and NUL bytes are
// dropped because the inline stage uses them for placeholders.
func escape(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\x00", "")
	return htmlEscaper.Replace(s)
}

func splitLines(s string) []line {
	parts := strings.Split(s, "\n")
	doc := make([]line, len(parts))
	for i, p := range parts {
		doc[i] = line{text: p}
	}
	return doc
}
