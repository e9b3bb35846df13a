package markup

import (
	"fmt"
	"regexp"
	"strings"
)

const fenceMarker = "```"

var (
	headingPattern  = regexp.MustCompile(`^(#{1,4}) (.+)$`)
	listPattern     = regexp.MustCompile(`^(\s*)[-*+]\s+(.+)`)
	langPattern     = regexp.MustCompile(`^[\w+#.-]+$`)
	blockTagPattern = regexp.MustCompile(`^<(h[1-6]|ul|ol|pre|blockquote|div|p)`)
)

// fences collapses every closed triple-backtick block into a single opaque
// line. An opening fence without a matching close is left as plain text.
func fences(doc []line) []line {
	out := make([]line, 0, len(doc))
	for i := 0; i < len(doc); i++ {
		l := doc[i]
		trimmed := strings.TrimSpace(l.text)
		if l.opaque || !strings.HasPrefix(trimmed, fenceMarker) {
			out = append(out, l)
			continue
		}

		// ```code``` on a single line
		if len(trimmed) > 2*len(fenceMarker) && strings.HasSuffix(trimmed, fenceMarker) {
			body := trimmed[len(fenceMarker) : len(trimmed)-len(fenceMarker)]
			out = append(out, line{text: preBlock("", body), opaque: true})
			continue
		}

		end := -1
		for j := i + 1; j < len(doc); j++ {
			if strings.HasPrefix(strings.TrimSpace(doc[j].text), fenceMarker) {
				end = j
				break
			}
		}
		if end < 0 {
			out = append(out, doc[i:]...)
			break
		}

		body := make([]string, 0, end-i-1)
		for _, inner := range doc[i+1 : end] {
			body = append(body, inner.text)
		}
		info := strings.TrimSpace(strings.TrimPrefix(trimmed, fenceMarker))
		out = append(out, line{text: preBlock(info, strings.Join(body, "\n")), opaque: true})
		i = end
	}
	return out
}

func preBlock(info, body string) string {
	body = strings.TrimSpace(body)
	lang := ""
	if fields := strings.Fields(info); len(fields) > 0 && langPattern.MatchString(fields[0]) {
		lang = fields[0]
	}
	if lang == "" {
		return "<pre><code>" + body + "</code></pre>"
	}
	return fmt.Sprintf(`<pre><code class="language-%s">%s</code></pre>`, lang, body)
}

// headings turns "#" through "####" lines into heading tags. The patterns are
// mutually exclusive by marker count, so each line matches at most one level.
func headings(doc []line) []line {
	for i, l := range doc {
		if l.opaque {
			continue
		}
		m := headingPattern.FindStringSubmatch(l.text)
		if m == nil {
			continue
		}
		level := len(m[1])
		doc[i].text = fmt.Sprintf("<h%d>%s</h%d>", level, m[2], level)
	}
	return doc
}

// lists groups consecutive bullet lines with identical indentation into one
// <ul>. Any change in indentation ends the run; there is no nesting.
func lists(doc []line) []line {
	out := make([]line, 0, len(doc))
	for i := 0; i < len(doc); {
		m := matchList(doc[i])
		if m == nil {
			out = append(out, doc[i])
			i++
			continue
		}

		indent := len(m[1])
		var b strings.Builder
		b.WriteString("<ul>")
		for i < len(doc) {
			item := matchList(doc[i])
			if item == nil || len(item[1]) != indent {
				break
			}
			b.WriteString("<li>")
			b.WriteString(item[2])
			b.WriteString("</li>")
			i++
		}
		b.WriteString("</ul>")
		out = append(out, line{text: b.String()})
	}
	return out
}

func matchList(l line) []string {
	if l.opaque {
		return nil
	}
	return listPattern.FindStringSubmatch(l.text)
}

// paragraphs splits the document into blank-line separated blocks and wraps
// the ones that are not already block markup. Opaque lines always form a
// block of their own.
func paragraphs(doc []line) string {
	var blocks []string
	var current []string
	flush := func() {
		if len(current) == 0 {
			return
		}
		if block := wrapBlock(current); block != "" {
			blocks = append(blocks, block)
		}
		current = nil
	}

	for _, l := range doc {
		switch {
		case l.opaque:
			flush()
			blocks = append(blocks, l.text)
		case l.text == "":
			flush()
		default:
			current = append(current, l.text)
		}
	}
	flush()

	return strings.Join(blocks, "\n\n")
}

// wrapBlock wraps a single block. Multi-line blocks get one paragraph per
// source line rather than a merged paragraph; lines that already are block
// markup are kept as they are.
func wrapBlock(lines []string) string {
	block := strings.TrimSpace(strings.Join(lines, "\n"))
	if block == "" {
		return ""
	}
	if blockTagPattern.MatchString(block) {
		return block
	}

	parts := strings.Split(block, "\n")
	if len(parts) == 1 {
		return "<p>" + block + "</p>"
	}
	for i, p := range parts {
		switch {
		case strings.TrimSpace(p) == "":
			parts[i] = ""
		case blockTagPattern.MatchString(p):
			// a list that directly follows a text line
		default:
			parts[i] = "<p>" + p + "</p>"
		}
	}
	return strings.Join(parts, "\n")
}
