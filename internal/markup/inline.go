package markup

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	strongEmPattern    = regexp.MustCompile(`\*\*\*(.+?)\*\*\*`)
	strongPattern      = regexp.MustCompile(`\*\*(.+?)\*\*`)
	listMarkerPattern  = regexp.MustCompile(`^\s*[-*+]\s+`)
	placeholderPattern = regexp.MustCompile("\x00([0-9]+)\x00")
)

// inline applies code spans and emphasis to every plain line. A leading list
// marker is kept out of emphasis matching so "* item" stays a list line.
func inline(doc []line) []line {
	for i, l := range doc {
		if l.opaque {
			continue
		}
		prefix := ""
		if listPattern.MatchString(l.text) {
			prefix = listMarkerPattern.FindString(l.text)
		}
		doc[i].text = prefix + formatInline(l.text[len(prefix):])
	}
	return doc
}

// formatInline converts `code` spans first and hides them behind placeholders
// so that emphasis never matches inside a code span, then applies emphasis
// from the most to the least specific marker.
func formatInline(s string) string {
	s, spans := extractCodeSpans(s)
	s = strongEmPattern.ReplaceAllString(s, "<strong><em>$1</em></strong>")
	s = strongPattern.ReplaceAllString(s, "<strong>$1</strong>")
	s = emphasize(s)
	if len(spans) == 0 {
		return s
	}
	return placeholderPattern.ReplaceAllStringFunc(s, func(p string) string {
		n, err := strconv.Atoi(strings.Trim(p, "\x00"))
		if err != nil || n >= len(spans) {
			return p
		}
		return "<code>" + spans[n] + "</code>"
	})
}

// extractCodeSpans replaces every non-empty single-backtick span with a
// placeholder and returns the span contents in order. A backtick with no
// partner, or an empty pair, is left as literal text.
func extractCodeSpans(s string) (string, []string) {
	if !strings.Contains(s, "`") {
		return s, nil
	}
	var b strings.Builder
	var spans []string
	for i := 0; i < len(s); {
		if s[i] != '`' {
			b.WriteByte(s[i])
			i++
			continue
		}
		end := strings.IndexByte(s[i+1:], '`')
		if end <= 0 {
			b.WriteByte('`')
			i++
			continue
		}
		b.WriteString("\x00" + strconv.Itoa(len(spans)) + "\x00")
		spans = append(spans, s[i+1:i+1+end])
		i += end + 2
	}
	return b.String(), spans
}

// emphasize wraps text between pairs of single asterisks in <em>. Only an
// asterisk with no asterisk neighbour on either side can open or close, so
// leftovers of ** or *** runs never pair up.
func emphasize(s string) string {
	var stars []int
	for i := 0; i < len(s); i++ {
		if s[i] != '*' {
			continue
		}
		if i > 0 && s[i-1] == '*' {
			continue
		}
		if i+1 < len(s) && s[i+1] == '*' {
			continue
		}
		stars = append(stars, i)
	}
	if len(stars) < 2 {
		return s
	}

	var b strings.Builder
	last := 0
	for k := 0; k+1 < len(stars); k += 2 {
		open, end := stars[k], stars[k+1]
		b.WriteString(s[last:open])
		b.WriteString("<em>")
		b.WriteString(s[open+1 : end])
		b.WriteString("</em>")
		last = end + 1
	}
	b.WriteString(s[last:])
	return b.String()
}
