package analysis

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dshills/diffsense/internal/prompt"
)

var pathPattern = regexp.MustCompile(`^((?:[\w.@-]+/)*[\w.@-]+\.[A-Za-z0-9]+)(?::(\d+))?$`)

var md = goldmark.New()

// ExtractReferences walks the inline code spans of a markdown response and
// returns those that look like repository file paths. A span counts when its
// path is one of diffFiles or has a known source extension. Each path is
// returned once, in order of first mention.
func ExtractReferences(response string, diffFiles []string) []Reference {
	inDiff := make(map[string]bool, len(diffFiles))
	for _, f := range diffFiles {
		inDiff[f] = true
	}

	source := []byte(response)
	doc := md.Parser().Parse(text.NewReader(source))

	seen := make(map[string]bool)
	var refs []Reference
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		span, ok := n.(*ast.CodeSpan)
		if !ok {
			return ast.WalkContinue, nil
		}
		ref, ok := parseReference(codeSpanText(span, source), inDiff)
		if ok && !seen[ref.Path] {
			seen[ref.Path] = true
			refs = append(refs, ref)
		}
		return ast.WalkSkipChildren, nil
	})
	return refs
}

func parseReference(s string, inDiff map[string]bool) (Reference, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "./")
	m := pathPattern.FindStringSubmatch(s)
	if m == nil || strings.Contains(m[1], "..") {
		return Reference{}, false
	}
	path := m[1]
	_, known := prompt.Language(path)
	if !known && !inDiff[path] {
		return Reference{}, false
	}
	ref := Reference{Path: path, InDiff: inDiff[path]}
	if m[2] != "" {
		ref.Line, _ = strconv.Atoi(m[2])
	}
	return ref, true
}

func codeSpanText(n *ast.CodeSpan, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
		}
	}
	return b.String()
}
