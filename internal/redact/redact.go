package redact

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dshills/diffsense/internal/gitctx"
)

const placeholder = "[REDACTED]"

// withheldNotice replaces the hunks of a path-redacted section.
const withheldNotice = placeholder + " (file content withheld by path policy)\n"

type rule struct {
	name    string
	pattern *regexp.Regexp
}

// rules are ordered so provider-specific shapes win over generic ones.
var rules = []rule{
	{"private-key", regexp.MustCompile(`-----BEGIN\s+(?:[A-Z]+\s+)?PRIVATE KEY-----`)},
	{"anthropic-key", regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`)},
	{"openai-key", regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`)},
	{"github-token", regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`)},
	{"slack-token", regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`)},
	{"aws-access-key", regexp.MustCompile(`AKIA[0-9A-Z]{16}`)},
	{"aws-secret-key", regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`)},
	{"jwt", regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`)},
	{"bearer", regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`)},
	{"connection-string", regexp.MustCompile(`(?i)\b(?:postgres(?:ql)?|mysql|mongodb(?:\+srv)?|redis|amqp)://[^:\s/@]+:[^@\s]+@`)},
	{"api-key", regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`)},
	{"assignment", regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["']([^"']{8,})["']`)},
	{"hex-secret", regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`)},
}

// Stats summarizes what a redaction pass removed.
type Stats struct {
	Secrets  int            `json:"secrets"`
	ByRule   map[string]int `json:"byRule,omitempty"`
	Withheld []string       `json:"withheld,omitempty"`
}

// Changed reports whether anything was redacted.
func (s Stats) Changed() bool {
	return s.Secrets > 0 || len(s.Withheld) > 0
}

// Rules returns the names of the detection rules, sorted.
func (s Stats) Rules() []string {
	names := make([]string, 0, len(s.ByRule))
	for name := range s.ByRule {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	out, _ := secrets(text, nil)
	return out
}

func secrets(text string, stats *Stats) (string, int) {
	total := 0
	for _, r := range rules {
		text = r.pattern.ReplaceAllStringFunc(text, func(string) string {
			total++
			if stats != nil {
				if stats.ByRule == nil {
					stats.ByRule = make(map[string]int)
				}
				stats.ByRule[r.name]++
			}
			return placeholder
		})
	}
	return text, total
}

// Diff redacts a unified diff. Sections for paths matching withheldPaths keep
// their header lines and lose every hunk; all other sections are scanned for
// secrets.
func Diff(diff string, withheldPaths []string) (string, Stats) {
	return apply(diff, withheldPaths, true)
}

// Withhold applies only the path policy of Diff and leaves the content of
// other sections untouched.
func Withhold(diff string, withheldPaths []string) (string, Stats) {
	return apply(diff, withheldPaths, false)
}

func apply(diff string, withheldPaths []string, scan bool) (string, Stats) {
	var stats Stats
	if diff == "" {
		return diff, stats
	}

	var b strings.Builder
	b.Grow(len(diff))
	for _, section := range sections(diff) {
		path := sectionPath(section)
		if path != "" && gitctx.MatchesAny(path, withheldPaths) {
			b.WriteString(withhold(section))
			stats.Withheld = append(stats.Withheld, path)
			continue
		}
		if !scan {
			b.WriteString(section)
			continue
		}
		out, n := secrets(section, &stats)
		stats.Secrets += n
		b.WriteString(out)
	}
	return b.String(), stats
}

// withhold keeps everything before the first hunk and replaces the rest.
func withhold(section string) string {
	idx := strings.Index(section, "\n@@")
	if idx < 0 {
		if strings.HasPrefix(section, "@@") {
			return withheldNotice
		}
		return section
	}
	return section[:idx+1] + withheldNotice
}

// sections splits a diff at "diff --git" boundaries without losing bytes.
func sections(diff string) []string {
	var out []string
	start := 0
	for i := 0; i < len(diff); {
		next := strings.Index(diff[i:], "\ndiff --git ")
		if next < 0 {
			break
		}
		cut := i + next + 1
		out = append(out, diff[start:cut])
		start = cut
		i = cut
	}
	return append(out, diff[start:])
}

func sectionPath(section string) string {
	var old string
	for _, line := range strings.Split(section, "\n") {
		switch {
		case strings.HasPrefix(line, "+++ b/"):
			return strings.TrimPrefix(line, "+++ b/")
		case strings.HasPrefix(line, "--- a/") && old == "":
			old = strings.TrimPrefix(line, "--- a/")
		case strings.HasPrefix(line, "@@"):
			return old
		}
	}
	return old
}
