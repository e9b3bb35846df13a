package prompt

import (
	"path/filepath"
	"strings"
)

var languageByExt = map[string]string{
	".go":    "Go",
	".py":    "Python",
	".js":    "JavaScript",
	".ts":    "TypeScript",
	".tsx":   "TypeScript/React",
	".jsx":   "JavaScript/React",
	".rs":    "Rust",
	".java":  "Java",
	".rb":    "Ruby",
	".cpp":   "C++",
	".c":     "C",
	".h":     "C/C++",
	".cs":    "C#",
	".php":   "PHP",
	".swift": "Swift",
	".kt":    "Kotlin",
	".sql":   "SQL",
	".sh":    "Shell",
	".yaml":  "YAML",
	".yml":   "YAML",
	".json":  "JSON",
	".tf":    "Terraform",
	".md":    "Markdown",
	".css":   "CSS",
	".html":  "HTML",
	".toml":  "TOML",
	".proto": "Protocol Buffers",
}

// Language returns the language of path by its extension.
func Language(path string) (string, bool) {
	lang, ok := languageByExt[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}

// Languages returns the distinct languages of files in first-seen order.
func Languages(files []string) []string {
	seen := make(map[string]bool)
	var langs []string
	for _, f := range files {
		lang, ok := Language(f)
		if !ok || seen[lang] {
			continue
		}
		seen[lang] = true
		langs = append(langs, lang)
	}
	return langs
}
