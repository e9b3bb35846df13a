package analysis

import (
	"time"

	"github.com/dshills/diffsense/internal/gitctx"
)

// RepoInfo contains repository metadata.
type RepoInfo struct {
	Root   string `json:"root"`
	Head   string `json:"head"`
	Branch string `json:"branch"`
}

// Reference is a file path mentioned in a code span of the response.
type Reference struct {
	Path string `json:"path"`
	// Line is the line suffix ("path:42"), zero when absent.
	Line int `json:"line,omitempty"`
	// InDiff reports whether the file is part of the analyzed diff.
	InDiff bool `json:"inDiff"`
}

// Timing contains performance metrics.
type Timing struct {
	GitMs   int64 `json:"gitMs"`
	ToolMs  int64 `json:"toolMs"`
	TotalMs int64 `json:"totalMs"`
}

// Result is one successful analysis. It is only built from a non-empty diff
// and a zero exit status of the analysis tool.
type Result struct {
	ID         string        `json:"id"`
	Tool       string        `json:"tool"`
	Response   string        `json:"response"`
	Timestamp  time.Time     `json:"timestamp"`
	DiffLength int           `json:"diffLength"`
	Source     gitctx.Source `json:"source"`
	Repo       RepoInfo      `json:"repo"`
	Files      []string      `json:"files"`
	Languages  []string      `json:"languages,omitempty"`
	References []Reference   `json:"references,omitempty"`
	Truncated  bool          `json:"truncated,omitempty"`
	Redacted   int           `json:"redacted,omitempty"`
	Withheld   []string      `json:"withheld,omitempty"`
	Cached     bool          `json:"cached,omitempty"`
	Timing     Timing        `json:"timing"`
}

// ReferencePaths returns the referenced paths in response order.
func (r *Result) ReferencePaths() []string {
	paths := make([]string, 0, len(r.References))
	for _, ref := range r.References {
		paths = append(paths, ref.Path)
	}
	return paths
}
