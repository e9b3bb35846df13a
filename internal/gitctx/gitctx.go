package gitctx

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNotRepository is returned when the directory is not inside a git work tree.
var ErrNotRepository = errors.New("not a git repository")

// ErrOutsideRepo is returned for paths that escape the repository root.
var ErrOutsideRepo = errors.New("path is outside the repository")

// truncationNotice is appended when a diff is cut at MaxDiffBytes.
const truncationNotice = "\n... (diff truncated at max-diff-bytes limit)\n"

// DiffOptions controls how diffs are gathered.
type DiffOptions struct {
	ContextLines int
	MaxDiffBytes int
	Exclude      []string
}

// DiffResult holds the collected diff and metadata.
type DiffResult struct {
	Diff      string
	Files     []string
	Mode      Mode
	Path      string
	Truncated bool
	Repo      RepoMeta
}

// Empty reports whether there is nothing to analyze.
func (r DiffResult) Empty() bool {
	return strings.TrimSpace(r.Diff) == ""
}

// RepoMeta contains git repository metadata.
type RepoMeta struct {
	Root   string
	Head   string
	Branch string
}

// CheckRepo verifies that dir is inside a git repository.
func CheckRepo(ctx context.Context, dir string) error {
	if _, err := gitOutput(ctx, dir, "rev-parse", "--git-dir"); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s", ErrNotRepository, displayDir(dir))
	}
	return nil
}

// GetRepoMeta collects repository metadata from git.
func GetRepoMeta(ctx context.Context, dir string) (RepoMeta, error) {
	root, err := gitOutput(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return RepoMeta{}, fmt.Errorf("%w: %v", ErrNotRepository, err)
	}
	head, err := gitOutput(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		head = "" // new repo with no commits
	}
	branch, err := gitOutput(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		branch = ""
	}
	return RepoMeta{
		Root:   strings.TrimSpace(root),
		Head:   strings.TrimSpace(head),
		Branch: strings.TrimSpace(branch),
	}, nil
}

// Diff returns the diff selected by src. An unchanged tree yields a result
// whose Diff is empty.
func Diff(ctx context.Context, dir string, src Source, opts DiffOptions) (DiffResult, error) {
	if err := src.Validate(); err != nil {
		return DiffResult{}, err
	}
	args := append([]string{"diff"}, src.gitArgs(opts)...)
	diff, err := gitOutput(ctx, dir, args...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	result := buildResult(diff, src, opts)
	result.Repo, _ = GetRepoMeta(ctx, dir)
	return result, nil
}

// FileDiff returns the working-tree diff of a single file, falling back to its
// staged diff when the file has no unstaged changes.
func FileDiff(ctx context.Context, dir, path string, opts DiffOptions) (DiffResult, error) {
	res, err := Diff(ctx, dir, Source{Mode: ModeFile, Path: path}, opts)
	if err != nil || !res.Empty() {
		return res, err
	}
	args := []string{"diff", "--staged", "--", path}
	diff, err := gitOutput(ctx, dir, args...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	res.Diff = diff
	res.Files = extractFiles(diff)
	return res, nil
}

// RepoPath resolves a repository-relative path against root and rejects
// anything that escapes it, lexically or through a symlink. Paths that do not
// exist yet are only checked lexically.
func RepoPath(root, rel string) (string, error) {
	if rel == "" || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRepo, rel)
	}
	full := filepath.Join(root, filepath.FromSlash(rel))
	if !within(root, full) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRepo, rel)
	}

	resolved, err := filepath.EvalSymlinks(full)
	if err != nil {
		return full, nil
	}
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		realRoot = root
	}
	if !within(realRoot, resolved) {
		return "", fmt.Errorf("%w: %q resolves to %s", ErrOutsideRepo, rel, resolved)
	}
	return full, nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func buildResult(diff string, src Source, opts DiffOptions) DiffResult {
	files := extractFiles(diff)

	// Filter excludes before truncating so excluded files don't consume the byte budget
	if len(opts.Exclude) > 0 {
		diff = filterExcluded(diff, opts.Exclude)
		files = filterFileList(files, opts.Exclude)
	}

	truncated := false
	if opts.MaxDiffBytes > 0 && len(diff) > opts.MaxDiffBytes {
		diff = truncateUTF8(diff, opts.MaxDiffBytes) + truncationNotice
		truncated = true
	}

	return DiffResult{
		Diff:      diff,
		Files:     files,
		Mode:      src.Mode,
		Path:      src.Path,
		Truncated: truncated,
	}
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	for n > 0 && n < len(s) && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

func extractFiles(diff string) []string {
	var files []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "+++ b/") {
			f := strings.TrimPrefix(line, "+++ b/")
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}
	return files
}

func filterExcluded(diff string, excludes []string) string {
	sections := splitDiffSections(diff)
	var kept []string
	for _, section := range sections {
		path := extractPathFromSection(section)
		if path == "" || !MatchesAny(path, excludes) {
			kept = append(kept, section)
		}
	}
	return strings.Join(kept, "")
}

func splitDiffSections(diff string) []string {
	var sections []string
	lines := strings.Split(diff, "\n")
	var current strings.Builder
	for _, line := range lines {
		if strings.HasPrefix(line, "diff --git") && current.Len() > 0 {
			sections = append(sections, current.String())
			current.Reset()
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	if current.Len() > 0 {
		sections = append(sections, current.String())
	}
	return sections
}

// extractPathFromSection prefers the post-image path and falls back to the
// pre-image path for deletions.
func extractPathFromSection(section string) string {
	var old string
	for _, line := range strings.Split(section, "\n") {
		if strings.HasPrefix(line, "+++ b/") {
			return strings.TrimPrefix(line, "+++ b/")
		}
		if strings.HasPrefix(line, "--- a/") && old == "" {
			old = strings.TrimPrefix(line, "--- a/")
		}
	}
	return old
}

func filterFileList(files []string, excludes []string) []string {
	var result []string
	for _, f := range files {
		if !MatchesAny(f, excludes) {
			result = append(result, f)
		}
	}
	return result
}

// MatchesAny returns true if the path matches any of the given glob patterns.
func MatchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
		if dir, ok := strings.CutSuffix(pattern, "/**"); ok && !strings.ContainsAny(dir, "*?[") {
			if path == dir || strings.HasPrefix(path, dir+"/") {
				return true
			}
		}
		clean := strings.TrimPrefix(pattern, "**/")
		if clean != pattern {
			matched, err = filepath.Match(clean, filepath.Base(path))
			if err == nil && matched {
				return true
			}
			matched, err = filepath.Match(clean, path)
			if err == nil && matched {
				return true
			}
			if dir, ok := strings.CutSuffix(clean, "/**"); ok {
				if strings.HasPrefix(path, dir+"/") || strings.Contains(path, "/"+dir+"/") {
					return true
				}
			}
		}
	}
	return false
}

func gitOutput(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}

func displayDir(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}
