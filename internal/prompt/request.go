package prompt

import "strings"

// Request is an immutable analysis request: the diff and the template it is
// substituted into.
type Request struct {
	diff     string
	template string
	custom   bool
}

// NewRequest builds a request. A blank template selects DefaultTemplate.
func NewRequest(diff, template string) Request {
	if strings.TrimSpace(template) == "" {
		return Request{diff: diff, template: DefaultTemplate}
	}
	return Request{diff: diff, template: template, custom: true}
}

// Diff returns the diff text.
func (r Request) Diff() string { return r.diff }

// Template returns the effective template.
func (r Request) Template() string { return r.template }

// Custom reports whether a user-supplied template is in use.
func (r Request) Custom() bool { return r.custom }

// Text renders the prompt. The diff replaces the first placeholder; when the
// template has none the diff is appended instead.
func (r Request) Text() string {
	if !HasPlaceholder(r.template) {
		return r.template + fallbackHeader + r.diff
	}
	return strings.Replace(r.template, Placeholder, r.diff, 1)
}
