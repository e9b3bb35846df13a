// Package output presents analysis results.
//
// The page functions build complete HTML documents for the three host states
// (loading, result, error) plus file and diff views used by the preview
// host. Response text is converted with [markup.Render], which escapes its
// input, and is the only markup inserted without template escaping.
//
// Four writer formats are supported:
//   - terminal: ANSI-styled markdown, plain when the destination is not a TTY
//   - markdown: the raw response with a metadata footer
//   - html:     a standalone result page
//   - json:     the full structured result
//
// Use [GetWriter] to obtain a [Writer] for a format string, or [WriteResult]
// to write straight to a file or stdout.
package output
