// Package prompt assembles the text sent to the analysis tool.
//
// A [Request] pairs a diff with a template containing the [Placeholder]
// token. Custom templates that omit the token still work: the diff is
// appended after a short "Git diff:" heading instead.
package prompt
