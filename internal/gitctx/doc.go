// Package gitctx is the diff source: it checks for a repository and collects
// the diff for all working-tree changes, staged changes or a single file.
//
// Git is invoked as a subprocess. Diff sections whose path matches an exclude
// glob are dropped before the diff is truncated to a configurable maximum
// byte size, so excluded files never consume the budget.
package gitctx
