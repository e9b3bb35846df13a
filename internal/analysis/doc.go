// Package analysis orchestrates one analysis run: repository and tool checks,
// diff collection, redaction, prompt assembly, the single-flight process run
// and the bookkeeping of the last result.
//
// An [Analyzer] reports progress to a document host through an [Observer]
// (pending, result and error states). Every failure is classified into a
// [Kind] so callers can pick the right presentation: cancellation is silent,
// an empty diff and a busy analyzer are notices, everything else is an error.
//
// [Analyzer.Rerun] is the single re-run entry point. Both the command line
// and the preview host's refresh message go through it.
package analysis
