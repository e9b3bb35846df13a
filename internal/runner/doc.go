// Package runner executes the external analysis tool, one process at a time.
//
// A [Runner] writes the prompt to the child's standard input, closes it, and
// accumulates standard output and standard error until the process exits.
// Overlapping calls fail fast with [ErrBusy] instead of queueing, and a
// cancelled context kills the child and returns [ErrCancelled] without
// waiting for the operating system to reap it.
package runner
