// Package cache persists analysis state on disk: a response cache and the
// last successful result.
//
// Response entries are keyed by a SHA-256 hash of the analysis command, its
// arguments and the full prompt text, so a changed template or diff never
// hits a stale entry. Each entry stores the raw response with a creation
// timestamp and TTL (in seconds); expired entries are skipped on read and
// removed by Clear.
//
// Writes go through a temp file and rename while holding an advisory file
// lock, so concurrent diffsense processes (a preview host and a one-off
// analyze run, for example) never observe partial files.
//
// The default directory is $XDG_CACHE_HOME/diffsense (or the OS-appropriate
// equivalent). Payloads have already been through secret redaction.
package cache
