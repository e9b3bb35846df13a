// Package cli wires together the Cobra command tree for the diffsense binary.
//
// It defines the root command and all subcommands (analyze, last, serve,
// doctor, config, cache, hook, version), binds flags, reads configuration,
// drives the analyzer and maps failures to deterministic exit codes.
package cli
