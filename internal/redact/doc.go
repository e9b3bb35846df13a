// Package redact removes secrets from a unified diff before it is piped to
// the analysis tool.
//
// Detection uses regex heuristics for common secret shapes: API keys, JWTs,
// private keys, AWS credentials, bearer tokens, connection strings and
// provider tokens. Diff sections whose path matches a configured glob are
// withheld entirely; only their header survives so the tool still sees that
// the file changed.
package redact
