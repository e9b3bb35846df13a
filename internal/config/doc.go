// Package config loads and merges diffsense configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (DIFFSENSE_COMMAND, DIFFSENSE_FORMAT, DIFFSENSE_TIMEOUT, etc.)
//  3. Config file ($XDG_CONFIG_HOME/diffsense/config.yaml)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Save] to write a config file, and
// [SetField] to update a single key.
package config
