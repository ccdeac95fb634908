// Package config loads and merges tally configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (TALLY_PROVIDER, TALLY_FAIL_ON, TALLY_CACHE_DIR, etc.)
//  3. Config file ($XDG_CONFIG_HOME/tally/config.json)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged and validated [Config], [Save] to write one,
// and [SetField] to update a single key.
package config
