// Package cli wires together the Cobra command tree for the tally binary.
//
// It defines the root command and all subcommands (review, github, lookup,
// config, models, cache, hook, version), binds flags, resolves configuration,
// assembles the analysis engine and returns deterministic exit codes for CI
// gating.
package cli
