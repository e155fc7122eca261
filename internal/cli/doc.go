// Package cli wires together the Cobra command tree for the piicleaner binary.
//
// It defines the root command and all subcommands (detect, clean, cleaners,
// table, scan, hook, config, serve, version), binds flags, reads
// configuration, and returns deterministic exit codes for CI gating.
package cli
