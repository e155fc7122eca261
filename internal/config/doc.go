// Package config loads and merges piicleaner configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (PIICLEANER_CLEANERS, PIICLEANER_STRATEGY, etc.),
//     including any set by a .env file in the working directory
//  3. Config file ($XDG_CONFIG_HOME/piicleaner/config.yaml)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Save] to write one back, and
// [SetField] to update a single key. [Config.NewCleaner] turns the merged
// settings into a ready cleaner.
package config
