// Package scan runs the PII cleaners over lines collected from a git
// repository and assembles a report of findings. Snippets in a report are
// masked, so a report never repeats the values it found.
package scan
