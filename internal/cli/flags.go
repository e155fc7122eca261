package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/piicleaner/internal/config"
	"github.com/dshills/piicleaner/internal/gitctx"
)

// Shared flags
var (
	flagCleaners     string
	flagIgnoreCase   bool
	flagPlaceholder  string
	flagWorkers      int
	flagStrategy     string
	flagFormat       string
	flagOut          string
	flagFailOn       string
	flagMaxFindings  int
	flagMaxDiffBytes int
	flagPaths        string
	flagExclude      string
)

func addCleanerFlags(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&flagCleaners, "cleaners", "", `Cleaners to run: "all" or comma-separated names`)
	pf.BoolVar(&flagIgnoreCase, "ignore-case", false, "Match patterns case-insensitively")
	pf.StringVar(&flagPlaceholder, "placeholder", "", "Replacement text for the replace strategy")
	pf.IntVar(&flagWorkers, "workers", 0, "Concurrent workers for batch work (default: GOMAXPROCS)")
}

func addStrategyFlag(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagStrategy, "strategy", "", "Cleaning strategy (redact, replace)")
}

func addScanFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagPaths, "paths", "", "Include file path globs (comma-separated)")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "Exclude file path globs (comma-separated)")
	cmd.Flags().IntVar(&flagMaxDiffBytes, "max-diff-bytes", 0, "Maximum bytes of changes or files to scan")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json, markdown, sarif)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "Exit 1 when PII is found (none, any)")
	cmd.Flags().IntVar(&flagMaxFindings, "max-findings", 0, "Maximum number of findings listed")
}

// buildOverrides collects the flags that were set, keyed by config field.
func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagCleaners != "" {
		m["cleaners"] = flagCleaners
	}
	if flagIgnoreCase {
		m["ignoreCase"] = "true"
	}
	if flagPlaceholder != "" {
		m["placeholder"] = flagPlaceholder
	}
	if flagWorkers > 0 {
		m["workers"] = strconv.Itoa(flagWorkers)
	}
	if flagStrategy != "" {
		m["strategy"] = flagStrategy
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagFailOn != "" {
		m["failOn"] = flagFailOn
	}
	if flagMaxFindings > 0 {
		m["maxFindings"] = strconv.Itoa(flagMaxFindings)
	}
	if flagMaxDiffBytes > 0 {
		m["maxDiffBytes"] = strconv.Itoa(flagMaxDiffBytes)
	}
	return m
}

func buildDiffOpts(cfg config.Config) gitctx.DiffOptions {
	opts := gitctx.DiffOptions{
		MaxDiffBytes: cfg.MaxDiffBytes,
		Include:      cfg.Include,
		Exclude:      cfg.Exclude,
	}
	if flagPaths != "" {
		opts.Include = splitComma(flagPaths)
	}
	if flagExclude != "" {
		opts.Exclude = append(opts.Exclude, splitComma(flagExclude)...)
	}
	return opts
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}
