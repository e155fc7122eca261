package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/dshills/piicleaner/internal/redact"
	"github.com/dshills/piicleaner/internal/scan"
)

// TextWriter outputs a human-readable text report. With Color set, the
// placeholder in each snippet is highlighted; color still honours NO_COLOR.
type TextWriter struct {
	Placeholder string
	Color       bool
}

func (t *TextWriter) Write(w io.Writer, report *scan.Report) error {
	ew := &errWriter{w: w}

	ew.printf("PII scan: %s mode\n", report.Inputs.Mode)
	if report.Inputs.Range != "" {
		ew.printf("Range: %s\n", report.Inputs.Range)
	}
	if report.Repo.Root != "" {
		ew.printf("Repository: %s (branch: %s)\n", report.Repo.Root, report.Repo.Branch)
	}
	ew.printf("Cleaners: %s\n", strings.Join(report.Inputs.Cleaners, ", "))
	ew.println(strings.Repeat("─", 60))
	ew.printf("Findings: %d total", report.Summary.Total)
	if report.Summary.Total > 0 {
		parts := make([]string, 0, len(report.Summary.ByDetector))
		for _, name := range report.Summary.Detectors() {
			parts = append(parts, fmt.Sprintf("%d %s", report.Summary.ByDetector[name], name))
		}
		ew.printf(" in %d files (%s)", report.Summary.Files, strings.Join(parts, ", "))
	}
	ew.println("")
	ew.println(strings.Repeat("─", 60))

	if report.Summary.Total == 0 {
		ew.printf("\nNo PII found in %d lines.\n", report.Inputs.Lines)
		return ew.err
	}

	highlight := t.highlighter()
	path := ""
	for _, f := range report.Findings {
		if f.Path != path {
			path = f.Path
			ew.printf("\n%s\n", path)
		}
		ew.printf("  %d:%d  %-12s %s", f.Line, f.Column, f.Detector, highlight(f.Snippet))
		if f.Commit != "" {
			ew.printf("  (%s)", shortSHA(f.Commit))
		}
		ew.println("")
	}

	if report.Summary.Omitted > 0 {
		ew.printf("\n... %d more findings not shown\n", report.Summary.Omitted)
	}
	if report.Inputs.Truncated {
		ew.println("\nInput was truncated; some files were not scanned.")
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	ew.printf("Completed in %dms (git: %dms, scan: %dms)\n",
		report.Timing.TotalMs, report.Timing.GitMs, report.Timing.ScanMs)

	return ew.err
}

func (t *TextWriter) highlighter() func(string) string {
	if !t.Color {
		return func(s string) string { return s }
	}
	placeholder := t.Placeholder
	if placeholder == "" {
		placeholder = redact.Placeholder
	}
	marked := color.New(color.FgRed, color.Bold).Sprint(placeholder)
	return func(s string) string {
		return strings.ReplaceAll(s, placeholder, marked)
	}
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}
