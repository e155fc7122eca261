package output

import (
	"io"
	"strings"

	"github.com/dshills/piicleaner/internal/scan"
)

// MarkdownWriter outputs a PR-comment-friendly markdown report.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *scan.Report) error {
	ew := &errWriter{w: w}

	ew.printf("## PII Scan\n\n")
	ew.printf("| Detector | Count |\n")
	ew.printf("|----------|-------|\n")
	for _, name := range report.Summary.Detectors() {
		ew.printf("| %s | %d |\n", name, report.Summary.ByDetector[name])
	}
	ew.printf("| **Total** | **%d** |\n\n", report.Summary.Total)

	if report.Summary.Total == 0 {
		ew.println("No PII found. :white_check_mark:")
		return ew.err
	}

	byPath := groupByPath(report.Findings)
	for _, path := range byPath.order {
		findings := byPath.groups[path]
		ew.printf("<details>\n<summary><code>%s</code> (%d)</summary>\n\n", path, len(findings))
		ew.printf("| Line | Column | Detector | Snippet |\n")
		ew.printf("|------|--------|----------|---------|\n")
		for _, f := range findings {
			ew.printf("| %d | %d | %s | `%s` |\n", f.Line, f.Column, f.Detector, mdCell(f.Snippet))
		}
		ew.printf("\n</details>\n\n")
	}

	if report.Summary.Omitted > 0 {
		ew.printf("%d more findings not shown.\n\n", report.Summary.Omitted)
	}
	ew.printf("*Scanned %d lines in %dms (git: %dms, scan: %dms)*\n",
		report.Inputs.Lines, report.Timing.TotalMs, report.Timing.GitMs, report.Timing.ScanMs)
	return ew.err
}

type pathGroups struct {
	order  []string
	groups map[string][]scan.Finding
}

// groupByPath keeps paths in first-seen order; findings arrive sorted.
func groupByPath(findings []scan.Finding) pathGroups {
	g := pathGroups{groups: map[string][]scan.Finding{}}
	for _, f := range findings {
		if _, ok := g.groups[f.Path]; !ok {
			g.order = append(g.order, f.Path)
		}
		g.groups[f.Path] = append(g.groups[f.Path], f)
	}
	return g
}

// mdCell makes s safe inside an inline code span in a table cell.
func mdCell(s string) string {
	s = strings.ReplaceAll(s, "`", "'")
	return strings.ReplaceAll(s, "|", `\|`)
}
