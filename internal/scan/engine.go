package scan

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/dshills/piicleaner/internal/cleaner"
	"github.com/dshills/piicleaner/internal/gitctx"
	"github.com/dshills/piicleaner/internal/redact"
)

const (
	tool = "piicleaner"
	// maxSnippetBytes caps the masked line stored with a finding.
	maxSnippetBytes = 200
)

// Source is the collected input of a scan.
type Source struct {
	Mode      string
	Range     string
	Repo      gitctx.RepoMeta
	Lines     []gitctx.Line
	Include   []string
	Exclude   []string
	Truncated bool
	GitMs     int64
}

// Options controls report assembly.
type Options struct {
	// MaxFindings caps the findings listed; zero means no cap. Summary
	// counts always cover every finding.
	MaxFindings int
	Version     string
}

// Run detects PII in every line of src and assembles a report.
func Run(ctx context.Context, c *cleaner.Cleaner, src Source, opts Options) (*Report, error) {
	start := time.Now()

	texts := make([]string, len(src.Lines))
	for i, l := range src.Lines {
		texts[i] = l.Text
	}
	found, err := c.DetectBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("scanning: %w", err)
	}

	var findings []Finding
	for i, spans := range found {
		if len(spans) == 0 {
			continue
		}
		line := src.Lines[i]
		snippet := snip(redact.Rewrite(line.Text, spans, redact.Replace, c.Placeholder()))
		for _, s := range spans {
			f := Finding{
				Detector: s.Detector,
				Path:     line.Path,
				Line:     line.Number,
				Column:   s.Start + 1,
				Length:   s.Len(),
				Commit:   line.Commit,
				Snippet:  snippet,
			}
			f.ID = findingID(f)
			findings = append(findings, f)
		}
	}
	SortFindings(findings)

	summary := ComputeSummary(findings)
	if opts.MaxFindings > 0 && len(findings) > opts.MaxFindings {
		summary.Omitted = len(findings) - opts.MaxFindings
		findings = findings[:opts.MaxFindings]
	}
	if findings == nil {
		findings = []Finding{}
	}

	version := opts.Version
	if version == "" {
		version = "dev"
	}
	scanMs := time.Since(start).Milliseconds()
	return &Report{
		Tool:    tool,
		Version: version,
		RunID:   uuid.NewString(),
		Repo: RepoInfo{
			Root:   src.Repo.Root,
			Head:   src.Repo.Head,
			Branch: src.Repo.Branch,
		},
		Inputs: InputInfo{
			Mode:          src.Mode,
			Range:         src.Range,
			Cleaners:      c.Detectors(),
			PathsIncluded: src.Include,
			PathsExcluded: src.Exclude,
			Lines:         len(src.Lines),
			Truncated:     src.Truncated,
		},
		Summary:  summary,
		Findings: findings,
		Timing: Timing{
			GitMs:   src.GitMs,
			ScanMs:  scanMs,
			TotalMs: src.GitMs + scanMs,
		},
	}, nil
}

// findingID is stable across runs for the same commit, location and
// detector. It hashes position only, never the matched text.
func findingID(f Finding) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%d:%d:%s", f.Commit, f.Path, f.Line, f.Column, f.Detector)))
	return fmt.Sprintf("%x", h[:8])
}

// snip trims s and cuts it to maxSnippetBytes on a rune boundary.
func snip(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxSnippetBytes {
		return s
	}
	cut := maxSnippetBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
