package scan

import (
	"sort"
)

// Finding is one PII span found in a scanned line. Snippet is the whole line
// with every span replaced by the placeholder, so a report never repeats
// what it found.
type Finding struct {
	ID       string `json:"id"`
	Detector string `json:"detector"`
	Path     string `json:"path"`
	Line     int    `json:"line"`
	// Column is the 1-based byte column of the span start.
	Column  int    `json:"column"`
	Length  int    `json:"length"`
	Commit  string `json:"commit,omitempty"`
	Snippet string `json:"snippet"`
}

// RepoInfo contains repository metadata.
type RepoInfo struct {
	Root   string `json:"root"`
	Head   string `json:"head"`
	Branch string `json:"branch"`
}

// InputInfo describes what was scanned.
type InputInfo struct {
	Mode          string   `json:"mode"`
	Range         string   `json:"range,omitempty"`
	Cleaners      []string `json:"cleaners"`
	PathsIncluded []string `json:"pathsIncluded,omitempty"`
	PathsExcluded []string `json:"pathsExcluded,omitempty"`
	Lines         int      `json:"lines"`
	Truncated     bool     `json:"truncated,omitempty"`
}

// Summary counts findings.
type Summary struct {
	Total      int            `json:"total"`
	Files      int            `json:"files"`
	ByDetector map[string]int `json:"byDetector"`
	// Omitted counts findings left out of the report by the findings cap.
	Omitted int `json:"omitted,omitempty"`
}

// Timing contains performance metrics.
type Timing struct {
	GitMs   int64 `json:"gitMs"`
	ScanMs  int64 `json:"scanMs"`
	TotalMs int64 `json:"totalMs"`
}

// Report is the top-level output structure.
type Report struct {
	Tool     string    `json:"tool"`
	Version  string    `json:"version"`
	RunID    string    `json:"runId"`
	Repo     RepoInfo  `json:"repo"`
	Inputs   InputInfo `json:"inputs"`
	Summary  Summary   `json:"summary"`
	Findings []Finding `json:"findings"`
	Timing   Timing    `json:"timing"`
}

// ShouldFail reports whether the report trips the failOn policy: "any"
// fails on at least one finding, "none" never fails.
func (r *Report) ShouldFail(failOn string) bool {
	return failOn == "any" && r.Summary.Total > 0
}

// ComputeSummary calculates the summary from findings.
func ComputeSummary(findings []Finding) Summary {
	s := Summary{ByDetector: map[string]int{}}
	files := map[string]bool{}
	for _, f := range findings {
		s.Total++
		s.ByDetector[f.Detector]++
		files[f.Path] = true
	}
	s.Files = len(files)
	return s
}

// Detectors returns the detector names in a summary, sorted.
func (s Summary) Detectors() []string {
	names := make([]string, 0, len(s.ByDetector))
	for name := range s.ByDetector {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SortFindings orders findings by path, line, then column.
func SortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
}
