package gitctx

import (
	"path/filepath"
	"strconv"
	"strings"
)

// Line is one line of text to scan, located by path and 1-based line number
// in the new version of the file.
type Line struct {
	Path   string
	Number int
	Text   string
	Commit string
}

// AddedLines returns the lines a unified diff adds, in diff order. Removed
// and context lines are skipped, as are deleted files.
func AddedLines(diff string) []Line {
	var lines []Line
	path := ""
	next := 0
	inHunk := false
	for _, raw := range strings.Split(diff, "\n") {
		switch {
		case strings.HasPrefix(raw, "diff --git"):
			path, inHunk = "", false
		case !inHunk && strings.HasPrefix(raw, "+++ "):
			path = newPath(raw[4:])
		case strings.HasPrefix(raw, "@@"):
			next, inHunk = hunkStart(raw), true
		case !inHunk || path == "":
		case strings.HasPrefix(raw, "+"):
			lines = append(lines, Line{Path: path, Number: next, Text: raw[1:]})
			next++
		case strings.HasPrefix(raw, " "):
			next++
		}
	}
	return lines
}

// newPath strips the b/ prefix from a "+++" target; /dev/null means the file
// was deleted.
func newPath(target string) string {
	target = strings.TrimSpace(target)
	if target == "/dev/null" {
		return ""
	}
	if unq, err := strconv.Unquote(target); err == nil {
		target = unq
	}
	return strings.TrimPrefix(target, "b/")
}

// hunkStart parses the new-file start line from "@@ -a,b +c,d @@".
func hunkStart(header string) int {
	_, rest, ok := strings.Cut(header, "+")
	if !ok {
		return 0
	}
	end := strings.IndexAny(rest, ", ")
	if end < 0 {
		end = len(rest)
	}
	n, err := strconv.Atoi(rest[:end])
	if err != nil {
		return 0
	}
	return n
}

func splitSections(diff string) []string {
	if strings.TrimSpace(diff) == "" {
		return nil
	}
	var sections []string
	var current strings.Builder
	for _, line := range strings.Split(strings.TrimSuffix(diff, "\n"), "\n") {
		if strings.HasPrefix(line, "diff --git") && current.Len() > 0 {
			sections = append(sections, current.String())
			current.Reset()
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	if current.Len() > 0 {
		sections = append(sections, current.String())
	}
	return sections
}

func sectionPath(section string) string {
	for _, line := range strings.Split(section, "\n") {
		if strings.HasPrefix(line, "+++ ") {
			return newPath(line[4:])
		}
	}
	return ""
}

func excludeSections(sections []string, excludes []string) []string {
	var kept []string
	for _, sec := range sections {
		p := sectionPath(sec)
		if p == "" || !MatchesAny(p, excludes) {
			kept = append(kept, sec)
		}
	}
	return kept
}

// MatchesAny reports whether path matches any of the glob patterns. A
// leading "**/" matches at any depth and a trailing "/**" matches everything
// below a directory.
func MatchesAny(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if matched, err := filepath.Match(pattern, path); err == nil && matched {
			return true
		}
		if dir, ok := strings.CutSuffix(pattern, "/**"); ok {
			trimmed := strings.TrimPrefix(dir, "**/")
			if strings.HasPrefix(path, dir+"/") || strings.Contains("/"+path, "/"+trimmed+"/") {
				return true
			}
		}
		if clean, ok := strings.CutPrefix(pattern, "**/"); ok {
			if matched, err := filepath.Match(clean, filepath.Base(path)); err == nil && matched {
				return true
			}
			if matched, err := filepath.Match(clean, path); err == nil && matched {
				return true
			}
		}
	}
	return false
}
