package gitctx

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// maxFileBytes is the per-file size limit when scanning tracked files.
const maxFileBytes = 1 << 20

// WalkFiles returns git-tracked files matching the include/exclude filters,
// sorted. Paths are relative to the working directory.
func WalkFiles(opts DiffOptions) ([]string, error) {
	out, err := gitOutput("ls-files")
	if err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var files []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(opts.Include) > 0 && !MatchesAny(line, opts.Include) {
			continue
		}
		if len(opts.Exclude) > 0 && MatchesAny(line, opts.Exclude) {
			continue
		}
		files = append(files, line)
	}
	sort.Strings(files)
	return files, nil
}

// FileLines reads paths and returns every line of the text files among them.
// Binary files (a NUL byte in the first 8 KB), files over 1 MB and
// unreadable files are skipped. MaxDiffBytes caps the total bytes read;
// Truncated reports whether files were left out because of it.
func FileLines(paths []string, opts DiffOptions) (lines []Line, scanned []string, truncated bool) {
	total := 0
	for _, p := range paths {
		data, err := os.ReadFile(filepath.Clean(p))
		if err != nil || len(data) > maxFileBytes || isBinary(data) {
			continue
		}
		if opts.MaxDiffBytes > 0 && total+len(data) > opts.MaxDiffBytes {
			truncated = true
			break
		}
		total += len(data)
		scanned = append(scanned, p)
		for i, text := range strings.Split(strings.TrimSuffix(string(data), "\n"), "\n") {
			lines = append(lines, Line{Path: p, Number: i + 1, Text: strings.TrimSuffix(text, "\r")})
		}
	}
	return lines, scanned, truncated
}

func isBinary(data []byte) bool {
	head := data
	if len(head) > 8000 {
		head = head[:8000]
	}
	return bytes.IndexByte(head, 0) >= 0
}
