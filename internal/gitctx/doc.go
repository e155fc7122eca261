// Package gitctx collects the text piicleaner scans from a git repository.
//
// It supports four diff modes (unstaged, staged, commit and range) by
// shelling out to git with zero context lines, and [AddedLines] turns the
// resulting unified diff into the added lines with their new-file line
// numbers. [WalkFiles] and [FileLines] cover scanning tracked files as they
// are. Results are filtered by include/exclude glob patterns and capped at a
// configurable byte budget, dropping whole files rather than cutting lines.
//
// [ListCommits] returns the ordered commits in a revision range so findings
// can be attributed to the commit that introduced them.
package gitctx
