package gitctx

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DiffOptions controls which changes are collected.
type DiffOptions struct {
	MaxDiffBytes int
	Include      []string
	Exclude      []string
}

// DiffResult holds a collected diff and its metadata.
type DiffResult struct {
	Diff      string
	Files     []string
	Mode      string
	Range     string
	Repo      RepoMeta
	Truncated bool
}

// RepoMeta contains git repository metadata.
type RepoMeta struct {
	Root   string `json:"root"`
	Head   string `json:"head,omitempty"`
	Branch string `json:"branch,omitempty"`
}

// GetRepoMeta collects repository metadata from git.
func GetRepoMeta() (RepoMeta, error) {
	root, err := gitOutput("rev-parse", "--show-toplevel")
	if err != nil {
		return RepoMeta{}, fmt.Errorf("not a git repository: %w", err)
	}
	// both fail in a repository with no commits
	head, _ := gitOutput("rev-parse", "HEAD")
	branch, _ := gitOutput("rev-parse", "--abbrev-ref", "HEAD")
	return RepoMeta{
		Root:   strings.TrimSpace(root),
		Head:   strings.TrimSpace(head),
		Branch: strings.TrimSpace(branch),
	}, nil
}

// Unstaged returns the working tree changes not yet in the index.
func Unstaged(opts DiffOptions) (DiffResult, error) {
	diff, err := gitOutput(append([]string{"diff"}, diffArgs(opts)...)...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git diff: %w", err)
	}
	return newResult(diff, "unstaged", "", opts), nil
}

// Staged returns the changes in the index, which is what the next commit
// will contain.
func Staged(opts DiffOptions) (DiffResult, error) {
	diff, err := gitOutput(append([]string{"diff", "--cached"}, diffArgs(opts)...)...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git diff --cached: %w", err)
	}
	return newResult(diff, "staged", "", opts), nil
}

// Commit returns the changes introduced by sha. A root commit is diffed
// against the empty tree.
func Commit(sha string, opts DiffOptions) (DiffResult, error) {
	diff, err := gitOutput(append([]string{"diff", sha + "~1", sha}, diffArgs(opts)...)...)
	if err != nil {
		show := append([]string{"show", "--format=", "-U0", "--no-color", sha, "--"}, pathspecs(opts)...)
		diff, err = gitOutput(show...)
		if err != nil {
			return DiffResult{}, fmt.Errorf("git show %s: %w", sha, err)
		}
	}
	return newResult(diff, "commit", sha, opts), nil
}

// Range returns the combined changes of a revision range. With mergeBase,
// "a..b" is compared from the merge base of a and b.
func Range(revRange string, mergeBase bool, opts DiffOptions) (DiffResult, error) {
	diffRange := withMergeBase(revRange, mergeBase)
	diff, err := gitOutput(append([]string{"diff", diffRange}, diffArgs(opts)...)...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git diff %s: %w", revRange, err)
	}
	return newResult(diff, "range", revRange, opts), nil
}

// CommitInfo holds a commit SHA and its subject line.
type CommitInfo struct {
	SHA     string
	Subject string
}

// ListCommits returns commits in a revision range, oldest first.
func ListCommits(revRange string, mergeBase bool) ([]CommitInfo, error) {
	listRange := withMergeBase(revRange, mergeBase)

	// "commit <sha>\n<subject>\n" per commit
	out, err := gitOutput("rev-list", "--reverse", "--format=%s", listRange)
	if err != nil {
		return nil, fmt.Errorf("git rev-list %s: %w", revRange, err)
	}

	var commits []CommitInfo
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for i := 0; i < len(lines); i++ {
		sha, ok := strings.CutPrefix(strings.TrimSpace(lines[i]), "commit ")
		if !ok {
			continue
		}
		c := CommitInfo{SHA: sha}
		if i+1 < len(lines) {
			c.Subject = strings.TrimSpace(lines[i+1])
			i++
		}
		commits = append(commits, c)
	}
	return commits, nil
}

func withMergeBase(revRange string, mergeBase bool) string {
	if mergeBase && strings.Contains(revRange, "..") && !strings.Contains(revRange, "...") {
		return strings.Replace(revRange, "..", "...", 1)
	}
	return revRange
}

// diffArgs asks for zero context lines: only added lines are scanned, and
// their new-file line numbers come from the hunk headers.
func diffArgs(opts DiffOptions) []string {
	return append([]string{"-U0", "--no-color", "--"}, pathspecs(opts)...)
}

func pathspecs(opts DiffOptions) []string {
	var specs []string
	for _, p := range opts.Include {
		if p != "**/*" {
			specs = append(specs, p)
		}
	}
	return specs
}

func newResult(diff, mode, rangeStr string, opts DiffOptions) DiffResult {
	// metadata is best effort; the diff itself already succeeded
	meta, _ := GetRepoMeta()

	sections := splitSections(diff)
	if len(opts.Exclude) > 0 {
		sections = excludeSections(sections, opts.Exclude)
	}

	var b strings.Builder
	var files []string
	truncated := false
	for _, sec := range sections {
		// drop whole files rather than cutting a line in half
		if opts.MaxDiffBytes > 0 && b.Len()+len(sec) > opts.MaxDiffBytes {
			truncated = true
			break
		}
		b.WriteString(sec)
		if p := sectionPath(sec); p != "" {
			files = append(files, p)
		}
	}

	return DiffResult{
		Diff:      b.String(),
		Files:     files,
		Mode:      mode,
		Range:     rangeStr,
		Repo:      meta,
		Truncated: truncated,
	}
}

func gitOutput(args ...string) (string, error) {
	out, err := exec.Command("git", args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}
