package scan

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/piicleaner/internal/gitctx"
)

// maxCommitWorkers bounds concurrent git processes in a per-commit scan.
const maxCommitWorkers = 4

// FromDiff turns a collected diff into a scan source of its added lines.
func FromDiff(d gitctx.DiffResult, opts gitctx.DiffOptions) Source {
	return Source{
		Mode:      d.Mode,
		Range:     d.Range,
		Repo:      d.Repo,
		Lines:     gitctx.AddedLines(d.Diff),
		Include:   opts.Include,
		Exclude:   opts.Exclude,
		Truncated: d.Truncated,
	}
}

// Collect gathers the source for a diff mode: "unstaged", "staged",
// "commit" (arg is the sha) or "range" (arg is the revision range).
func Collect(mode, arg string, mergeBase bool, opts gitctx.DiffOptions) (Source, error) {
	start := time.Now()
	var (
		d   gitctx.DiffResult
		err error
	)
	switch mode {
	case "unstaged":
		d, err = gitctx.Unstaged(opts)
	case "staged":
		d, err = gitctx.Staged(opts)
	case "commit":
		d, err = gitctx.Commit(arg, opts)
	case "range":
		d, err = gitctx.Range(arg, mergeBase, opts)
	default:
		return Source{}, &ModeError{Mode: mode}
	}
	if err != nil {
		return Source{}, err
	}
	src := FromDiff(d, opts)
	src.GitMs = time.Since(start).Milliseconds()
	return src, nil
}

// CollectCommits gathers every commit of a range separately, so each line
// is attributed to the commit that added it. Lines keep commit order.
func CollectCommits(ctx context.Context, revRange string, mergeBase bool, opts gitctx.DiffOptions) (Source, error) {
	start := time.Now()
	commits, err := gitctx.ListCommits(revRange, mergeBase)
	if err != nil {
		return Source{}, err
	}

	diffs := make([]gitctx.DiffResult, len(commits))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxCommitWorkers)
	for i, c := range commits {
		i, c := i, c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			d, err := gitctx.Commit(c.SHA, opts)
			if err != nil {
				return err
			}
			diffs[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Source{}, err
	}

	meta, _ := gitctx.GetRepoMeta()
	src := Source{
		Mode:    "range",
		Range:   revRange,
		Repo:    meta,
		Include: opts.Include,
		Exclude: opts.Exclude,
	}
	for i, d := range diffs {
		for _, l := range gitctx.AddedLines(d.Diff) {
			l.Commit = commits[i].SHA
			src.Lines = append(src.Lines, l)
		}
		src.Truncated = src.Truncated || d.Truncated
	}
	src.GitMs = time.Since(start).Milliseconds()
	return src, nil
}

// CollectFiles gathers tracked files matching opts, line by line.
func CollectFiles(opts gitctx.DiffOptions) (Source, error) {
	start := time.Now()
	paths, err := gitctx.WalkFiles(opts)
	if err != nil {
		return Source{}, err
	}
	lines, _, truncated := gitctx.FileLines(paths, opts)
	meta, _ := gitctx.GetRepoMeta()
	return Source{
		Mode:      "files",
		Repo:      meta,
		Lines:     lines,
		Include:   opts.Include,
		Exclude:   opts.Exclude,
		Truncated: truncated,
		GitMs:     time.Since(start).Milliseconds(),
	}, nil
}

// ModeError reports an unknown scan mode.
type ModeError struct {
	Mode string
}

func (e *ModeError) Error() string {
	return fmt.Sprintf("unknown scan mode %q", e.Mode)
}
