package scan

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/piicleaner/internal/cleaner"
	"github.com/dshills/piicleaner/internal/gitctx"
	"github.com/dshills/piicleaner/internal/pii"
	"github.com/dshills/piicleaner/internal/redact"
)

func newCleaner(t *testing.T, sel cleaner.Selection) *cleaner.Cleaner {
	t.Helper()
	c, err := cleaner.New(sel)
	require.NoError(t, err)
	return c
}

func TestRun(t *testing.T) {
	src := Source{
		Mode: "staged",
		Repo: gitctx.RepoMeta{Root: "/repo", Head: "abc", Branch: "main"},
		Lines: []gitctx.Line{
			{Path: "b.go", Number: 7, Text: "// mail john@x.com"},
			{Path: "a.go", Number: 3, Text: "nino := \"AB123456C\" // and a@b.com"},
			{Path: "a.go", Number: 1, Text: "package a"},
		},
	}
	r, err := Run(context.Background(), newCleaner(t, cleaner.All()), src, Options{Version: "1.2.3"})
	require.NoError(t, err)

	assert.Equal(t, "piicleaner", r.Tool)
	assert.Equal(t, "1.2.3", r.Version)
	_, err = uuid.Parse(r.RunID)
	assert.NoError(t, err, "run ID should be a UUID")
	assert.Equal(t, "main", r.Repo.Branch)
	assert.Equal(t, "staged", r.Inputs.Mode)
	assert.Equal(t, 3, r.Inputs.Lines)
	assert.Equal(t, pii.Default().Names(), r.Inputs.Cleaners)

	require.Len(t, r.Findings, 3)
	first := r.Findings[0]
	assert.Equal(t, "a.go", first.Path)
	assert.Equal(t, 3, first.Line)
	assert.Equal(t, pii.NINO, first.Detector)
	assert.Equal(t, strings.Index(src.Lines[1].Text, "AB123456C")+1, first.Column)
	assert.Equal(t, len("AB123456C"), first.Length)
	assert.Equal(t, pii.Email, r.Findings[1].Detector)
	assert.Equal(t, "b.go", r.Findings[2].Path)

	assert.Equal(t, 3, r.Summary.Total)
	assert.Equal(t, 2, r.Summary.Files)
	assert.Equal(t, map[string]int{pii.NINO: 1, pii.Email: 2}, r.Summary.ByDetector)
}

func TestRun_SnippetIsMasked(t *testing.T) {
	src := Source{Lines: []gitctx.Line{
		{Path: "x.txt", Number: 1, Text: "  NINO AB123456C, email test@example.com  "},
	}}
	r, err := Run(context.Background(), newCleaner(t, cleaner.All()), src, Options{})
	require.NoError(t, err)
	require.Len(t, r.Findings, 2)
	for _, f := range r.Findings {
		assert.Equal(t, "NINO "+redact.Placeholder+", email "+redact.Placeholder, f.Snippet)
		assert.NotContains(t, f.Snippet, "AB123456C")
		assert.NotContains(t, f.Snippet, "test@example.com")
	}
	assert.Equal(t, "dev", r.Version)
}

func TestRun_MaxFindings(t *testing.T) {
	var lines []gitctx.Line
	for i := 1; i <= 5; i++ {
		lines = append(lines, gitctx.Line{Path: "f.txt", Number: i, Text: "mail a@b.com"})
	}
	r, err := Run(context.Background(), newCleaner(t, cleaner.Names(pii.Email)), Source{Lines: lines}, Options{MaxFindings: 2})
	require.NoError(t, err)
	assert.Len(t, r.Findings, 2)
	assert.Equal(t, 5, r.Summary.Total)
	assert.Equal(t, 3, r.Summary.Omitted)
	assert.True(t, r.ShouldFail("any"))
	assert.False(t, r.ShouldFail("none"))
}

func TestRun_Clean(t *testing.T) {
	src := Source{Lines: []gitctx.Line{{Path: "a", Number: 1, Text: "No sensitive information in this text"}}}
	r, err := Run(context.Background(), newCleaner(t, cleaner.All()), src, Options{})
	require.NoError(t, err)
	assert.NotNil(t, r.Findings)
	assert.Empty(t, r.Findings)
	assert.False(t, r.ShouldFail("any"))
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := Source{Lines: []gitctx.Line{{Path: "a", Number: 1, Text: "a@b.com"}}}
	_, err := Run(ctx, newCleaner(t, cleaner.All()), src, Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFindingID_Stable(t *testing.T) {
	f := Finding{Path: "a.go", Line: 3, Column: 5, Detector: pii.Email}
	assert.Equal(t, findingID(f), findingID(f))
	assert.Len(t, findingID(f), 16)
	g := f
	g.Column = 6
	assert.NotEqual(t, findingID(f), findingID(g))
}

func TestRun_SameLocationInTwoCommits(t *testing.T) {
	src := Source{
		Mode: "range",
		Lines: []gitctx.Line{
			{Path: "a.txt", Number: 1, Text: "a@b.com", Commit: "1111111111"},
			{Path: "a.txt", Number: 1, Text: "a@b.com", Commit: "2222222222"},
		},
	}
	report, err := Run(context.Background(), newCleaner(t, cleaner.All()), src, Options{})
	require.NoError(t, err)
	require.Len(t, report.Findings, 2)
	assert.NotEqual(t, report.Findings[0].ID, report.Findings[1].ID)
}

func TestSnip(t *testing.T) {
	assert.Equal(t, "abc", snip("  abc\t"))
	long := strings.Repeat("é", 150)
	got := snip(long)
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.LessOrEqual(t, len(strings.TrimSuffix(got, "…")), maxSnippetBytes)
	assert.Equal(t, strings.Repeat("é", 100)+"…", got)
}

func TestSortFindings(t *testing.T) {
	fs := []Finding{
		{Path: "b", Line: 1, Column: 1},
		{Path: "a", Line: 2, Column: 1},
		{Path: "a", Line: 1, Column: 9},
		{Path: "a", Line: 1, Column: 2},
	}
	SortFindings(fs)
	var got []string
	for _, f := range fs {
		got = append(got, f.Path+string(rune('0'+f.Line))+string(rune('0'+f.Column)))
	}
	assert.Equal(t, []string{"a12", "a19", "a21", "b11"}, got)
}

func TestSummaryDetectors(t *testing.T) {
	s := ComputeSummary([]Finding{{Detector: "tag"}, {Detector: "email"}, {Detector: "tag"}})
	assert.Equal(t, []string{"email", "tag"}, s.Detectors())
	assert.Equal(t, 2, s.ByDetector["tag"])
}

func TestFromDiff(t *testing.T) {
	d := gitctx.DiffResult{
		Diff: "diff --git a/x b/x\n--- a/x\n+++ b/x\n@@ -0,0 +1 @@\n+call 07700 900123\n",
		Mode: "unstaged", Truncated: true,
	}
	src := FromDiff(d, gitctx.DiffOptions{Exclude: []string{"vendor/**"}})
	require.Len(t, src.Lines, 1)
	assert.Equal(t, "x", src.Lines[0].Path)
	assert.True(t, src.Truncated)
	assert.Equal(t, []string{"vendor/**"}, src.Exclude)
}

func TestCollect_UnknownMode(t *testing.T) {
	_, err := Collect("sideways", "", false, gitctx.DiffOptions{})
	var me *ModeError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "sideways", me.Mode)
}
