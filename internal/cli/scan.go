package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/piicleaner/internal/config"
	"github.com/dshills/piicleaner/internal/output"
	"github.com/dshills/piicleaner/internal/scan"
)

var (
	flagMergeBase bool
	flagPerCommit bool
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan git changes or tracked files for PII",
	Long:  "Scan the lines added by git changes, or every line of tracked files, and report PII findings.",
}

var scanUnstagedCmd = &cobra.Command{
	Use:   "unstaged",
	Short: "Scan unstaged changes (working tree vs index)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd, func(cfg config.Config) (scan.Source, error) {
			return scan.Collect("unstaged", "", false, buildDiffOpts(cfg))
		})
	},
}

var scanStagedCmd = &cobra.Command{
	Use:   "staged",
	Short: "Scan staged changes (index vs HEAD)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd, func(cfg config.Config) (scan.Source, error) {
			return scan.Collect("staged", "", false, buildDiffOpts(cfg))
		})
	},
}

var scanCommitCmd = &cobra.Command{
	Use:   "commit <sha>",
	Short: "Scan the changes of a specific commit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd, func(cfg config.Config) (scan.Source, error) {
			return scan.Collect("commit", args[0], false, buildDiffOpts(cfg))
		})
	},
}

var scanRangeCmd = &cobra.Command{
	Use:   "range <revRange>",
	Short: "Scan a revision range (e.g., origin/main..HEAD)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd, func(cfg config.Config) (scan.Source, error) {
			if flagPerCommit {
				return scan.CollectCommits(cmd.Context(), args[0], flagMergeBase, buildDiffOpts(cfg))
			}
			return scan.Collect("range", args[0], flagMergeBase, buildDiffOpts(cfg))
		})
	},
}

var scanFilesCmd = &cobra.Command{
	Use:   "files",
	Short: "Scan every line of the tracked files",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runScan(cmd, func(cfg config.Config) (scan.Source, error) {
			return scan.CollectFiles(buildDiffOpts(cfg))
		})
	},
}

type collector func(cfg config.Config) (scan.Source, error)

func runScan(cmd *cobra.Command, collect collector) error {
	cfg, c, err := loadCleaner()
	if err != nil {
		return err
	}

	src, err := collect(cfg)
	if err != nil {
		fail(cmd, "%v", err)
		return nil
	}

	report, err := scan.Run(cmd.Context(), c, src, scan.Options{
		MaxFindings: cfg.MaxFindings,
		Version:     version,
	})
	if err != nil {
		fail(cmd, "%v", err)
		return nil
	}

	if err := writeReport(cmd, report, cfg.Format, c.Placeholder()); err != nil {
		fail(cmd, "writing output: %v", err)
		return nil
	}

	if report.ShouldFail(cfg.FailOn) {
		exitCode = ExitFindings
	}
	return nil
}

// writeReport writes to --out, or to the command's stdout.
func writeReport(cmd *cobra.Command, report *scan.Report, format, placeholder string) error {
	if flagOut != "" {
		return output.WriteReport(report, format, placeholder, flagOut)
	}
	w, err := output.GetWriter(format, placeholder)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if tw, ok := w.(*output.TextWriter); ok && out == os.Stdout {
		tw.Color = true
	}
	return w.Write(out, report)
}

func init() {
	subs := []*cobra.Command{scanUnstagedCmd, scanStagedCmd, scanCommitCmd, scanRangeCmd, scanFilesCmd}
	for _, cmd := range subs {
		addScanFlags(cmd)
		scanCmd.AddCommand(cmd)
	}
	scanRangeCmd.Flags().BoolVar(&flagMergeBase, "merge-base", true, "Use merge base for branch comparisons")
	scanRangeCmd.Flags().BoolVar(&flagPerCommit, "per-commit", false, "Scan each commit separately and attribute findings to it")
}
